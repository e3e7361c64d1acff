package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
)

func GetCurrentUser(ctx *gin.Context) (*models.User, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return nil, errs.Unauthenticated("User not authenticated")
	}

	authenticatedUser, ok := user.(*models.User)

	if !ok {
		return nil, fmt.Errorf("invalid user type in context: %T", user)
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	return user.ID, nil
}

// ParamID parses a positive numeric path parameter. A malformed id names a
// resource that cannot exist.
func ParamID(ctx *gin.Context, name, resource string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)

	if err != nil || id == 0 {
		return 0, errs.NotFound(resource)
	}

	return uint(id), nil
}
