package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// bearerToken reads the access token from the Authorization header, falling
// back to the session cookie for browser and websocket clients.
func bearerToken(ctx *gin.Context) (string, string) {
	if header := ctx.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", "Authorization header format must be Bearer {token}"
		}

		return parts[1], ""
	}

	if cookie, err := ctx.Cookie(types.TokenCookie); err == nil && cookie != "" {
		return cookie, ""
	}

	return "", "Authentication credentials were not provided"
}

func AuthMiddleware(accounts Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, problem := bearerToken(ctx)

		if problem != "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": problem})
			return
		}

		user, err := accounts.Authenticate(ctx.Request.Context(), token)

		if err != nil {
			status := http.StatusUnauthorized
			if errs.KindOf(err) == errs.KindInternal {
				status = http.StatusInternalServerError
			}
			ctx.AbortWithStatusJSON(status, gin.H{"error": errs.MessageOf(err)})
			return
		}

		ctx.Set(types.ContextUserKey, user)
		ctx.Next()
	}
}
