package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/realtime"
	"github.com/taskboard-dev/taskboard/internal/services"
)

type CookieConfig struct {
	Domain string
	Secure bool
	MaxAge int
}

type Handler struct {
	accounts *services.Accounts
	manager  *services.Manager
	hub      *realtime.Hub
	cookie   CookieConfig
}

func New(accounts *services.Accounts, manager *services.Manager, hub *realtime.Hub, cookie CookieConfig) *Handler {
	return &Handler{
		accounts: accounts,
		manager:  manager,
		hub:      hub,
		cookie:   cookie,
	}
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindUnauthenticated:
		return http.StatusUnauthorized
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindConflict:
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// respondError writes err as {"error": ..., "field": ...}. Internal errors
// are logged and their detail withheld.
func respondError(ctx *gin.Context, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)

	if kind == errs.KindInternal {
		zerolog.Ctx(ctx.Request.Context()).Error().Err(err).Str("path", ctx.FullPath()).Msg("request failed")
		_ = ctx.Error(err)
	}

	body := gin.H{"error": errs.MessageOf(err)}

	if field := errs.FieldOf(err); field != "" {
		body["field"] = field
	}

	ctx.AbortWithStatusJSON(status, body)
}

func invalidRequest(ctx *gin.Context) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
}
