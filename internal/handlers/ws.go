package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebSocket subscribes the caller to change events of a project they hold a
// role on.
func (h *Handler) WebSocket(ctx *gin.Context) {
	userID, projectID, ok := projectParams(ctx)

	if !ok {
		return
	}

	if _, err := h.manager.RoleOf(ctx.Request.Context(), userID, projectID); err != nil {
		respondError(ctx, err)
		return
	}

	if err := h.hub.Serve(ctx.Writer, ctx.Request, projectID, userID); err != nil {
		zerolog.Ctx(ctx.Request.Context()).Warn().Err(err).Uint("project_id", projectID).Msg("websocket upgrade failed")
	}
}
