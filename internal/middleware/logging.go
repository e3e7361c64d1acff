package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/taskboard-dev/taskboard/internal/types"
)

// RequestLogger tags each request with an id, reusing the caller's
// X-Request-ID when present, and logs one line when it completes.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		requestID := ctx.GetHeader(types.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Header(types.RequestIDHeader, requestID)

		reqLog := log.With().Str("request_id", requestID).Logger()
		ctx.Request = ctx.Request.WithContext(reqLog.WithContext(ctx.Request.Context()))

		ctx.Next()

		status := ctx.Writer.Status()

		event := reqLog.Info()
		switch {
		case status >= 500:
			event = reqLog.Error()
		case status >= 400:
			event = reqLog.Warn()
		}

		if len(ctx.Errors) > 0 {
			event = event.Str("errors", ctx.Errors.String())
		}

		event.
			Str("method", ctx.Request.Method).
			Str("path", ctx.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", ctx.ClientIP()).
			Msg("request")
	}
}
