package middleware

import (
	"context"
	"time"

	"clipcoach/pkg/logger"
	"clipcoach/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware tags each request with a request id, threads
// it through the request context and logs the request on completion.
func RequestLoggerMiddleware(ctxLogger *logger.ContextLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = utils.GenerateTraceID()
		}

		ctx := context.WithValue(c.Request.Context(), "request_id", requestID)
		if actorID, ok := ActorFromContext(c); ok {
			ctx = context.WithValue(ctx, "actor_id", string(actorID))
		}
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		ctxLogger.LogRequest(c.Request.Context(), c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Milliseconds())
	}
}
