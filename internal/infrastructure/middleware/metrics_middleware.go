package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestDurationRecorder receives the wall time of each handled
// request. The Prometheus collector implements it.
type RequestDurationRecorder interface {
	RecordRequestDuration(d time.Duration)
}

// MetricsMiddleware times every request end to end, including the rest
// of the middleware chain.
func MetricsMiddleware(recorder RequestDurationRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		recorder.RecordRequestDuration(time.Since(start))
	}
}
