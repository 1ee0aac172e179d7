package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"ecttool/domain/core"
	"ecttool/internal/metrics"
)

// RequestIDHeader carries the request identifier in both directions
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the gin context key holding the request identifier
const RequestIDKey = "request_id"

// RequestID reuses the caller's X-Request-ID or assigns a new one, and echoes
// it on the response
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := core.ParseID(c.GetHeader(RequestIDHeader))
		if err != nil || len(id) > 128 {
			id = core.NewID()
		}
		c.Set(RequestIDKey, id.String())
		c.Header(RequestIDHeader, id.String())
		c.Next()
	}
}

// Timeout bounds the request context. Handlers see the deadline through
// c.Request.Context(); nothing is written on their behalf.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Metrics records every request under its route pattern
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveHTTP(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
