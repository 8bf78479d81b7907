package middleware

import (
	"context"
	"strconv"
	"time"

	"transfer-pricing/internal/observability"
	"transfer-pricing/internal/utils"
	"transfer-pricing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CORSMiddleware configures CORS headers for the allowed origins. A "*"
// entry allows any origin.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[origin]; allowAll || ok {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware adds a request ID to each request and to its context,
// so service-level logs carry it too.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(utils.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(utils.ContextKeyRequestID, requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID))
		c.Header(utils.HeaderRequestID, requestID)
		c.Next()
	}
}

// LoggingMiddleware logs every request and records HTTP metrics against the
// matched route template, not the raw path.
func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()

		observability.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		observability.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Observe(duration.Seconds())

		log.WithContext(c.Request.Context()).LogAPIRequest(c.Request.Method, path, status, duration)
	}
}
