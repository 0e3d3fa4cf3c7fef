package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// query parameters that must never reach the logs
var redactedParams = []string{"token"}

// Logger returns a middleware that logs failed requests using logrus.
// Health checks are skipped and closed progress streams are logged at debug.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if strings.HasSuffix(route, "/health") {
			return
		}

		statusCode := c.Writer.Status()
		fields := logrus.Fields{
			"status":    statusCode,
			"latency":   time.Since(start),
			"client_ip": c.ClientIP(),
			"method":    c.Request.Method,
			"path":      requestPath(c.Request.URL),
		}
		if route != "" {
			fields["route"] = route
		}
		if id := c.Param("id"); id != "" {
			fields["resource_id"] = id
		}
		if retry := c.Writer.Header().Get("Retry-After"); retry != "" {
			fields["retry_after"] = retry
		}
		entry := logrus.WithFields(fields)

		switch {
		case strings.HasSuffix(route, "/stream") && statusCode < 400:
			entry.Debug("Progress stream closed")
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode == 429:
			// upstream quota, not a client mistake
			entry.Info("Rate limited")
		case statusCode >= 400:
			entry.Warn("Client error")
		}
	}
}

// requestPath renders the path and query with signed tokens masked
func requestPath(u *url.URL) string {
	if u.RawQuery == "" {
		return u.Path
	}
	query := u.Query()
	for _, key := range redactedParams {
		if query.Has(key) {
			query.Set(key, "REDACTED")
		}
	}
	return u.Path + "?" + query.Encode()
}
