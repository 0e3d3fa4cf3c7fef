package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/failover"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/llm"
	"github.com/sirupsen/logrus"
)

// respondError maps service errors to HTTP responses
func respondError(c *gin.Context, message string, err error) {
	var crawlErr *services.CrawlError
	var exhausted *failover.ExhaustedError

	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": message, "details": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": message, "details": err.Error()})
	case errors.Is(err, services.ErrRunFinished), errors.Is(err, services.ErrBatchBusy):
		c.JSON(http.StatusConflict, gin.H{"error": message, "details": err.Error()})
	case errors.Is(err, services.ErrNoContent):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": message, "details": err.Error()})
	case errors.As(err, &crawlErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": message, "details": err.Error()})
	case llm.IsRateLimit(err):
		seconds := 60
		if retry, ok := llm.RetryAfter(err); ok {
			seconds = int(math.Ceil(retry.Seconds()))
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": message, "details": err.Error(), "retry_after_seconds": seconds})
	case errors.As(err, &exhausted):
		c.JSON(http.StatusBadGateway, gin.H{"error": message, "details": err.Error()})
	default:
		logrus.Errorf("%s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
	}
}
