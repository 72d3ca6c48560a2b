package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

	case errors.Is(err, domain.ErrInvalidDay),
		errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidCompletion),
		errors.Is(err, domain.ErrUnknownMetric):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrCompletionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "day not settled"})

	case errors.Is(err, domain.ErrDayNotFinished):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "day not finished",
			"message": "a day can only be evaluated after local midnight",
		})

	case errors.Is(err, domain.ErrLedgerUnavailable):
		log.Printf("[ERROR] Request %s %s (%s): ledger unavailable: %v",
			c.Request.Method, c.Request.URL.Path, middleware.GetRequestID(c), err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "completion ledger unavailable"})

	default:
		log.Printf("[ERROR] Request %s %s (%s) failed: %v",
			c.Request.Method, c.Request.URL.Path, middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return userID, ok
}

// parseDay reads an optional YYYY-MM-DD value. Empty yields the zero time.
func parseDay(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return domain.ParseDay(value, loc)
}
