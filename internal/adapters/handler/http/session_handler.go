package http

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/services"
)

// ProfileCacheInvalidator drops cached profile data after a reset.
type ProfileCacheInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// SessionHandler owns the per-user lifecycle: tracking for midnight
// settlement and the explicit data reset.
type SessionHandler struct {
	evaluator *services.DayCompletionEvaluator
	ledger    *services.CompletionLedger
	tracker   *services.StreakHistoryTracker
	profiles  ProfileCacheInvalidator
}

func NewSessionHandler(evaluator *services.DayCompletionEvaluator, ledger *services.CompletionLedger, tracker *services.StreakHistoryTracker, profiles ProfileCacheInvalidator) *SessionHandler {
	return &SessionHandler{evaluator: evaluator, ledger: ledger, tracker: tracker, profiles: profiles}
}

func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/session", h.Start)
	r.DELETE("/session", h.End)
	r.DELETE("/data", h.Reset)
}

// Start godoc
// @Summary      Start a session
// @Description  Catches up unsettled past days and settles every following midnight while the session lasts.
// @Tags         session
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /session [post]
func (h *SessionHandler) Start(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	settled, err := h.evaluator.Track(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tracked": true, "settled_days": settled})
}

// End godoc
// @Summary      End a session
// @Tags         session
// @Success      204
// @Security     BearerAuth
// @Router       /session [delete]
func (h *SessionHandler) End(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	h.evaluator.Untrack(userID)
	c.Status(http.StatusNoContent)
}

// Reset godoc
// @Summary      Clear on-device streak data
// @Description  Deletes the local ledger and streak history of the caller. The remote replica is kept, so windows older than the reconciliation guard are restored from it on the next read.
// @Tags         session
// @Success      204
// @Security     BearerAuth
// @Router       /data [delete]
func (h *SessionHandler) Reset(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	h.evaluator.Untrack(userID)

	if err := h.ledger.Reset(ctx, userID); err != nil {
		handleError(c, err)
		return
	}
	if err := h.tracker.Reset(ctx, userID); err != nil {
		handleError(c, err)
		return
	}
	if h.profiles != nil {
		h.profiles.Invalidate(ctx, userID)
	}

	log.Printf("[SESSION] User %s reset local streak data", userID)
	c.Status(http.StatusNoContent)
}
