package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/services"
)

type StreakHandler struct {
	calculator *services.StreakCalculator
	tracker    *services.StreakHistoryTracker
}

func NewStreakHandler(calculator *services.StreakCalculator, tracker *services.StreakHistoryTracker) *StreakHandler {
	return &StreakHandler{calculator: calculator, tracker: tracker}
}

func (h *StreakHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/streak", h.GetStreak)
}

type streakResponse struct {
	CurrentStreak  int        `json:"current_streak"`
	MaxStreak      int        `json:"max_streak"`
	LastStreak     int        `json:"last_streak"`
	RestartCount   int        `json:"restart_count"`
	LastBreakDate  *time.Time `json:"last_break_date,omitempty"`
	StreakComeback int        `json:"streak_comeback"`
}

// GetStreak godoc
// @Summary      Current streak
// @Description  Ledger streak over the full horizon together with the stored history. Read only.
// @Tags         streak
// @Produce      json
// @Success      200  {object}  streakResponse
// @Failure      503  {object}  map[string]string
// @Security     BearerAuth
// @Router       /streak [get]
func (h *StreakHandler) GetStreak(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	current, err := h.calculator.Current(ctx, userID, time.Time{})
	if err != nil {
		handleError(c, err)
		return
	}

	history, err := h.tracker.Get(ctx, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, streakResponse{
		CurrentStreak:  current,
		MaxStreak:      max(current, history.MaxStreak),
		LastStreak:     history.LastStreak,
		RestartCount:   history.RestartCount,
		LastBreakDate:  history.LastBreakDate,
		StreakComeback: domain.Comeback(current, history),
	})
}
