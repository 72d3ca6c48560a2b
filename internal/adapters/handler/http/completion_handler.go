package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/services"
)

// defaultCompletionDays is the window GET /completions returns without a start_date.
const defaultCompletionDays = 30

type CompletionHandler struct {
	ledger    *services.CompletionLedger
	evaluator *services.DayCompletionEvaluator
}

func NewCompletionHandler(ledger *services.CompletionLedger, evaluator *services.DayCompletionEvaluator) *CompletionHandler {
	return &CompletionHandler{ledger: ledger, evaluator: evaluator}
}

func (h *CompletionHandler) RegisterRoutes(r *gin.RouterGroup) {
	completions := r.Group("/completions")
	{
		completions.GET("", h.ListRange)
		completions.GET("/:date", h.GetDay)
		completions.POST("/:date/evaluate", h.EvaluateDay)
	}
}

type completionRangeResponse struct {
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Days      map[string]bool `json:"days"`
}

// ListRange godoc
// @Summary      Settled days
// @Description  Settled days of an inclusive window keyed by YYYY-MM-DD. Unsettled days are absent.
// @Tags         completions
// @Produce      json
// @Param        start_date  query  string  false  "YYYY-MM-DD, defaults to 30 days ago"
// @Param        end_date    query  string  false  "YYYY-MM-DD, defaults to today"
// @Success      200  {object}  completionRangeResponse
// @Failure      400  {object}  map[string]string
// @Security     BearerAuth
// @Router       /completions [get]
func (h *CompletionHandler) ListRange(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	loc := h.ledger.Location()

	end, err := parseDay(c.Query("end_date"), loc)
	if err != nil {
		handleError(c, err)
		return
	}
	if end.IsZero() {
		end = h.ledger.Today()
	}

	start, err := parseDay(c.Query("start_date"), loc)
	if err != nil {
		handleError(c, err)
		return
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -(defaultCompletionDays - 1))
	}

	span := domain.DaysBetween(start, end) + 1
	if span < 1 || span > domain.MaxWindowDays {
		handleError(c, domain.ErrInvalidWindow)
		return
	}

	days, err := h.ledger.GetRange(c.Request.Context(), userID, start, end.AddDate(0, 0, 1))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, completionRangeResponse{
		StartDate: domain.DayKey(start),
		EndDate:   domain.DayKey(end),
		Days:      days,
	})
}

func (h *CompletionHandler) pathDay(c *gin.Context) (time.Time, bool) {
	day, err := domain.ParseDay(c.Param("date"), h.ledger.Location())
	if err != nil {
		handleError(c, err)
		return time.Time{}, false
	}
	return day, true
}

// GetDay godoc
// @Summary      One settled day
// @Tags         completions
// @Produce      json
// @Param        date  path  string  true  "YYYY-MM-DD"
// @Success      200  {object}  domain.CompletionRecord
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /completions/{date} [get]
func (h *CompletionHandler) GetDay(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	day, ok := h.pathDay(c)
	if !ok {
		return
	}

	rec, err := h.ledger.Get(c.Request.Context(), userID, day)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// EvaluateDay godoc
// @Summary      Settle a past day
// @Description  Re-evaluates the day's tasks and writes the result. Today and future days are rejected.
// @Tags         completions
// @Produce      json
// @Param        date  path  string  true  "YYYY-MM-DD"
// @Success      200  {object}  domain.CompletionRecord
// @Failure      409  {object}  map[string]string
// @Security     BearerAuth
// @Router       /completions/{date}/evaluate [post]
func (h *CompletionHandler) EvaluateDay(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	day, ok := h.pathDay(c)
	if !ok {
		return
	}

	rec, err := h.evaluator.EvaluateDay(c.Request.Context(), userID, day)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}
