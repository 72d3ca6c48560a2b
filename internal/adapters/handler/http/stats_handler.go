package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/services"
)

type StatsHandler struct {
	svc *services.StatsService
	loc *time.Location
}

func NewStatsHandler(svc *services.StatsService, loc *time.Location) *StatsHandler {
	return &StatsHandler{svc: svc, loc: loc}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats/snapshot", h.GetSnapshot)
	r.POST("/achievements/progress", h.GetAchievementProgress)
}

func (h *StatsHandler) statsInput(userID, start, end string) (domain.StatsInput, error) {
	startDate, err := parseDay(start, h.loc)
	if err != nil {
		return domain.StatsInput{}, err
	}
	endDate, err := parseDay(end, h.loc)
	if err != nil {
		return domain.StatsInput{}, err
	}
	return domain.StatsInput{UserID: userID, StartDate: startDate, EndDate: endDate}, nil
}

// GetSnapshot godoc
// @Summary      Statistics snapshot
// @Description  Every gamification counter over an inclusive window of at most 366 days.
// @Tags         stats
// @Produce      json
// @Param        start_date  query  string  false  "YYYY-MM-DD, defaults to the horizon start"
// @Param        end_date    query  string  false  "YYYY-MM-DD, defaults to today"
// @Success      200  {object}  domain.StatisticsSnapshot
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     BearerAuth
// @Router       /stats/snapshot [get]
func (h *StatsHandler) GetSnapshot(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	input, err := h.statsInput(userID, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		handleError(c, err)
		return
	}

	snap, err := h.svc.GetStatisticsSnapshot(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

type conditionRequest struct {
	Metric string `json:"metric" binding:"required"`
	Param  string `json:"param"`
	Target int    `json:"target" binding:"required,gt=0"`
}

type progressRequest struct {
	StartDate  string             `json:"start_date"`
	EndDate    string             `json:"end_date"`
	Conditions []conditionRequest `json:"conditions" binding:"required,min=1,max=200,dive"`
}

type conditionProgress struct {
	domain.AchievementCondition
	Current  int  `json:"current"`
	Unlocked bool `json:"unlocked"`
}

// GetAchievementProgress godoc
// @Summary      Evaluate achievement conditions
// @Description  Resolves each condition against one snapshot of the requested window.
// @Tags         stats
// @Accept       json
// @Produce      json
// @Param        request  body  progressRequest  true  "conditions"
// @Success      200  {array}   conditionProgress
// @Failure      400  {object}  map[string]string
// @Security     BearerAuth
// @Router       /achievements/progress [post]
func (h *StatsHandler) GetAchievementProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := h.statsInput(userID, req.StartDate, req.EndDate)
	if err != nil {
		handleError(c, err)
		return
	}

	snap, err := h.svc.GetStatisticsSnapshot(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	out := make([]conditionProgress, 0, len(req.Conditions))
	for _, rc := range req.Conditions {
		cond := domain.AchievementCondition{Metric: rc.Metric, Param: rc.Param, Target: rc.Target}
		current, unlocked, err := cond.Progress(snap)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "metric": rc.Metric, "param": rc.Param})
			return
		}
		out = append(out, conditionProgress{AchievementCondition: cond, Current: current, Unlocked: unlocked})
	}

	c.JSON(http.StatusOK, out)
}
