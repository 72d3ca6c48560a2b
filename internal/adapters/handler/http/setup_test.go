package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-streak-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/clock"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/workers"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

// testEnv serves the handlers over in-memory stores. Today is Wednesday
// 2026-10-14 10:00 in Europe/Rome.
type testEnv struct {
	t      *testing.T
	router *gin.Engine
	loc    *time.Location
	clk    *clock.Fake
	userID string

	local       *repository.InMemoryCompletionRepository
	tasks       *repository.InMemoryTaskSource
	profiles    *repository.InMemoryProfileSource
	invalidator *recordingInvalidator

	ledger    *services.CompletionLedger
	evaluator *services.DayCompletionEvaluator
	tracker   *services.StreakHistoryTracker
	stats     *services.StatsService
	streaks   *services.StreakCalculator
}

func newServices(t *testing.T) *testEnv {
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	e := &testEnv{
		t:           t,
		loc:         loc,
		clk:         clock.NewFake(time.Date(2026, 10, 14, 10, 0, 0, 0, loc)),
		userID:      uuid.NewString(),
		local:       repository.NewInMemoryCompletionRepository(),
		tasks:       repository.NewInMemoryTaskSource(),
		profiles:    repository.NewInMemoryProfileSource(),
		invalidator: &recordingInvalidator{},
	}

	e.ledger = services.NewCompletionLedger(e.local, nil, nil, e.clk, loc)
	e.evaluator = services.NewDayCompletionEvaluator(e.ledger, e.tasks, workers.NewMidnightScheduler(e.clk, loc))
	e.tracker = services.NewStreakHistoryTracker(repository.NewInMemoryStreakHistoryRepository(), nil, e.clk)
	e.streaks = services.NewStreakCalculator(e.ledger, e.tasks)
	e.stats = services.NewStatsService(e.ledger, e.tasks, e.profiles, e.tracker)

	t.Cleanup(func() {
		e.evaluator.Stop()
		e.ledger.Wait()
	})
	return e
}

func setupEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	e := newServices(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set(middleware.ContextUserIDKey, userID)
		}
		c.Next()
	})

	api := r.Group("/api/v1")
	adapterHTTP.NewStatsHandler(e.stats, e.loc).RegisterRoutes(api)
	adapterHTTP.NewStreakHandler(e.streaks, e.tracker).RegisterRoutes(api)
	adapterHTTP.NewCompletionHandler(e.ledger, e.evaluator).RegisterRoutes(api)
	adapterHTTP.NewSessionHandler(e.evaluator, e.ledger, e.tracker, e.invalidator).RegisterRoutes(api)

	e.router = r
	return e
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	return e.doAs(e.userID, method, path, body)
}

func (e *testEnv) doAs(userID, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) day(offset int) time.Time {
	return time.Date(2026, 10, 14+offset, 0, 0, 0, 0, e.loc)
}

func (e *testEnv) settle(offset int, completed bool) {
	rec := domain.NewCompletionRecord(e.userID, e.day(offset), completed, e.day(offset+1))
	require.NoError(e.t, e.local.Upsert(context.Background(), rec))
}

func (e *testEnv) task(offset int, category string, completed bool) {
	day := e.day(offset)
	t := &domain.Task{
		ID:        uuid.NewString(),
		UserID:    e.userID,
		Date:      day,
		Title:     category,
		Category:  category,
		Completed: completed,
		CreatedAt: day,
	}
	if completed {
		at := day.Add(9 * time.Hour)
		t.CompletedAt = &at
	}
	e.tasks.Add(t)
}
