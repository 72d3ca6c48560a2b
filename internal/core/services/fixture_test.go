package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/clock"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/workers"
)

func ptr[T any](v T) *T {
	return &v
}

type recordingQueue struct {
	mu          sync.Mutex
	completions []domain.CompletionRecord
	histories   []domain.StreakHistory
}

func (q *recordingQueue) EnqueueCompletion(rec *domain.CompletionRecord) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completions = append(q.completions, *rec)
}

func (q *recordingQueue) EnqueueHistory(userID string, h *domain.StreakHistory) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.histories = append(q.histories, *h)
}

func (q *recordingQueue) completionCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.completions)
}

type MockRemoteCompletions struct {
	mock.Mock
}

func (m *MockRemoteCompletions) Upsert(ctx context.Context, rec *domain.CompletionRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockRemoteCompletions) ListRange(ctx context.Context, userID string, start, end time.Time) ([]*domain.CompletionRecord, error) {
	args := m.Called(ctx, userID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CompletionRecord), args.Error(1)
}

// fixture wires the services over in-memory stores and a fake clock.
// "Today" is Wednesday 2026-10-14 in Europe/Rome.
type fixture struct {
	t        *testing.T
	ctx      context.Context
	loc      *time.Location
	clk      *clock.Fake
	userID   string
	local    *repository.InMemoryCompletionRepository
	remote   *repository.InMemoryCompletionRepository
	tasks    *repository.InMemoryTaskSource
	profiles *repository.InMemoryProfileSource
	history  *repository.InMemoryStreakHistoryRepository
	queue    *recordingQueue

	scheduler  *workers.MidnightScheduler
	ledger     *services.CompletionLedger
	evaluator  *services.DayCompletionEvaluator
	calculator *services.StreakCalculator
	tracker    *services.StreakHistoryTracker
	stats      *services.StatsService
}

func newFixture(t *testing.T) *fixture {
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		loc:      loc,
		clk:      clock.NewFake(time.Date(2026, 10, 14, 10, 0, 0, 0, loc)),
		userID:   uuid.NewString(),
		local:    repository.NewInMemoryCompletionRepository(),
		remote:   repository.NewInMemoryCompletionRepository(),
		tasks:    repository.NewInMemoryTaskSource(),
		profiles: repository.NewInMemoryProfileSource(),
		history:  repository.NewInMemoryStreakHistoryRepository(),
		queue:    &recordingQueue{},
	}

	f.scheduler = workers.NewMidnightScheduler(f.clk, loc)
	f.ledger = services.NewCompletionLedger(f.local, f.remote, f.queue, f.clk, loc)
	f.evaluator = services.NewDayCompletionEvaluator(f.ledger, f.tasks, f.scheduler)
	f.calculator = services.NewStreakCalculator(f.ledger, f.tasks)
	f.tracker = services.NewStreakHistoryTracker(f.history, f.queue, f.clk)
	f.stats = services.NewStatsService(f.ledger, f.tasks, f.profiles, f.tracker)

	t.Cleanup(f.ledger.Wait)
	return f
}

// day returns local midnight offset days from today.
func (f *fixture) day(offset int) time.Time {
	return time.Date(2026, 10, 14+offset, 0, 0, 0, 0, f.loc)
}

// settle writes a record straight into the local store.
func (f *fixture) settle(offset int, completed bool) {
	rec := domain.NewCompletionRecord(f.userID, f.day(offset), completed, f.day(offset+1))
	require.NoError(f.t, f.local.Upsert(f.ctx, rec))
}

type taskOpt func(*domain.Task)

func challenge() taskOpt {
	return func(t *domain.Task) { t.IsDailyChallenge = true }
}

func aiGenerated() taskOpt {
	return func(t *domain.Task) { t.AIGenerated = true }
}

func nutrition(cal, protein, carbs, fats int) taskOpt {
	return func(t *domain.Task) {
		t.Nutrition = &domain.NutritionFacts{Calories: cal, Protein: protein, Carbs: carbs, Fats: fats}
	}
}

// task adds a task on day offset. A completed task is completed at the given
// local hour and minute.
func (f *fixture) task(offset int, category string, completed bool, hour, minute int, opts ...taskOpt) *domain.Task {
	day := f.day(offset)
	t := &domain.Task{
		ID:        uuid.NewString(),
		UserID:    f.userID,
		Date:      day,
		Title:     category + " task",
		Category:  category,
		Completed: completed,
		CreatedAt: day,
	}
	if completed {
		t.CompletedAt = ptr(day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute))
	}
	for _, opt := range opts {
		opt(t)
	}
	f.tasks.Add(t)
	return t
}

func (f *fixture) record(offset int) (*domain.CompletionRecord, error) {
	return f.ledger.Get(f.ctx, f.userID, f.day(offset))
}
