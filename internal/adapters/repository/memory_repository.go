package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

var (
	_ domain.CompletionRepository          = (*InMemoryCompletionRepository)(nil)
	_ domain.RemoteCompletionRepository    = (*InMemoryCompletionRepository)(nil)
	_ domain.StreakHistoryRepository       = (*InMemoryStreakHistoryRepository)(nil)
	_ domain.RemoteStreakHistoryRepository = (*InMemoryStreakHistoryRepository)(nil)
	_ domain.TaskSource                    = (*InMemoryTaskSource)(nil)
	_ domain.ProfileSource                 = (*InMemoryProfileSource)(nil)
)

// InMemoryCompletionRepository can stand in for both the local store and the
// remote replica. SetError makes every call fail, which is how tests simulate
// an unavailable store.
type InMemoryCompletionRepository struct {
	store map[string]domain.CompletionRecord
	err   error

	mu sync.RWMutex
}

func NewInMemoryCompletionRepository() *InMemoryCompletionRepository {
	return &InMemoryCompletionRepository{
		store: make(map[string]domain.CompletionRecord),
	}
}

func (r *InMemoryCompletionRepository) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *InMemoryCompletionRepository) Get(ctx context.Context, userID string, day time.Time) (*domain.CompletionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.err != nil {
		return nil, r.err
	}
	rec, ok := r.store[userID+"/"+domain.DayKey(day)]
	if !ok {
		return nil, domain.ErrCompletionNotFound
	}
	return &rec, nil
}

func (r *InMemoryCompletionRepository) ListRange(ctx context.Context, userID string, start, end time.Time) ([]*domain.CompletionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.err != nil {
		return nil, r.err
	}

	records := []*domain.CompletionRecord{}
	for _, rec := range r.store {
		if rec.UserID != userID || rec.Date.Before(start) || !rec.Date.Before(end) {
			continue
		}
		copied := rec
		records = append(records, &copied)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	return records, nil
}

func (r *InMemoryCompletionRepository) Upsert(ctx context.Context, rec *domain.CompletionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.store[rec.Key()] = *rec
	return nil
}

func (r *InMemoryCompletionRepository) InsertIfAbsent(ctx context.Context, rec *domain.CompletionRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return false, r.err
	}
	if _, ok := r.store[rec.Key()]; ok {
		return false, nil
	}
	r.store[rec.Key()] = *rec
	return true, nil
}

func (r *InMemoryCompletionRepository) DeleteUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	for key := range r.store {
		if strings.HasPrefix(key, userID+"/") {
			delete(r.store, key)
		}
	}
	return nil
}

// Len is the number of stored records across all users.
func (r *InMemoryCompletionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store)
}

type InMemoryStreakHistoryRepository struct {
	store map[string]domain.StreakHistory

	mu sync.RWMutex
}

func NewInMemoryStreakHistoryRepository() *InMemoryStreakHistoryRepository {
	return &InMemoryStreakHistoryRepository{
		store: make(map[string]domain.StreakHistory),
	}
}

func (r *InMemoryStreakHistoryRepository) Get(ctx context.Context, userID string) (*domain.StreakHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.store[userID]
	if !ok {
		return nil, domain.ErrHistoryNotFound
	}
	return &h, nil
}

func (r *InMemoryStreakHistoryRepository) Save(ctx context.Context, userID string, h *domain.StreakHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[userID] = *h
	return nil
}

func (r *InMemoryStreakHistoryRepository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.store, userID)
	return nil
}

type InMemoryTaskSource struct {
	tasks []*domain.Task

	mu sync.RWMutex
}

func NewInMemoryTaskSource(tasks ...*domain.Task) *InMemoryTaskSource {
	return &InMemoryTaskSource{tasks: tasks}
}

func (s *InMemoryTaskSource) Add(tasks ...*domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, tasks...)
}

func (s *InMemoryTaskSource) ListByDateRange(ctx context.Context, userID string, start, end time.Time) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Task{}
	for _, t := range s.tasks {
		if t.UserID != userID || t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type InMemoryProfileSource struct {
	targets map[string]domain.NutritionTargets

	mu sync.RWMutex
}

func NewInMemoryProfileSource() *InMemoryProfileSource {
	return &InMemoryProfileSource{
		targets: make(map[string]domain.NutritionTargets),
	}
}

func (s *InMemoryProfileSource) Set(userID string, targets domain.NutritionTargets) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[userID] = targets
}

func (s *InMemoryProfileSource) GetNutritionTargets(ctx context.Context, userID string) (*domain.NutritionTargets, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.targets[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &t, nil
}
