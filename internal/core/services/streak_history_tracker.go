package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/clock"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

type StreakHistoryTracker struct {
	repo  domain.StreakHistoryRepository
	queue SyncQueue
	clock clock.Clock
}

func NewStreakHistoryTracker(repo domain.StreakHistoryRepository, queue SyncQueue, clk clock.Clock) *StreakHistoryTracker {
	if clk == nil {
		clk = clock.System()
	}
	return &StreakHistoryTracker{repo: repo, queue: queue, clock: clk}
}

// Get returns the zero history for users that have none.
func (t *StreakHistoryTracker) Get(ctx context.Context, userID string) (*domain.StreakHistory, error) {
	h, err := t.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrHistoryNotFound) {
			return &domain.StreakHistory{}, nil
		}
		return nil, fmt.Errorf("load streak history: %w", err)
	}
	return h, nil
}

// Update folds current into the history. A nil previous never counts as a break.
func (t *StreakHistoryTracker) Update(ctx context.Context, userID string, current int, previous *int) (*domain.StreakHistory, error) {
	h, err := t.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	restarts := h.RestartCount
	h.Apply(current, previous, t.clock.Now())

	if err := t.repo.Save(ctx, userID, h); err != nil {
		return nil, fmt.Errorf("save streak history: %w", err)
	}
	if h.RestartCount > restarts {
		log.Printf("[LEDGER] Streak break for user %s: %d -> %d (restarts=%d)", userID, *previous, current, h.RestartCount)
	}

	if t.queue != nil {
		t.queue.EnqueueHistory(userID, h)
	}
	return h, nil
}

// Observe is Update with the last observed streak as previous. A user with no
// history has no previous value.
func (t *StreakHistoryTracker) Observe(ctx context.Context, userID string, current int) (*domain.StreakHistory, error) {
	h, err := t.repo.Get(ctx, userID)
	switch {
	case err == nil:
		previous := h.LastObservedStreak
		return t.Update(ctx, userID, current, &previous)
	case errors.Is(err, domain.ErrHistoryNotFound):
		return t.Update(ctx, userID, current, nil)
	default:
		return nil, fmt.Errorf("load streak history: %w", err)
	}
}

func (t *StreakHistoryTracker) Reset(ctx context.Context, userID string) error {
	if err := t.repo.Delete(ctx, userID); err != nil && !errors.Is(err, domain.ErrHistoryNotFound) {
		return fmt.Errorf("delete streak history: %w", err)
	}
	return nil
}
