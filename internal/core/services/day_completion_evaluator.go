package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

// MissedDaysLookback bounds the catch-up done when a user session starts.
const MissedDaysLookback = 7

const settleTimeout = 30 * time.Second

// Scheduler runs a callback at every local midnight until canceled.
type Scheduler interface {
	Start(fn func(ended time.Time))
	Cancel()
}

// DayCompletionEvaluator settles finished days into the ledger. The current
// day stays pending until the scheduler reports that it ended.
type DayCompletionEvaluator struct {
	ledger    *CompletionLedger
	tasks     domain.TaskSource
	scheduler Scheduler

	mu      sync.Mutex
	tracked map[string]struct{}
}

func NewDayCompletionEvaluator(ledger *CompletionLedger, tasks domain.TaskSource, scheduler Scheduler) *DayCompletionEvaluator {
	return &DayCompletionEvaluator{
		ledger:    ledger,
		tasks:     tasks,
		scheduler: scheduler,
		tracked:   make(map[string]struct{}),
	}
}

// EvaluateDay settles day, which must be strictly before today.
func (e *DayCompletionEvaluator) EvaluateDay(ctx context.Context, userID string, day time.Time) (*domain.CompletionRecord, error) {
	d := domain.NormalizeDay(day, e.ledger.Location())
	if !d.Before(e.ledger.Today()) {
		return nil, domain.ErrDayNotFinished
	}
	return e.settle(ctx, userID, d, "explicit")
}

// SettleEndedDay is the midnight path: day is the day the scheduler reports as
// just ended, which may still read as today if the timer fired a hair early.
func (e *DayCompletionEvaluator) SettleEndedDay(ctx context.Context, userID string, day time.Time) (*domain.CompletionRecord, error) {
	d := domain.NormalizeDay(day, e.ledger.Location())
	if d.After(e.ledger.Today()) {
		return nil, domain.ErrDayNotFinished
	}
	return e.settle(ctx, userID, d, "midnight")
}

func (e *DayCompletionEvaluator) settle(ctx context.Context, userID string, day time.Time, trigger string) (*domain.CompletionRecord, error) {
	tasks, err := e.tasks.ListByDateRange(ctx, userID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load tasks for %s: %w", domain.DayKey(day), err)
	}

	completed := domain.AllDone(tasks)
	rec, err := e.ledger.Upsert(ctx, userID, day, completed)
	if err != nil {
		return nil, err
	}

	outcome := "missed"
	if completed {
		outcome = "completed"
	}
	daySettlements.WithLabelValues(outcome, trigger).Inc()
	return rec, nil
}

// SettleMissedDays settles past days that had tasks but were never settled,
// e.g. because the device was off at midnight. Days without tasks are left
// alone so the streak scan keeps skipping them. It returns how many days it settled.
func (e *DayCompletionEvaluator) SettleMissedDays(ctx context.Context, userID string, lookback int) (int, error) {
	if lookback <= 0 {
		return 0, nil
	}

	today := e.ledger.Today()
	start := today.AddDate(0, 0, -lookback)

	records, err := e.ledger.GetRange(ctx, userID, start, today)
	if err != nil {
		return 0, err
	}

	tasks, err := e.tasks.ListByDateRange(ctx, userID, start, today)
	if err != nil {
		return 0, fmt.Errorf("load tasks: %w", err)
	}
	byDay := domain.GroupTasksByDay(tasks, e.ledger.Location())

	days := make([]string, 0, len(byDay))
	for key := range byDay {
		if _, settled := records[key]; !settled {
			days = append(days, key)
		}
	}
	sort.Strings(days)

	settled := 0
	for _, key := range days {
		day, err := domain.ParseDay(key, e.ledger.Location())
		if err != nil {
			continue
		}
		completed := domain.AllDone(byDay[key])
		if _, err := e.ledger.Upsert(ctx, userID, day, completed); err != nil {
			return settled, err
		}
		outcome := "missed"
		if completed {
			outcome = "completed"
		}
		daySettlements.WithLabelValues(outcome, "catch_up").Inc()
		settled++
	}

	if settled > 0 {
		log.Printf("[LEDGER] Caught up %d unsettled days for user %s", settled, userID)
	}
	return settled, nil
}

// Track registers a user session. The first tracked user starts the midnight
// scheduler. Missed days are caught up before returning.
func (e *DayCompletionEvaluator) Track(ctx context.Context, userID string) (int, error) {
	e.mu.Lock()
	_, already := e.tracked[userID]
	e.tracked[userID] = struct{}{}
	first := len(e.tracked) == 1 && !already
	e.mu.Unlock()

	if first && e.scheduler != nil {
		e.scheduler.Start(e.onMidnight)
	}

	return e.SettleMissedDays(ctx, userID, MissedDaysLookback)
}

// Untrack ends a user session. The last untrack cancels the scheduler.
func (e *DayCompletionEvaluator) Untrack(userID string) {
	e.mu.Lock()
	_, ok := e.tracked[userID]
	delete(e.tracked, userID)
	last := ok && len(e.tracked) == 0
	e.mu.Unlock()

	if last && e.scheduler != nil {
		e.scheduler.Cancel()
	}
}

func (e *DayCompletionEvaluator) Tracked() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	users := make([]string, 0, len(e.tracked))
	for id := range e.tracked {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

// Stop forgets every session and cancels the scheduler.
func (e *DayCompletionEvaluator) Stop() {
	e.mu.Lock()
	e.tracked = make(map[string]struct{})
	e.mu.Unlock()

	if e.scheduler != nil {
		e.scheduler.Cancel()
	}
}

func (e *DayCompletionEvaluator) onMidnight(ended time.Time) {
	for _, userID := range e.Tracked() {
		ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
		rec, err := e.SettleEndedDay(ctx, userID, ended)
		cancel()

		if err != nil {
			log.Printf("[SCHEDULER] Failed to settle %s for user %s: %v", domain.DayKey(ended), userID, err)
			continue
		}
		log.Printf("[SCHEDULER] Settled %s for user %s: completed=%t", domain.DayKey(rec.Date), userID, rec.IsCompleted)
	}
}
