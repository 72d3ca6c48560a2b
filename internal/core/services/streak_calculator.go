package services

import (
	"context"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/streak"
)

type StreakCalculator struct {
	ledger *CompletionLedger
	tasks  domain.TaskSource
}

func NewStreakCalculator(ledger *CompletionLedger, tasks domain.TaskSource) *StreakCalculator {
	return &StreakCalculator{ledger: ledger, tasks: tasks}
}

// scanWindow returns the earliest day a scan ending today may visit.
func scanWindow(today, floor time.Time) time.Time {
	earliest := today.AddDate(0, 0, -(streak.HorizonDays - 1))
	if !floor.IsZero() && floor.After(earliest) {
		return floor
	}
	return earliest
}

// startDay is today when today is already settled, otherwise yesterday.
func startDay(today time.Time, records map[string]bool) time.Time {
	if _, ok := records[domain.DayKey(today)]; ok {
		return today
	}
	return today.AddDate(0, 0, -1)
}

// Current computes the ledger streak. A zero floor means only the horizon
// bounds the scan; otherwise days before floor are never visited.
func (c *StreakCalculator) Current(ctx context.Context, userID string, floor time.Time) (int, error) {
	loc := c.ledger.Location()
	today := c.ledger.Today()
	if !floor.IsZero() {
		floor = domain.NormalizeDay(floor, loc)
	}
	from := scanWindow(today, floor)
	to := today.AddDate(0, 0, 1)

	records, err := c.ledger.GetRange(ctx, userID, from, to)
	if err != nil {
		return 0, err
	}

	tasks, err := c.tasks.ListByDateRange(ctx, userID, from, to)
	if err != nil {
		return 0, fmt.Errorf("load tasks: %w", err)
	}

	return ledgerStreak(today, floor, records, domain.GroupTasksByDay(tasks, loc)), nil
}

// ledgerStreak runs the daily scan with "the day had tasks" as activity.
func ledgerStreak(today, floor time.Time, records map[string]bool, byDay map[string][]*domain.Task) int {
	hasActivity := func(day time.Time) bool {
		return len(byDay[domain.DayKey(day)]) > 0
	}
	return streak.CountDays(startDay(today, records), floor, streak.LedgerClassifier(records, hasActivity))
}
