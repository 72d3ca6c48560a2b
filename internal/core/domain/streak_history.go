package domain

import "time"

// ComebackThreshold is the streak length that counts as a return from a break.
const ComebackThreshold = 7

type StreakHistory struct {
	LastStreak    int        `json:"last_streak" db:"last_streak"`
	MaxStreak     int        `json:"max_streak" db:"max_streak"`
	RestartCount  int        `json:"restart_count" db:"restart_count"`
	LastBreakDate *time.Time `json:"last_break_date,omitempty" db:"last_break_date"`

	// LastObservedStreak is the streak value seen by the latest update,
	// break or not. It stands in for previousStreak when the caller has none.
	LastObservedStreak int       `json:"last_observed_streak" db:"last_observed_streak"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// Apply folds a newly computed streak into the history.
// A break is recorded when previous is known and current dropped below it.
func (h *StreakHistory) Apply(current int, previous *int, now time.Time) {
	if previous != nil && current < *previous {
		h.RestartCount++
		at := now.UTC()
		h.LastBreakDate = &at
		h.LastStreak = *previous
		if *previous > h.MaxStreak {
			h.MaxStreak = *previous
		}
	} else {
		h.LastStreak = current
		if current > h.MaxStreak {
			h.MaxStreak = current
		}
	}

	h.LastObservedStreak = current
	h.UpdatedAt = now.UTC()
}

func (h *StreakHistory) HasBreak() bool {
	return h.RestartCount > 0 || h.LastBreakDate != nil
}

// Comeback returns current when it is a streak of at least ComebackThreshold
// days achieved after a recorded break, otherwise 0.
func Comeback(current int, h *StreakHistory) int {
	if h == nil || current < ComebackThreshold || !h.HasBreak() {
		return 0
	}
	return current
}
