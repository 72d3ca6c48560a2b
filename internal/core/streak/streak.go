// Package streak implements the backward scan every streak metric is built on.
//
// A scan walks periods (days or weeks) backward from a start period. Each
// period is classified as Qualified (count it and continue), Broken (stop) or
// Skip (no qualifying activity happened, continue without counting). The scan
// never looks further back than the horizon or the optional floor.
package streak

import (
	"time"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

const (
	HorizonDays  = 365
	HorizonWeeks = 52
)

type Outcome int

const (
	Skip Outcome = iota
	Qualified
	Broken
)

func (o Outcome) String() string {
	switch o {
	case Skip:
		return "skip"
	case Qualified:
		return "qualified"
	case Broken:
		return "broken"
	}
	return "unknown"
}

// Classifier decides the outcome of the period starting at the given local midnight.
type Classifier func(period time.Time) Outcome

// CountDays scans calendar days backward from start. A non-zero floor is the
// earliest day the scan may visit.
func CountDays(start, floor time.Time, classify Classifier) int {
	return count(start, floor, HorizonDays, func(t time.Time) time.Time {
		return t.AddDate(0, 0, -1)
	}, classify)
}

// CountWeeks scans calendar weeks backward from the week starting at start.
// The week containing floor is the earliest one visited.
func CountWeeks(start, floor time.Time, classify Classifier) int {
	if !floor.IsZero() {
		floor = domain.StartOfWeek(floor, floor.Location())
	}
	return count(start, floor, HorizonWeeks, func(t time.Time) time.Time {
		return t.AddDate(0, 0, -7)
	}, classify)
}

func count(start, floor time.Time, horizon int, prev func(time.Time) time.Time, classify Classifier) int {
	streak := 0
	period := start
	for i := 0; i < horizon; i++ {
		if !floor.IsZero() && period.Before(floor) {
			break
		}

		switch classify(period) {
		case Qualified:
			streak++
		case Broken:
			return streak
		}

		period = prev(period)
	}
	return streak
}

// LedgerClassifier classifies days from settled completion records keyed by
// domain.DayKey. A day without a record only breaks the streak when
// hasActivity reports that something happened that day.
func LedgerClassifier(records map[string]bool, hasActivity func(day time.Time) bool) Classifier {
	return func(day time.Time) Outcome {
		if completed, ok := records[domain.DayKey(day)]; ok {
			if completed {
				return Qualified
			}
			return Broken
		}
		if hasActivity(day) {
			return Broken
		}
		return Skip
	}
}

// PredicateClassifier classifies periods from raw activity: no activity skips,
// activity that is not complete breaks.
func PredicateClassifier(hasActivity, isComplete func(period time.Time) bool) Classifier {
	return func(period time.Time) Outcome {
		if !hasActivity(period) {
			return Skip
		}
		if isComplete(period) {
			return Qualified
		}
		return Broken
	}
}
