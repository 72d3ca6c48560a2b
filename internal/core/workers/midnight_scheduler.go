package workers

import (
	"log"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/clock"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

// NextMidnight returns the first local midnight strictly after t.
func NextMidnight(t time.Time, loc *time.Location) time.Time {
	return domain.NormalizeDay(t, loc).AddDate(0, 0, 1)
}

// MidnightScheduler is a single self-rescheduling timer. Every Start or Cancel
// bumps the generation; a firing timer whose generation is stale does nothing,
// so a Cancel issued while the callback runs can never be undone by the
// reschedule that follows it.
type MidnightScheduler struct {
	clock clock.Clock
	loc   *time.Location

	mu    sync.Mutex
	gen   uint64
	timer clock.Timer
	fn    func(ended time.Time)
}

func NewMidnightScheduler(clk clock.Clock, loc *time.Location) *MidnightScheduler {
	if clk == nil {
		clk = clock.System()
	}
	if loc == nil {
		loc = time.Local
	}
	return &MidnightScheduler{clock: clk, loc: loc}
}

// Start replaces any running schedule. fn receives local midnight of the day
// that just ended.
func (s *MidnightScheduler) Start(fn func(ended time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	s.fn = fn

	target := NextMidnight(s.clock.Now(), s.loc)
	s.scheduleLocked(s.gen, target)
	log.Printf("[SCHEDULER] Next settlement at %s", target.Format(time.RFC3339))
}

func (s *MidnightScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	s.fn = nil
}

func (s *MidnightScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fn != nil
}

func (s *MidnightScheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *MidnightScheduler) scheduleLocked(gen uint64, target time.Time) {
	d := target.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	s.timer = s.clock.AfterFunc(d, func() { s.fire(gen, target) })
}

func (s *MidnightScheduler) fire(gen uint64, target time.Time) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	fn := s.fn
	s.mu.Unlock()

	ended := domain.NormalizeDay(target, s.loc).AddDate(0, 0, -1)
	fn(ended)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}

	// A late timer (suspended device) skips straight to the next real midnight.
	base := target
	if now := s.clock.Now(); now.After(base) {
		base = now
	}
	s.scheduleLocked(gen, NextMidnight(base, s.loc))
}
