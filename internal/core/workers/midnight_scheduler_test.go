package workers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/clock"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

func rome(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	return loc
}

func TestMidnightScheduler(t *testing.T) {
	loc := rome(t)

	t.Run("Fires for each ended day and reschedules itself", func(t *testing.T) {
		clk := clock.NewFake(time.Date(2026, 6, 10, 22, 0, 0, 0, loc))
		s := NewMidnightScheduler(clk, loc)

		var ended []string
		s.Start(func(day time.Time) { ended = append(ended, domain.DayKey(day)) })

		next, ok := clk.NextDeadline()
		require.True(t, ok)
		assert.True(t, next.Equal(time.Date(2026, 6, 11, 0, 0, 0, 0, loc)))

		clk.Set(time.Date(2026, 6, 13, 1, 0, 0, 0, loc))

		assert.Equal(t, []string{"2026-06-10", "2026-06-11", "2026-06-12"}, ended)
		assert.Equal(t, 1, clk.Pending())
		assert.True(t, s.Running())
	})

	t.Run("Firing twice around the boundary is not possible after Cancel", func(t *testing.T) {
		clk := clock.NewFake(time.Date(2026, 6, 10, 23, 59, 0, 0, loc))
		s := NewMidnightScheduler(clk, loc)

		calls := 0
		s.Start(func(time.Time) { calls++ })
		s.Cancel()

		clk.Advance(48 * time.Hour)
		assert.Zero(t, calls)
		assert.Zero(t, clk.Pending())
		assert.False(t, s.Running())
	})

	t.Run("Cancel during the callback is not resurrected", func(t *testing.T) {
		clk := clock.NewFake(time.Date(2026, 6, 10, 12, 0, 0, 0, loc))
		s := NewMidnightScheduler(clk, loc)

		calls := 0
		s.Start(func(time.Time) {
			calls++
			s.Cancel()
		})

		clk.Advance(72 * time.Hour)
		assert.Equal(t, 1, calls)
		assert.Zero(t, clk.Pending())
		assert.False(t, s.Running())
	})

	t.Run("Restart replaces the pending timer", func(t *testing.T) {
		clk := clock.NewFake(time.Date(2026, 6, 10, 12, 0, 0, 0, loc))
		s := NewMidnightScheduler(clk, loc)

		first, second := 0, 0
		s.Start(func(time.Time) { first++ })
		s.Start(func(time.Time) { second++ })
		assert.Equal(t, 1, clk.Pending())

		clk.Advance(24 * time.Hour)
		assert.Zero(t, first)
		assert.Equal(t, 1, second)
	})

	t.Run("DST transition fires at local midnight", func(t *testing.T) {
		clk := clock.NewFake(time.Date(2026, 3, 28, 23, 0, 0, 0, loc))
		s := NewMidnightScheduler(clk, loc)

		var fired []time.Time
		s.Start(func(time.Time) { fired = append(fired, clk.Now()) })

		clk.Set(time.Date(2026, 3, 30, 12, 0, 0, 0, loc))

		require.Len(t, fired, 2)
		assert.Equal(t, 0, fired[0].In(loc).Hour())
		assert.Equal(t, 0, fired[1].In(loc).Hour())
		assert.Equal(t, 23*time.Hour, fired[1].Sub(fired[0]))
	})
}

func TestNextMidnight(t *testing.T) {
	loc := rome(t)

	midnight := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)
	assert.True(t, NextMidnight(midnight, loc).Equal(time.Date(2026, 1, 6, 0, 0, 0, 0, loc)))
	assert.True(t, NextMidnight(midnight.Add(-time.Nanosecond), loc).Equal(midnight))
}
