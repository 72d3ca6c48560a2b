package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/app"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/config"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/clock"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/services"
)

// shared keeps a single in-memory engine across invocations so commands can
// observe each other's writes.
type shared struct {
	engine *app.App
	clk    *clock.Fake
}

func newShared(t *testing.T) *shared {
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	cfg := &config.Config{
		Port:          "8080",
		Timezone:      "Europe/Rome",
		Location:      loc,
		LocalInMemory: true,
		JWTSecret:     "streakctl-test-secret",
		JWTIssuer:     "kanso-test",
		TokenTTL:      time.Hour,
		SyncQueueSize: 10,
		SyncPerSecond: 10,
		RateWindow:    time.Minute,
	}
	clk := clock.NewFake(time.Date(2026, 10, 14, 10, 0, 0, 0, loc))

	engine, err := app.New(context.Background(), cfg, app.Options{Clock: clk, SkipRemote: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	return &shared{engine: engine, clk: clk}
}

func (s *shared) open(ctx context.Context, envFile string, offline bool) (*app.App, error) {
	return &app.App{
		Config:     s.engine.Config,
		Clock:      s.engine.Clock,
		Ledger:     s.engine.Ledger,
		Evaluator:  s.engine.Evaluator,
		Calculator: s.engine.Calculator,
		Tracker:    s.engine.Tracker,
		Stats:      s.engine.Stats,
		Tokens:     s.engine.Tokens,
	}, nil
}

func run(t *testing.T, open openFunc, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStreakctl_SettleAndStreak(t *testing.T) {
	s := newShared(t)

	out, err := run(t, s.open, "settle", "--user", "user-1", "--date", "2026-10-12")
	require.NoError(t, err)
	assert.Contains(t, out, "2026-10-12 completed=false", "a day without tasks settles as not completed")

	_, err = s.engine.Ledger.Upsert(context.Background(), "user-1", s.clk.Now().AddDate(0, 0, -1), true)
	require.NoError(t, err)

	out, err = run(t, s.open, "streak", "-u", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "current:   1")
	assert.Contains(t, out, "restarts:  0")
}

func TestStreakctl_SettleToday(t *testing.T) {
	s := newShared(t)

	_, err := run(t, s.open, "settle", "--user", "user-1", "--date", "2026-10-14")
	assert.ErrorIs(t, err, domain.ErrDayNotFinished)
}

func TestStreakctl_Snapshot(t *testing.T) {
	s := newShared(t)
	_, err := s.engine.Ledger.Upsert(context.Background(), "user-1", s.clk.Now().AddDate(0, 0, -1), true)
	require.NoError(t, err)

	out, err := run(t, s.open, "snapshot", "--user", "user-1", "--start", "2026-10-01", "--end", "2026-10-14")
	require.NoError(t, err)

	var snap map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "2026-10-01", snap["start_date"])
	assert.EqualValues(t, 1, snap["current_streak"])
}

func TestStreakctl_Reset(t *testing.T) {
	s := newShared(t)
	ctx := context.Background()
	_, err := s.engine.Ledger.Upsert(ctx, "user-1", s.clk.Now().AddDate(0, 0, -1), true)
	require.NoError(t, err)

	_, err = run(t, s.open, "reset", "--user", "user-1")
	assert.ErrorContains(t, err, "--yes")

	_, err = run(t, s.open, "reset", "--user", "user-1", "--yes")
	require.NoError(t, err)

	current, err := s.engine.Calculator.Current(ctx, "user-1", time.Time{})
	require.NoError(t, err)
	assert.Zero(t, current)
}

func TestStreakctl_RequiresUser(t *testing.T) {
	s := newShared(t)

	_, err := run(t, s.open, "streak")
	assert.ErrorContains(t, err, "--user is required")
}

func TestStreakctl_Token(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LOCAL_STORE_IN_MEMORY", "true")
	t.Setenv("JWT_SECRET", "streakctl-token-secret")
	t.Setenv("JWT_ISSUER", "kanso-cli")

	envFile := filepath.Join(t.TempDir(), "missing.env")
	out, err := run(t, nil, "token", "--user", "user-7", "--env-file", envFile)
	require.NoError(t, err)

	token := string(bytes.TrimSpace([]byte(out)))
	userID, err := services.NewTokenService("streakctl-token-secret", "kanso-cli", time.Hour).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", userID)

	_, statErr := os.Stat(envFile)
	assert.True(t, os.IsNotExist(statErr))
}
