package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/clock"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

// GuardWindowDays is how recently a window may have opened for an empty local
// result to be trusted as-is instead of pulling from the remote replica.
const GuardWindowDays = 2

const remotePullTimeout = 15 * time.Second

// SyncQueue pushes local writes to the remote replica in the background.
type SyncQueue interface {
	EnqueueCompletion(record *domain.CompletionRecord)
	EnqueueHistory(userID string, history *domain.StreakHistory)
}

// CompletionLedger is the device-authoritative store of settled days.
// Reads and writes hit the local store synchronously; the remote replica is
// only ever touched from background goroutines.
type CompletionLedger struct {
	local  domain.CompletionRepository
	remote domain.RemoteCompletionRepository
	queue  SyncQueue
	clock  clock.Clock
	loc    *time.Location

	mu     sync.Mutex
	pulled map[string]struct{}
	pulls  sync.WaitGroup
}

// NewCompletionLedger builds a ledger. remote and queue may be nil for a
// device running without a replica.
func NewCompletionLedger(local domain.CompletionRepository, remote domain.RemoteCompletionRepository, queue SyncQueue, clk clock.Clock, loc *time.Location) *CompletionLedger {
	if clk == nil {
		clk = clock.System()
	}
	if loc == nil {
		loc = time.Local
	}
	return &CompletionLedger{
		local:  local,
		remote: remote,
		queue:  queue,
		clock:  clk,
		loc:    loc,
		pulled: make(map[string]struct{}),
	}
}

func (l *CompletionLedger) Location() *time.Location {
	return l.loc
}

func (l *CompletionLedger) Today() time.Time {
	return domain.NormalizeDay(l.clock.Now(), l.loc)
}

func (l *CompletionLedger) unavailable(op, userID string, err error) error {
	ledgerUnavailable.Inc()
	log.Printf("[LEDGER] %s failed for user %s: %v", op, userID, err)
	return fmt.Errorf("%w: %s: %v", domain.ErrLedgerUnavailable, op, err)
}

func (l *CompletionLedger) Get(ctx context.Context, userID string, date time.Time) (*domain.CompletionRecord, error) {
	rec, err := l.local.Get(ctx, userID, domain.NormalizeDay(date, l.loc))
	if err != nil {
		if errors.Is(err, domain.ErrCompletionNotFound) {
			return nil, err
		}
		return nil, l.unavailable("get", userID, err)
	}
	return rec, nil
}

// GetRange returns isCompleted per settled day in [start, end), keyed by
// domain.DayKey. An empty local window may schedule a one-time remote pull;
// its results show up on later reads, never on this one.
func (l *CompletionLedger) GetRange(ctx context.Context, userID string, start, end time.Time) (map[string]bool, error) {
	start = domain.NormalizeDay(start, l.loc)
	end = domain.NormalizeDay(end, l.loc)

	out := make(map[string]bool)
	if !start.Before(end) {
		return out, nil
	}

	records, err := l.local.ListRange(ctx, userID, start, end)
	if err != nil {
		return nil, l.unavailable("list range", userID, err)
	}

	for _, rec := range records {
		out[domain.DayKey(domain.NormalizeDay(rec.Date, l.loc))] = rec.IsCompleted
	}

	if len(out) == 0 {
		l.reconcile(userID, start, end)
	}
	return out, nil
}

// shouldGuard reports whether a window starting at start opened too recently
// for a remote import to be safe. Future starts are always guarded.
func (l *CompletionLedger) shouldGuard(start time.Time) bool {
	return domain.DaysBetween(start, l.Today()) <= GuardWindowDays
}

func pullKey(userID string, start, end time.Time) string {
	return userID + "|" + domain.DayKey(start) + "|" + domain.DayKey(end)
}

func (l *CompletionLedger) reconcile(userID string, start, end time.Time) {
	if l.shouldGuard(start) {
		ledgerGuardSkips.Inc()
		log.Printf("[LEDGER] Guard: skipping remote import for user %s, window %s opened recently", userID, domain.DayKey(start))
		return
	}
	if l.remote == nil {
		return
	}

	key := pullKey(userID, start, end)

	l.mu.Lock()
	if _, done := l.pulled[key]; done {
		l.mu.Unlock()
		return
	}
	l.pulled[key] = struct{}{}
	l.pulls.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.pulls.Done()
		l.pull(userID, start, end)
	}()
}

func (l *CompletionLedger) pull(userID string, start, end time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), remotePullTimeout)
	defer cancel()

	records, err := l.remote.ListRange(ctx, userID, start, end)
	if err != nil {
		ledgerRemotePullFailures.Inc()
		log.Printf("[LEDGER] Remote pull failed for user %s: %v", userID, err)
		l.forget(pullKey(userID, start, end))
		return
	}

	imported := 0
	for _, rec := range records {
		rec.UserID = userID
		rec.Date = domain.NormalizeDay(rec.Date, l.loc)
		if err := rec.Validate(); err != nil {
			log.Printf("[LEDGER] Ignoring invalid remote record %s: %v", rec.Key(), err)
			continue
		}

		inserted, err := l.local.InsertIfAbsent(ctx, rec)
		if err != nil {
			ledgerUnavailable.Inc()
			log.Printf("[LEDGER] Failed to merge remote record %s: %v", rec.Key(), err)
			return
		}
		if inserted {
			imported++
		}
	}

	if imported > 0 {
		ledgerRemoteImported.Add(float64(imported))
		log.Printf("[LEDGER] Imported %d remote records for user %s", imported, userID)
	}
}

// forget allows the window to be pulled again, used after a failed pull.
func (l *CompletionLedger) forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pulled, key)
}

// Upsert settles a day. Writing the value a day already holds is a no-op that
// keeps the original CompletedAt.
func (l *CompletionLedger) Upsert(ctx context.Context, userID string, date time.Time, isCompleted bool) (*domain.CompletionRecord, error) {
	day := domain.NormalizeDay(date, l.loc)

	existing, err := l.local.Get(ctx, userID, day)
	switch {
	case err == nil:
		if existing.IsCompleted == isCompleted {
			return existing, nil
		}
	case errors.Is(err, domain.ErrCompletionNotFound):
	default:
		return nil, l.unavailable("read before upsert", userID, err)
	}

	rec := domain.NewCompletionRecord(userID, day, isCompleted, l.clock.Now())
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCompletion, err)
	}

	if err := l.local.Upsert(ctx, rec); err != nil {
		return nil, l.unavailable("upsert", userID, err)
	}

	if l.queue != nil {
		l.queue.EnqueueCompletion(rec)
	}
	return rec, nil
}

// Reset deletes every local record of the user and forgets which windows were
// already pulled. The remote replica is left untouched.
func (l *CompletionLedger) Reset(ctx context.Context, userID string) error {
	if err := l.local.DeleteUser(ctx, userID); err != nil {
		return l.unavailable("reset", userID, err)
	}

	l.mu.Lock()
	for key := range l.pulled {
		if strings.HasPrefix(key, userID+"|") {
			delete(l.pulled, key)
		}
	}
	l.mu.Unlock()

	log.Printf("[LEDGER] Reset ledger for user %s", userID)
	return nil
}

// Wait blocks until in-flight remote pulls finish.
func (l *CompletionLedger) Wait() {
	l.pulls.Wait()
}
