package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCompletionNotFound = errors.New("completion record not found")
	ErrLedgerUnavailable  = errors.New("completion ledger unavailable")
	ErrDayNotFinished     = errors.New("day has not finished yet")
	ErrUnauthorized       = errors.New("unauthorized")
)

type CompletionRepository interface {
	// Get retrieves the record for a single (user, day).
	// Returns ErrCompletionNotFound when the day was never settled.
	Get(ctx context.Context, userID string, day time.Time) (*CompletionRecord, error)

	// ListRange returns the records in [start, end), ordered by day.
	ListRange(ctx context.Context, userID string, start, end time.Time) ([]*CompletionRecord, error)

	// Upsert creates or replaces the record for its (user, day).
	Upsert(ctx context.Context, record *CompletionRecord) error

	// InsertIfAbsent writes the record only when no record exists for its (user, day).
	// It reports whether the record was written.
	InsertIfAbsent(ctx context.Context, record *CompletionRecord) (bool, error)

	// DeleteUser removes every record of the user. Used by explicit data resets only.
	DeleteUser(ctx context.Context, userID string) error
}

// RemoteCompletionRepository is the replica the device reconciles with.
type RemoteCompletionRepository interface {
	Upsert(ctx context.Context, record *CompletionRecord) error
	ListRange(ctx context.Context, userID string, start, end time.Time) ([]*CompletionRecord, error)
}
