package domain

import (
	"context"
	"errors"
)

var (
	ErrHistoryNotFound = errors.New("streak history not found")
)

type StreakHistoryRepository interface {
	// Get returns ErrHistoryNotFound when the user has no history yet.
	Get(ctx context.Context, userID string) (*StreakHistory, error)

	Save(ctx context.Context, userID string, history *StreakHistory) error

	Delete(ctx context.Context, userID string) error
}

// RemoteStreakHistoryRepository receives best-effort backups of the history.
type RemoteStreakHistoryRepository interface {
	Save(ctx context.Context, userID string, history *StreakHistory) error
}
