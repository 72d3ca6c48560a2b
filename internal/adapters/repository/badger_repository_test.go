package repository

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/adapters/localstore"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

func setupBadger(t *testing.T) *localstore.DB {
	db, err := localstore.Open(localstore.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBadgerCompletionRepository(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	db := setupBadger(t)
	repo := NewBadgerCompletionRepository(db.DB, loc)
	ctx := context.Background()

	userID := uuid.NewString()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	now := time.Date(2026, 3, 11, 0, 0, 5, 0, loc)

	t.Run("Fail: Get missing day", func(t *testing.T) {
		_, err := repo.Get(ctx, userID, day)
		assert.ErrorIs(t, err, domain.ErrCompletionNotFound)
	})

	t.Run("Success: Upsert then Get", func(t *testing.T) {
		rec := domain.NewCompletionRecord(userID, day, true, now)
		require.NoError(t, repo.Upsert(ctx, rec))

		got, err := repo.Get(ctx, userID, day.Add(15*time.Hour))
		require.NoError(t, err)
		assert.True(t, got.IsCompleted)
		assert.True(t, got.Date.Equal(day))
		assert.Equal(t, loc, got.Date.Location())
		require.NotNil(t, got.CompletedAt)
		assert.True(t, got.CompletedAt.Equal(now))
	})

	t.Run("Success: Upsert replaces existing value", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, domain.NewCompletionRecord(userID, day, false, now)))

		got, err := repo.Get(ctx, userID, day)
		require.NoError(t, err)
		assert.False(t, got.IsCompleted)
		assert.Nil(t, got.CompletedAt)
	})

	t.Run("Success: InsertIfAbsent never overwrites", func(t *testing.T) {
		inserted, err := repo.InsertIfAbsent(ctx, domain.NewCompletionRecord(userID, day, true, now))
		require.NoError(t, err)
		assert.False(t, inserted)

		got, err := repo.Get(ctx, userID, day)
		require.NoError(t, err)
		assert.False(t, got.IsCompleted)

		next := day.AddDate(0, 0, 1)
		inserted, err = repo.InsertIfAbsent(ctx, domain.NewCompletionRecord(userID, next, true, now))
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("Success: ListRange is end exclusive and user scoped", func(t *testing.T) {
		other := uuid.NewString()
		require.NoError(t, repo.Upsert(ctx, domain.NewCompletionRecord(other, day, true, now)))
		require.NoError(t, repo.Upsert(ctx, domain.NewCompletionRecord(userID, day.AddDate(0, 0, 2), true, now)))

		records, err := repo.ListRange(ctx, userID, day, day.AddDate(0, 0, 2))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "2026-03-10", domain.DayKey(records[0].Date))
		assert.Equal(t, "2026-03-11", domain.DayKey(records[1].Date))
		for _, r := range records {
			assert.Equal(t, userID, r.UserID)
		}
	})

	t.Run("Success: corrupted values are skipped", func(t *testing.T) {
		bad := day.AddDate(0, 0, -1)
		require.NoError(t, db.Update(func(txn *badger.Txn) error {
			return txn.Set(repo.key(userID, bad), []byte("{not json"))
		}))

		records, err := repo.ListRange(ctx, userID, bad, day)
		require.NoError(t, err)
		assert.Empty(t, records)

		_, err = repo.Get(ctx, userID, bad)
		assert.ErrorIs(t, err, domain.ErrCompletionNotFound)
	})

	t.Run("Success: DeleteUser removes only that user", func(t *testing.T) {
		other := uuid.NewString()
		require.NoError(t, repo.Upsert(ctx, domain.NewCompletionRecord(other, day, true, now)))

		require.NoError(t, repo.DeleteUser(ctx, userID))

		records, err := repo.ListRange(ctx, userID, day.AddDate(0, 0, -30), day.AddDate(0, 0, 30))
		require.NoError(t, err)
		assert.Empty(t, records)

		_, err = repo.Get(ctx, other, day)
		assert.NoError(t, err)
	})
}

func TestBadgerStreakHistoryRepository(t *testing.T) {
	db := setupBadger(t)
	repo := NewBadgerStreakHistoryRepository(db.DB)
	ctx := context.Background()
	userID := uuid.NewString()

	_, err := repo.Get(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrHistoryNotFound)

	breakAt := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	h := &domain.StreakHistory{
		LastStreak:         10,
		MaxStreak:          10,
		RestartCount:       1,
		LastBreakDate:      &breakAt,
		LastObservedStreak: 3,
		UpdatedAt:          breakAt,
	}
	require.NoError(t, repo.Save(ctx, userID, h))

	got, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.MaxStreak)
	assert.Equal(t, 1, got.RestartCount)
	assert.Equal(t, 3, got.LastObservedStreak)
	require.NotNil(t, got.LastBreakDate)
	assert.True(t, got.LastBreakDate.Equal(breakAt))

	require.NoError(t, repo.Delete(ctx, userID))
	_, err = repo.Get(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrHistoryNotFound)
}
