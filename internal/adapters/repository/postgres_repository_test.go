package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupPostgres(t *testing.T) *sqlx.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		envOr("DB_USER", "kanso_user"),
		envOr("DB_PASSWORD", "secret"),
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_NAME", "kanso_db"))

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		t.Skipf("Skipping integration tests: database connection failed: %v", err)
	}

	schema, err := os.ReadFile("../../../migrations/001_init.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err, "Failed to apply schema")

	t.Cleanup(func() {
		_, err := db.Exec("TRUNCATE TABLE completion_records, streak_histories, tasks, user_profiles")
		assert.NoError(t, err)
		db.Close()
	})
	return db
}

func TestPostgresCompletionRepository_Integration(t *testing.T) {
	db := setupPostgres(t)
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	repo := NewPostgresCompletionRepository(db, loc)
	ctx := context.Background()
	userID := uuid.NewString()

	day := time.Date(2026, 11, 1, 0, 0, 0, 0, loc)
	now := time.Date(2026, 11, 2, 0, 0, 1, 0, loc)

	t.Run("Success: Upsert inserts then updates", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, domain.NewCompletionRecord(userID, day, false, now)))
		require.NoError(t, repo.Upsert(ctx, domain.NewCompletionRecord(userID, day, true, now)))

		records, err := repo.ListRange(ctx, userID, day, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].IsCompleted)
		assert.NotNil(t, records[0].CompletedAt)
	})

	t.Run("Success: days come back as local midnight", func(t *testing.T) {
		records, err := repo.ListRange(ctx, userID, day, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "2026-11-01", domain.DayKey(records[0].Date))
		assert.Equal(t, loc, records[0].Date.Location())
	})

	t.Run("Fail: check constraint maps to invalid completion", func(t *testing.T) {
		rec := domain.NewCompletionRecord(userID, day.AddDate(0, 0, 1), false, now)
		at := now
		rec.CompletedAt = &at

		err := repo.Upsert(ctx, rec)
		assert.ErrorIs(t, err, domain.ErrInvalidCompletion)
	})
}

func TestPostgresStreakHistoryRepository_Integration(t *testing.T) {
	db := setupPostgres(t)
	repo := NewPostgresStreakHistoryRepository(db)
	ctx := context.Background()
	userID := uuid.NewString()

	_, err := repo.Get(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrHistoryNotFound)

	newer := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.Save(ctx, userID, &domain.StreakHistory{LastStreak: 5, MaxStreak: 5, UpdatedAt: newer}))

	t.Run("Success: stale backup does not overwrite", func(t *testing.T) {
		older := newer.Add(-time.Hour)
		require.NoError(t, repo.Save(ctx, userID, &domain.StreakHistory{LastStreak: 1, MaxStreak: 1, UpdatedAt: older}))

		got, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.MaxStreak)
	})
}

func TestPostgresTaskAndProfileRepository_Integration(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	userID := uuid.NewString()
	day := time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC)

	_, err := db.Exec(`INSERT INTO tasks (id, user_id, day, title, category, completed, calories, protein, carbs, fats)
		VALUES ($1, $2, $3, 'Lunch', 'nutrition', TRUE, 650, 40, 70, 20)`, uuid.NewString(), userID, "2026-04-04")
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO tasks (id, user_id, day, title, category, completed)
		VALUES ($1, $2, $3, 'Run', 'exercise', FALSE)`, uuid.NewString(), userID, "2026-04-05")
	require.NoError(t, err)

	t.Run("Success: tasks in range with optional nutrition", func(t *testing.T) {
		tasks, err := NewPostgresTaskRepository(db, time.UTC).ListByDateRange(ctx, userID, day, day.AddDate(0, 0, 2))
		require.NoError(t, err)
		require.Len(t, tasks, 2)

		require.NotNil(t, tasks[0].Nutrition)
		assert.Equal(t, 650, tasks[0].Nutrition.Calories)
		assert.Nil(t, tasks[1].Nutrition)
	})

	t.Run("Success: profile targets and missing profile", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO user_profiles (user_id, calorie_target, protein_target) VALUES ($1, 2200, 120)`, userID)
		require.NoError(t, err)

		profiles := NewPostgresProfileRepository(db)
		targets, err := profiles.GetNutritionTargets(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 2200, targets.Calories)
		assert.Equal(t, 120, targets.Protein)
		assert.Zero(t, targets.Fats)

		_, err = profiles.GetNutritionTargets(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	})
}
