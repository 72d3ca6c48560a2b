package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

var _ domain.RemoteStreakHistoryRepository = (*PostgresStreakHistoryRepository)(nil)

type PostgresStreakHistoryRepository struct {
	db *sqlx.DB
}

func NewPostgresStreakHistoryRepository(db *sqlx.DB) *PostgresStreakHistoryRepository {
	return &PostgresStreakHistoryRepository{db: db}
}

type historyRow struct {
	UserID string `db:"user_id"`
	domain.StreakHistory
}

func (r *PostgresStreakHistoryRepository) Save(ctx context.Context, userID string, h *domain.StreakHistory) error {
	query := `
		INSERT INTO streak_histories (
			user_id, last_streak, max_streak, restart_count,
			last_break_date, last_observed_streak, updated_at
		) VALUES (
			:user_id, :last_streak, :max_streak, :restart_count,
			:last_break_date, :last_observed_streak, :updated_at
		)
		ON CONFLICT (user_id) DO UPDATE
		SET last_streak = EXCLUDED.last_streak,
		    max_streak = EXCLUDED.max_streak,
		    restart_count = EXCLUDED.restart_count,
		    last_break_date = EXCLUDED.last_break_date,
		    last_observed_streak = EXCLUDED.last_observed_streak,
		    updated_at = EXCLUDED.updated_at
		WHERE streak_histories.updated_at <= EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, historyRow{UserID: userID, StreakHistory: *h})
	return err
}

// Get is used by the admin CLI to compare the replica with the device copy.
func (r *PostgresStreakHistoryRepository) Get(ctx context.Context, userID string) (*domain.StreakHistory, error) {
	var h domain.StreakHistory
	query := `
		SELECT last_streak, max_streak, restart_count, last_break_date, last_observed_streak, updated_at
		FROM streak_histories WHERE user_id = $1`

	if err := r.db.GetContext(ctx, &h, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHistoryNotFound
		}
		return nil, err
	}
	return &h, nil
}
