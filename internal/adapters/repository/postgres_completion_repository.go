package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

const checkViolation = "23514"

// sqlState extracts the SQLSTATE from either driver: pgx when opened as "pgx",
// lib/pq when opened as "postgres".
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

var _ domain.RemoteCompletionRepository = (*PostgresCompletionRepository)(nil)

// PostgresCompletionRepository is the remote replica of the ledger.
// Days travel as YYYY-MM-DD strings so the server timezone never shifts them.
type PostgresCompletionRepository struct {
	db  *sqlx.DB
	loc *time.Location
}

func NewPostgresCompletionRepository(db *sqlx.DB, loc *time.Location) *PostgresCompletionRepository {
	if loc == nil {
		loc = time.Local
	}
	return &PostgresCompletionRepository{db: db, loc: loc}
}

func (r *PostgresCompletionRepository) Upsert(ctx context.Context, rec *domain.CompletionRecord) error {
	query := `
		INSERT INTO completion_records (user_id, day, is_completed, completed_at, updated_at)
		VALUES ($1, $2::date, $3, $4, $5)
		ON CONFLICT (user_id, day) DO UPDATE
		SET is_completed = EXCLUDED.is_completed,
		    completed_at = EXCLUDED.completed_at,
		    updated_at = EXCLUDED.updated_at`

	day := domain.DayKey(domain.NormalizeDay(rec.Date, r.loc))
	_, err := r.db.ExecContext(ctx, query, rec.UserID, day, rec.IsCompleted, rec.CompletedAt, rec.UpdatedAt)
	if err != nil {
		if sqlState(err) == checkViolation {
			return domain.ErrInvalidCompletion
		}
		return err
	}
	return nil
}

func (r *PostgresCompletionRepository) ListRange(ctx context.Context, userID string, start, end time.Time) ([]*domain.CompletionRecord, error) {
	records := []*domain.CompletionRecord{}

	query := `
		SELECT user_id, day, is_completed, completed_at, updated_at
		FROM completion_records
		WHERE user_id = $1
		  AND day >= $2::date
		  AND day < $3::date
		ORDER BY day ASC`

	err := r.db.SelectContext(ctx, &records, query, userID,
		domain.DayKey(domain.NormalizeDay(start, r.loc)),
		domain.DayKey(domain.NormalizeDay(end, r.loc)))
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		rec.Date = domain.SameCalendarDay(rec.Date, r.loc)
	}
	return records, nil
}
