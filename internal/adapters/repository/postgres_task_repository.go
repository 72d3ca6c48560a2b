package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

var _ domain.TaskSource = (*PostgresTaskRepository)(nil)

// PostgresTaskRepository reads tasks owned by the task service.
// This engine never writes to the tasks table.
type PostgresTaskRepository struct {
	db  *sqlx.DB
	loc *time.Location
}

func NewPostgresTaskRepository(db *sqlx.DB, loc *time.Location) *PostgresTaskRepository {
	if loc == nil {
		loc = time.Local
	}
	return &PostgresTaskRepository{db: db, loc: loc}
}

type taskRow struct {
	ID               string        `db:"id"`
	UserID           string        `db:"user_id"`
	Day              time.Time     `db:"day"`
	Title            string        `db:"title"`
	Category         string        `db:"category"`
	Completed        bool          `db:"completed"`
	IsDailyChallenge bool          `db:"is_daily_challenge"`
	AIGenerated      bool          `db:"ai_generated"`
	CreatedAt        time.Time     `db:"created_at"`
	CompletedAt      sql.NullTime  `db:"completed_at"`
	Calories         sql.NullInt64 `db:"calories"`
	Protein          sql.NullInt64 `db:"protein"`
	Carbs            sql.NullInt64 `db:"carbs"`
	Fats             sql.NullInt64 `db:"fats"`
}

func (row taskRow) toDomain(loc *time.Location) *domain.Task {
	t := &domain.Task{
		ID:               row.ID,
		UserID:           row.UserID,
		Date:             domain.SameCalendarDay(row.Day, loc),
		Title:            row.Title,
		Category:         row.Category,
		Completed:        row.Completed,
		IsDailyChallenge: row.IsDailyChallenge,
		AIGenerated:      row.AIGenerated,
		CreatedAt:        row.CreatedAt,
	}
	if row.CompletedAt.Valid {
		at := row.CompletedAt.Time.In(loc)
		t.CompletedAt = &at
	}
	// Calories is the marker column: a task without it carries no nutrition data.
	if row.Calories.Valid {
		t.Nutrition = &domain.NutritionFacts{
			Calories: int(row.Calories.Int64),
			Protein:  int(row.Protein.Int64),
			Carbs:    int(row.Carbs.Int64),
			Fats:     int(row.Fats.Int64),
		}
	}
	return t
}

func (r *PostgresTaskRepository) ListByDateRange(ctx context.Context, userID string, start, end time.Time) ([]*domain.Task, error) {
	rows := []taskRow{}

	query := `
		SELECT id, user_id, day, title, category, completed, is_daily_challenge,
		       ai_generated, created_at, completed_at, calories, protein, carbs, fats
		FROM tasks
		WHERE user_id = $1
		  AND day >= $2::date
		  AND day < $3::date
		  AND deleted_at IS NULL
		ORDER BY day ASC, created_at ASC`

	err := r.db.SelectContext(ctx, &rows, query, userID,
		domain.DayKey(domain.NormalizeDay(start, r.loc)),
		domain.DayKey(domain.NormalizeDay(end, r.loc)))
	if err != nil {
		return nil, err
	}

	tasks := make([]*domain.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toDomain(r.loc))
	}
	return tasks, nil
}
