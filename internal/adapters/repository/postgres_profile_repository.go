package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

var _ domain.ProfileSource = (*PostgresProfileRepository)(nil)

type PostgresProfileRepository struct {
	db *sqlx.DB
}

func NewPostgresProfileRepository(db *sqlx.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) GetNutritionTargets(ctx context.Context, userID string) (*domain.NutritionTargets, error) {
	var targets domain.NutritionTargets
	query := `
		SELECT
			COALESCE(calorie_target, 0) AS calorie_target,
			COALESCE(protein_target, 0) AS protein_target,
			COALESCE(carbs_target, 0)   AS carbs_target,
			COALESCE(fats_target, 0)    AS fats_target
		FROM user_profiles
		WHERE user_id = $1`

	err := r.db.GetContext(ctx, &targets, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &targets, nil
}
