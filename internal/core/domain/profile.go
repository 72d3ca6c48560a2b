package domain

import (
	"context"
	"errors"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
)

// NutritionTargets are the daily goals from the user's profile. A zero field
// means the goal is not set.
type NutritionTargets struct {
	Calories int `json:"calories" db:"calorie_target"`
	Protein  int `json:"protein" db:"protein_target"`
	Carbs    int `json:"carbs" db:"carbs_target"`
	Fats     int `json:"fats" db:"fats_target"`
}

type ProfileSource interface {
	// GetNutritionTargets returns ErrProfileNotFound when the user has no profile.
	GetNutritionTargets(ctx context.Context, userID string) (*NutritionTargets, error)
}
