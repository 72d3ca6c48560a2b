package domain

import (
	"errors"
	"time"
)

// MaxWindowDays caps the span of a statistics window, inclusive of both ends.
const MaxWindowDays = 366

var (
	ErrInvalidWindow = errors.New("invalid statistics window")
)

const (
	MetricCurrentStreak            = "current_streak"
	MetricMaxStreak                = "max_streak"
	MetricStreakRestarts           = "streak_restarts"
	MetricStreakComeback           = "streak_comeback"
	MetricPerfectDays              = "perfect_days"
	MetricDailyChallengeStreak     = "daily_challenge_streak"
	MetricCalorieAccuracyStreak    = "calorie_accuracy_streak"
	MetricMacroAccuracyStreak      = "macro_accuracy_streak"
	MetricAllMacrosStreak          = "all_macros_accuracy_streak"
	MetricCalorieOverStreak        = "calorie_over_target_streak"
	MetricAllSkippedStreak         = "all_skipped_streak"
	MetricWeekendStreak            = "weekend_streak"
	MetricAllCategoriesWeekly      = "all_categories_weekly_streak"
	MetricTotalTasks               = "total_tasks"
	MetricCompletedTasks           = "completed_tasks"
	MetricSkippedTasks             = "skipped_tasks"
	MetricCompletedByCategory      = "completed_by_category"
	MetricCompletedByTimeOfDay     = "completed_by_time_of_day"
	MetricAIGeneratedCompleted     = "ai_generated_completed"
	MetricDailyChallengesCompleted = "daily_challenges_completed"
)

const (
	MacroProtein = "protein"
	MacroCarbs   = "carbs"
	MacroFats    = "fats"
)

// StatsInput selects a window. Both dates are inclusive; zero values default
// to the horizon start and today.
type StatsInput struct {
	UserID    string
	StartDate time.Time
	EndDate   time.Time
}

// StatisticsSnapshot is recomputed on every request and never persisted.
type StatisticsSnapshot struct {
	UserID      string    `json:"user_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	GeneratedAt time.Time `json:"generated_at"`

	CurrentStreak  int `json:"current_streak"`
	MaxStreak      int `json:"max_streak"`
	StreakRestarts int `json:"streak_restarts"`
	StreakComeback int `json:"streak_comeback"`
	PerfectDays    int `json:"perfect_days"`

	DailyChallengeStreak    int `json:"daily_challenge_streak"`
	CalorieAccuracyStreak   int `json:"calorie_accuracy_streak"`
	ProteinAccuracyStreak   int `json:"protein_accuracy_streak"`
	CarbsAccuracyStreak     int `json:"carbs_accuracy_streak"`
	FatsAccuracyStreak      int `json:"fats_accuracy_streak"`
	AllMacrosAccuracyStreak int `json:"all_macros_accuracy_streak"`
	CalorieOverTargetStreak int `json:"calorie_over_target_streak"`
	AllSkippedStreak        int `json:"all_skipped_streak"`

	WeekendStreak             int `json:"weekend_streak"`
	AllCategoriesWeeklyStreak int `json:"all_categories_weekly_streak"`

	TotalTasks               int            `json:"total_tasks"`
	CompletedTasks           int            `json:"completed_tasks"`
	SkippedTasks             int            `json:"skipped_tasks"`
	CompletedByCategory      map[string]int `json:"completed_by_category"`
	CompletedByTimeOfDay     map[string]int `json:"completed_by_time_of_day"`
	AIGeneratedCompleted     int            `json:"ai_generated_completed"`
	DailyChallengesCompleted int            `json:"daily_challenges_completed"`

	NutritionTargetsAvailable bool `json:"nutrition_targets_available"`
}

// Metric resolves an achievement condition to a snapshot counter. param selects
// the macro, category or time-of-day bucket for the metrics that take one.
func (s *StatisticsSnapshot) Metric(name, param string) (int, bool) {
	switch name {
	case MetricCurrentStreak:
		return s.CurrentStreak, true
	case MetricMaxStreak:
		return s.MaxStreak, true
	case MetricStreakRestarts:
		return s.StreakRestarts, true
	case MetricStreakComeback:
		return s.StreakComeback, true
	case MetricPerfectDays:
		return s.PerfectDays, true
	case MetricDailyChallengeStreak:
		return s.DailyChallengeStreak, true
	case MetricCalorieAccuracyStreak:
		return s.CalorieAccuracyStreak, true
	case MetricMacroAccuracyStreak:
		switch param {
		case MacroProtein:
			return s.ProteinAccuracyStreak, true
		case MacroCarbs:
			return s.CarbsAccuracyStreak, true
		case MacroFats:
			return s.FatsAccuracyStreak, true
		}
		return 0, false
	case MetricAllMacrosStreak:
		return s.AllMacrosAccuracyStreak, true
	case MetricCalorieOverStreak:
		return s.CalorieOverTargetStreak, true
	case MetricAllSkippedStreak:
		return s.AllSkippedStreak, true
	case MetricWeekendStreak:
		return s.WeekendStreak, true
	case MetricAllCategoriesWeekly:
		return s.AllCategoriesWeeklyStreak, true
	case MetricTotalTasks:
		return s.TotalTasks, true
	case MetricCompletedTasks:
		return s.CompletedTasks, true
	case MetricSkippedTasks:
		return s.SkippedTasks, true
	case MetricCompletedByCategory:
		return s.CompletedByCategory[param], param != ""
	case MetricCompletedByTimeOfDay:
		return s.CompletedByTimeOfDay[param], param != ""
	case MetricAIGeneratedCompleted:
		return s.AIGeneratedCompleted, true
	case MetricDailyChallengesCompleted:
		return s.DailyChallengesCompleted, true
	}
	return 0, false
}
