package domain

import (
	"context"
	"time"
)

const (
	CategoryNutrition   = "nutrition"
	CategoryExercise    = "exercise"
	CategoryMindfulness = "mindfulness"
)

// CoreCategories are the categories the weekly coverage streak requires.
var CoreCategories = []string{CategoryNutrition, CategoryExercise, CategoryMindfulness}

const (
	TimeOfDayMorning   = "morning"
	TimeOfDayAfternoon = "afternoon"
	TimeOfDayEvening   = "evening"
	TimeOfDayNight     = "night"
)

// Task is a read-only view of a task owned by the external task data source.
type Task struct {
	ID               string          `json:"id" db:"id"`
	UserID           string          `json:"user_id" db:"user_id"`
	Date             time.Time       `json:"date" db:"day"`
	Title            string          `json:"title" db:"title"`
	Category         string          `json:"category" db:"category"`
	Completed        bool            `json:"completed" db:"completed"`
	IsDailyChallenge bool            `json:"is_daily_challenge" db:"is_daily_challenge"`
	AIGenerated      bool            `json:"ai_generated" db:"ai_generated"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	Nutrition        *NutritionFacts `json:"nutrition,omitempty"`
}

type NutritionFacts struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fats     int `json:"fats"`
}

type TaskSource interface {
	// ListByDateRange returns the user's tasks whose day falls in [start, end).
	ListByDateRange(ctx context.Context, userID string, start, end time.Time) ([]*Task, error)
}

// GroupTasksByDay indexes tasks by the DayKey of their day in loc.
func GroupTasksByDay(tasks []*Task, loc *time.Location) map[string][]*Task {
	out := make(map[string][]*Task)
	for _, t := range tasks {
		key := DayKey(NormalizeDay(t.Date, loc))
		out[key] = append(out[key], t)
	}
	return out
}

// AllDone reports whether every task is completed. Empty input is not done.
func AllDone(tasks []*Task) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, t := range tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}

// ConsumedNutrition sums the nutrition of completed tasks. The second value is
// false when none of the completed tasks carries nutrition data.
func ConsumedNutrition(tasks []*Task) (NutritionFacts, bool) {
	var total NutritionFacts
	found := false
	for _, t := range tasks {
		if !t.Completed || t.Nutrition == nil {
			continue
		}
		found = true
		total.Calories += t.Nutrition.Calories
		total.Protein += t.Nutrition.Protein
		total.Carbs += t.Nutrition.Carbs
		total.Fats += t.Nutrition.Fats
	}
	return total, found
}

// TimeOfDayBucket classifies a local time: morning [05,12), afternoon [12,17),
// evening [17,22), night otherwise.
func TimeOfDayBucket(t time.Time) string {
	h := t.Hour()
	switch {
	case h >= 5 && h < 12:
		return TimeOfDayMorning
	case h >= 12 && h < 17:
		return TimeOfDayAfternoon
	case h >= 17 && h < 22:
		return TimeOfDayEvening
	default:
		return TimeOfDayNight
	}
}
