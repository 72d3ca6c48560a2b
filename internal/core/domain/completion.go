package domain

import (
	"errors"
	"strings"
	"time"
)

const DayKeyLayout = "2006-01-02"

var (
	ErrInvalidCompletion = errors.New("invalid completion record data")
	ErrInvalidDay        = errors.New("invalid day format, expected YYYY-MM-DD")
)

// CompletionRecord is the settled outcome of one calendar day for one user.
type CompletionRecord struct {
	UserID      string     `json:"user_id" db:"user_id"`
	Date        time.Time  `json:"date" db:"day"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

func NewCompletionRecord(userID string, day time.Time, isCompleted bool, now time.Time) *CompletionRecord {
	rec := &CompletionRecord{
		UserID:      userID,
		Date:        NormalizeDay(day, day.Location()),
		IsCompleted: isCompleted,
		UpdatedAt:   now.UTC(),
	}
	if isCompleted {
		at := now.UTC()
		rec.CompletedAt = &at
	}
	return rec
}

func (r *CompletionRecord) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	if r.Date.IsZero() {
		return errors.New("date is required")
	}
	if !r.IsCompleted && r.CompletedAt != nil {
		return errors.New("completed_at must be empty for an uncompleted day")
	}
	return nil
}

// Key is the (user, day) identity of the record.
func (r *CompletionRecord) Key() string {
	return r.UserID + "/" + DayKey(r.Date)
}

// NormalizeDay returns local midnight of the calendar day t falls on in loc.
func NormalizeDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDay parses a YYYY-MM-DD key as local midnight in loc.
func ParseDay(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DayKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}

// SameCalendarDay copies the calendar date of t (in its own zone) onto loc.
// Postgres DATE columns come back as UTC midnight and need re-anchoring.
func SameCalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween counts calendar days from a to b; negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	ua := time.Date(ya, ma, da, 0, 0, 0, 0, time.UTC)
	ub := time.Date(yb, mb, db, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// StartOfWeek returns local midnight of the Monday of t's week.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	day := NormalizeDay(t, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
