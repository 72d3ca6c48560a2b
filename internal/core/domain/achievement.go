package domain

import (
	"errors"
	"strings"
)

var (
	ErrUnknownMetric = errors.New("unknown achievement metric")
)

// AchievementCondition is how the external achievement evaluator phrases an
// unlock rule against a StatisticsSnapshot.
type AchievementCondition struct {
	Metric string `json:"metric"`
	Param  string `json:"param,omitempty"`
	Target int    `json:"target"`
}

func (c AchievementCondition) Validate() error {
	if strings.TrimSpace(c.Metric) == "" {
		return errors.New("metric is required")
	}
	if c.Target <= 0 {
		return errors.New("target must be positive")
	}
	return nil
}

// Progress returns the current value of the condition's metric, capped at the
// target, and whether the target is met.
func (c AchievementCondition) Progress(s *StatisticsSnapshot) (int, bool, error) {
	value, ok := s.Metric(c.Metric, c.Param)
	if !ok {
		return 0, false, ErrUnknownMetric
	}
	if value >= c.Target {
		return c.Target, true, nil
	}
	return value, false, nil
}
