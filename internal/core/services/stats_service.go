package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/streak"
)

// CalorieOverTargetMargin is how far above the calorie target a day must be
// to count toward the over-target streak.
const CalorieOverTargetMargin = 1000

// StatsService builds the statistics snapshot the achievement evaluator
// consumes. It holds no state; history is the only thing it writes, through
// the tracker.
type StatsService struct {
	ledger   *CompletionLedger
	tasks    domain.TaskSource
	profiles domain.ProfileSource
	history  *StreakHistoryTracker
}

func NewStatsService(ledger *CompletionLedger, tasks domain.TaskSource, profiles domain.ProfileSource, history *StreakHistoryTracker) *StatsService {
	return &StatsService{
		ledger:   ledger,
		tasks:    tasks,
		profiles: profiles,
		history:  history,
	}
}

func (s *StatsService) window(input domain.StatsInput, today time.Time) (time.Time, time.Time, error) {
	loc := s.ledger.Location()

	end := today
	if !input.EndDate.IsZero() {
		end = domain.NormalizeDay(input.EndDate, loc)
	}
	start := scanWindow(today, time.Time{})
	if !input.StartDate.IsZero() {
		start = domain.NormalizeDay(input.StartDate, loc)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date before start_date", domain.ErrInvalidWindow)
	}
	if domain.DaysBetween(start, end)+1 > domain.MaxWindowDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: window longer than %d days", domain.ErrInvalidWindow, domain.MaxWindowDays)
	}
	return start, end, nil
}

func (s *StatsService) loadTargets(ctx context.Context, userID string) *domain.NutritionTargets {
	if s.profiles == nil {
		return nil
	}
	targets, err := s.profiles.GetNutritionTargets(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			log.Printf("[STATS] Profile unavailable for user %s, nutrition metrics disabled: %v", userID, err)
		}
		return nil
	}
	return targets
}

func (s *StatsService) GetStatisticsSnapshot(ctx context.Context, input domain.StatsInput) (*domain.StatisticsSnapshot, error) {
	timer := prometheus.NewTimer(snapshotDuration)
	defer timer.ObserveDuration()

	today := s.ledger.Today()
	start, end, err := s.window(input, today)
	if err != nil {
		return nil, err
	}

	loadTo := end.AddDate(0, 0, 1)
	if tomorrow := today.AddDate(0, 0, 1); tomorrow.After(loadTo) {
		loadTo = tomorrow
	}

	var (
		records map[string]bool
		tasks   []*domain.Task
		targets *domain.NutritionTargets
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.ledger.GetRange(gctx, input.UserID, start, loadTo)
		records = r
		return err
	})
	g.Go(func() error {
		t, err := s.tasks.ListByDateRange(gctx, input.UserID, start, loadTo)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		tasks = t
		return nil
	})
	g.Go(func() error {
		targets = s.loadTargets(gctx, input.UserID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sc := &scan{
		today:   today,
		floor:   scanWindow(today, start),
		records: records,
		byDay:   domain.GroupTasksByDay(tasks, s.ledger.Location()),
	}

	snap := &domain.StatisticsSnapshot{
		UserID:                    input.UserID,
		StartDate:                 domain.DayKey(start),
		EndDate:                   domain.DayKey(end),
		GeneratedAt:               s.ledger.clock.Now().UTC(),
		CompletedByCategory:       make(map[string]int),
		CompletedByTimeOfDay:      make(map[string]int),
		NutritionTargetsAvailable: targets != nil,
	}

	snap.CurrentStreak = ledgerStreak(today, sc.floor, records, sc.byDay)
	s.applyHistory(ctx, input.UserID, snap)

	for key, completed := range records {
		day, err := domain.ParseDay(key, s.ledger.Location())
		if err == nil && completed && !day.Before(start) && !day.After(end) {
			snap.PerfectDays++
		}
	}

	snap.DailyChallengeStreak = sc.daily(hasDailyChallenge, dailyChallengesDone)
	snap.AllSkippedStreak = sc.daily(hasTasks, noneCompleted)
	if targets != nil {
		applyNutritionStreaks(sc, targets, snap)
	}

	snap.WeekendStreak = sc.weekly(sc.weekendHasTasks, sc.weekendCompleted)
	snap.AllCategoriesWeeklyStreak = sc.weekly(sc.weekHasTasks, sc.weekCoversCategories)

	aggregateTasks(tasks, start, end, today, s.ledger.Location(), snap)
	return snap, nil
}

func (s *StatsService) applyHistory(ctx context.Context, userID string, snap *domain.StatisticsSnapshot) {
	snap.MaxStreak = snap.CurrentStreak
	if s.history == nil {
		return
	}

	h, err := s.history.Observe(ctx, userID, snap.CurrentStreak)
	if err != nil {
		log.Printf("[STATS] Streak history unavailable for user %s: %v", userID, err)
		return
	}

	if h.MaxStreak > snap.MaxStreak {
		snap.MaxStreak = h.MaxStreak
	}
	snap.StreakRestarts = h.RestartCount
	snap.StreakComeback = domain.Comeback(snap.CurrentStreak, h)
}

// scan carries the loaded window for the predicate streaks.
type scan struct {
	today   time.Time
	floor   time.Time
	records map[string]bool
	byDay   map[string][]*domain.Task
}

func (sc *scan) tasksOn(day time.Time) []*domain.Task {
	return sc.byDay[domain.DayKey(day)]
}

// daily counts a day-granularity streak from the same start day as the ledger streak.
func (sc *scan) daily(hasActivity, isComplete func(tasks []*domain.Task) bool) int {
	classify := streak.PredicateClassifier(
		func(day time.Time) bool { return hasActivity(sc.tasksOn(day)) },
		func(day time.Time) bool { return isComplete(sc.tasksOn(day)) },
	)
	return streak.CountDays(startDay(sc.today, sc.records), sc.floor, classify)
}

// weekly counts a week-granularity streak. The current week only counts once
// it already qualifies; otherwise the scan starts at the previous week.
func (sc *scan) weekly(hasActivity, isComplete func(weekStart time.Time) bool) int {
	classify := streak.PredicateClassifier(hasActivity, isComplete)

	start := domain.StartOfWeek(sc.today, sc.today.Location())
	if classify(start) != streak.Qualified {
		start = start.AddDate(0, 0, -7)
	}
	return streak.CountWeeks(start, sc.floor, classify)
}

func (sc *scan) weekendDays(weekStart time.Time) (time.Time, time.Time) {
	return weekStart.AddDate(0, 0, 5), weekStart.AddDate(0, 0, 6)
}

func (sc *scan) weekendHasTasks(weekStart time.Time) bool {
	sat, sun := sc.weekendDays(weekStart)
	return len(sc.tasksOn(sat)) > 0 || len(sc.tasksOn(sun)) > 0
}

func (sc *scan) weekendCompleted(weekStart time.Time) bool {
	sat, sun := sc.weekendDays(weekStart)
	return sc.records[domain.DayKey(sat)] && sc.records[domain.DayKey(sun)]
}

func (sc *scan) weekHasTasks(weekStart time.Time) bool {
	for i := 0; i < 7; i++ {
		if len(sc.tasksOn(weekStart.AddDate(0, 0, i))) > 0 {
			return true
		}
	}
	return false
}

func (sc *scan) weekCoversCategories(weekStart time.Time) bool {
	covered := make(map[string]bool, len(domain.CoreCategories))
	for i := 0; i < 7; i++ {
		for _, t := range sc.tasksOn(weekStart.AddDate(0, 0, i)) {
			if t.Completed {
				covered[t.Category] = true
			}
		}
	}
	for _, c := range domain.CoreCategories {
		if !covered[c] {
			return false
		}
	}
	return true
}

func hasTasks(tasks []*domain.Task) bool {
	return len(tasks) > 0
}

func noneCompleted(tasks []*domain.Task) bool {
	for _, t := range tasks {
		if t.Completed {
			return false
		}
	}
	return true
}

func hasDailyChallenge(tasks []*domain.Task) bool {
	for _, t := range tasks {
		if t.IsDailyChallenge {
			return true
		}
	}
	return false
}

func dailyChallengesDone(tasks []*domain.Task) bool {
	for _, t := range tasks {
		if t.IsDailyChallenge && !t.Completed {
			return false
		}
	}
	return true
}

// consumedMatches builds a completion predicate over the day's consumed
// nutrition. A day with tasks but no nutrition data does not match, so it
// breaks the streak.
func consumedMatches(match func(consumed domain.NutritionFacts) bool) func([]*domain.Task) bool {
	return func(tasks []*domain.Task) bool {
		consumed, ok := domain.ConsumedNutrition(tasks)
		return ok && match(consumed)
	}
}

// applyNutritionStreaks fills the nutrition streaks. Accuracy is an exact
// match; a goal of zero means unset and leaves its streak at 0.
func applyNutritionStreaks(sc *scan, targets *domain.NutritionTargets, snap *domain.StatisticsSnapshot) {
	if targets.Calories > 0 {
		snap.CalorieAccuracyStreak = sc.daily(hasTasks, consumedMatches(func(c domain.NutritionFacts) bool {
			return c.Calories == targets.Calories
		}))
		snap.CalorieOverTargetStreak = sc.daily(hasTasks, consumedMatches(func(c domain.NutritionFacts) bool {
			return c.Calories >= targets.Calories+CalorieOverTargetMargin
		}))
	}
	if targets.Protein > 0 {
		snap.ProteinAccuracyStreak = sc.daily(hasTasks, consumedMatches(func(c domain.NutritionFacts) bool {
			return c.Protein == targets.Protein
		}))
	}
	if targets.Carbs > 0 {
		snap.CarbsAccuracyStreak = sc.daily(hasTasks, consumedMatches(func(c domain.NutritionFacts) bool {
			return c.Carbs == targets.Carbs
		}))
	}
	if targets.Fats > 0 {
		snap.FatsAccuracyStreak = sc.daily(hasTasks, consumedMatches(func(c domain.NutritionFacts) bool {
			return c.Fats == targets.Fats
		}))
	}
	if targets.Protein > 0 && targets.Carbs > 0 && targets.Fats > 0 {
		snap.AllMacrosAccuracyStreak = sc.daily(hasTasks, consumedMatches(func(c domain.NutritionFacts) bool {
			return c.Protein == targets.Protein && c.Carbs == targets.Carbs && c.Fats == targets.Fats
		}))
	}
}

// aggregateTasks does the single pass over tasks in [start, end]. Incomplete
// tasks count as skipped only once their day is over.
func aggregateTasks(tasks []*domain.Task, start, end, today time.Time, loc *time.Location, snap *domain.StatisticsSnapshot) {
	for _, t := range tasks {
		day := domain.NormalizeDay(t.Date, loc)
		if day.Before(start) || day.After(end) {
			continue
		}

		snap.TotalTasks++
		if !t.Completed {
			if day.Before(today) {
				snap.SkippedTasks++
			}
			continue
		}

		snap.CompletedTasks++
		snap.CompletedByCategory[t.Category]++
		if t.CompletedAt != nil {
			snap.CompletedByTimeOfDay[domain.TimeOfDayBucket(t.CompletedAt.In(loc))]++
		}
		if t.AIGenerated {
			snap.AIGeneratedCompleted++
		}
		if t.IsDailyChallenge {
			snap.DailyChallengesCompleted++
		}
	}
}
