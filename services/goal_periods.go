package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hbitapp/hbit-backend/models"
)

// ErrGoalNotFound is returned when an aggregation query references a goal
// that does not exist.
var ErrGoalNotFound = errors.New("activity goal not found")

// Period is a half-open [Start, End) time window in UTC.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FulfillmentEntry answers "was the goal met in this period" along with the
// point sum that produced the answer. Entries are ordered most recent first.
type FulfillmentEntry struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Points      int       `json:"points"`
	Met         bool      `json:"met"`
}

// GoalService aggregates point contributions over goal periods and ranks
// participants. All window math is done in UTC because stored activity dates
// are UTC; mixing local boundaries with UTC rows drifts at day edges.
type GoalService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGoalService creates a GoalService.
func NewGoalService(db *gorm.DB) *GoalService {
	return &GoalService{db: db, now: time.Now}
}

// periodCount is how many historical periods each range shows.
func periodCount(r models.ActivityGoalRange) int {
	switch r {
	case models.RangeWeekly:
		return 12
	case models.RangeMonthly:
		return 6
	case models.RangeYearly:
		return 12
	default:
		// daily, and the fallback for unrecognized ranges
		return 14
	}
}

// periodAt computes the i-th period walking backward from now (i=0 is the
// most recent). Weekly windows are anchored to the current day of week: the
// newest window ends at tomorrow's midnight so it always contains today.
func periodAt(r models.ActivityGoalRange, now time.Time, i int) Period {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch r {
	case models.RangeWeekly:
		end := day.AddDate(0, 0, 1-7*i)
		return Period{Start: end.AddDate(0, 0, -7), End: end}
	case models.RangeMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		return Period{Start: start, End: start.AddDate(0, 1, 0)}
	case models.RangeYearly:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC).AddDate(-i, 0, 0)
		return Period{Start: start, End: start.AddDate(1, 0, 0)}
	default:
		start := day.AddDate(0, 0, -i)
		return Period{Start: start, End: start.AddDate(0, 0, 1)}
	}
}

// endsBeforeGoalStart is the stop predicate: once a period ends before the
// goal's start bound, every older period does too, so the walk terminates.
func endsBeforeGoalStart(p Period, startsAt *time.Time) bool {
	return startsAt != nil && p.End.Before(startsAt.UTC())
}

// startsAfterGoalEnd is the skip predicate: a period that begins after the
// goal's end bound does not overlap it, but older periods still might, so the
// walk continues.
func startsAfterGoalEnd(p Period, endsAt *time.Time) bool {
	return endsAt != nil && p.Start.After(endsAt.UTC())
}

// FulfillmentSeries reports, for the most recent periods of the goal's range,
// whether the user's summed points met the goal target. Periods outside the
// goal's configured bounds are stopped at (before start) or skipped (after
// end). An unrecognized range degrades to daily behavior rather than failing.
func (s *GoalService) FulfillmentSeries(goalID, userID uint) ([]FulfillmentEntry, error) {
	var goal models.ActivityGoal
	if err := s.db.First(&goal, goalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}

	now := s.now().UTC()
	entries := make([]FulfillmentEntry, 0, periodCount(goal.Range))

	for i := 0; i < periodCount(goal.Range); i++ {
		p := periodAt(goal.Range, now, i)

		if endsBeforeGoalStart(p, goal.StartsAt) {
			break
		}
		if startsAfterGoalEnd(p, goal.EndsAt) {
			continue
		}

		points, err := s.periodPoints(goalID, userID, p)
		if err != nil {
			return nil, err
		}

		entries = append(entries, FulfillmentEntry{
			PeriodStart: p.Start,
			PeriodEnd:   p.End,
			Points:      points,
			Met:         points >= goal.TargetValue,
		})
	}

	return entries, nil
}

// periodPoints sums the user's point rows for a goal whose activity dates
// fall inside the period.
func (s *GoalService) periodPoints(goalID, userID uint, p Period) (int, error) {
	var sum int64
	err := s.db.Model(&models.ActivityGoalPoints{}).
		Joins("JOIN activities ON activities.id = activity_goal_points.activity_id").
		Where("activity_goal_points.activity_goal_id = ?", goalID).
		Where("activities.user_id = ?", userID).
		Where("activities.date >= ? AND activities.date < ?", p.Start, p.End).
		Select("COALESCE(SUM(activity_goal_points.points), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return int(sum), nil
}
