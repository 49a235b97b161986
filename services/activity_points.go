package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hbitapp/hbit-backend/models"
)

// ActivityPointsService reads and derives point values for activities.
type ActivityPointsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewActivityPointsService creates an ActivityPointsService.
func NewActivityPointsService(db *gorm.DB) *ActivityPointsService {
	return &ActivityPointsService{db: db, now: time.Now}
}

// ActivityPoints returns the stored point value for an (activity, goal) pair
// owned by the user, or zero when no row exists.
func (s *ActivityPointsService) ActivityPoints(userID, activityID, goalID uint) (int, error) {
	var activity models.Activity
	err := s.db.Where("id = ? AND user_id = ?", activityID, userID).First(&activity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	var record models.ActivityGoalPoints
	err = s.db.Where("activity_id = ? AND activity_goal_id = ?", activityID, goalID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return record.Points, nil
}

// BonusPointsFromBpm counts the user's activities of the same type in the
// past 30 days whose time of day falls within windowMinutes of the reference
// activity. Consistency at the same hour earns the bonus.
func (s *ActivityPointsService) BonusPointsFromBpm(userID, activityID uint, windowMinutes int) (int, error) {
	if windowMinutes < 0 {
		windowMinutes = 15
	}

	var reference models.Activity
	err := s.db.Where("id = ? AND user_id = ?", activityID, userID).First(&reference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	now := s.now().UTC()
	monthAgo := now.AddDate(0, 0, -30)

	var candidates []models.Activity
	err = s.db.Where("user_id = ? AND type = ? AND date >= ? AND date <= ?",
		userID, reference.Type, monthAgo, now).
		Find(&candidates).Error
	if err != nil {
		return 0, err
	}

	target := minutesOfDay(reference.Date)
	window := float64(windowMinutes)

	matched := 0
	for _, c := range candidates {
		diff := minutesOfDay(c.Date) - target
		if diff < 0 {
			diff = -diff
		}
		if diff <= window {
			matched++
		}
	}
	return matched, nil
}

func minutesOfDay(t time.Time) float64 {
	t = t.UTC()
	return float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60
}
