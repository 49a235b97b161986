package services

import (
	"time"

	"github.com/hbitapp/hbit-backend/models"
)

// GoalActivity is an activity that contributed points to a goal, enriched
// with a derived duration (span between first and last heart-rate sample).
type GoalActivity struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Date            time.Time `json:"date"`
	DurationSeconds int       `json:"duration_seconds"`
	Score           int       `json:"score"`
}

// ParticipantActivity is a GoalActivity annotated with who performed it and
// their current rank in the goal.
type ParticipantActivity struct {
	GoalActivity
	UserID   uint   `json:"user_id"`
	UserName string `json:"user_name"`
	Rank     int    `json:"rank"`
}

// goalActivityRow is the join shape shared by both listings.
type goalActivityRow struct {
	ID     uint
	UserID uint
	Name   string
	Type   string
	Date   time.Time
	Score  int
}

func (s *GoalService) goalActivityRows(goalID uint, userID *uint) ([]goalActivityRow, error) {
	q := s.db.Model(&models.ActivityGoalPoints{}).
		Joins("JOIN activities ON activities.id = activity_goal_points.activity_id").
		Where("activity_goal_points.activity_goal_id = ?", goalID).
		Select("activities.id AS id, activities.user_id AS user_id, activities.name AS name, activities.type AS type, activities.date AS date, activity_goal_points.points AS score").
		Order("activities.date DESC")
	if userID != nil {
		q = q.Where("activities.user_id = ?", *userID)
	}

	var rows []goalActivityRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// activityDurations computes per-activity durations as max(sample timestamp)
// minus min(sample timestamp), zero when fewer than two samples exist.
func (s *GoalService) activityDurations(activityIDs []uint) (map[uint]int, error) {
	durations := make(map[uint]int, len(activityIDs))
	if len(activityIDs) == 0 {
		return durations, nil
	}

	type span struct {
		ActivityID uint
		First      time.Time
		Last       time.Time
		Count      int
	}
	var spans []span
	err := s.db.Model(&models.HeartRateSample{}).
		Where("activity_id IN ?", activityIDs).
		Select("activity_id, MIN(timestamp) AS first, MAX(timestamp) AS last, COUNT(*) AS count").
		Group("activity_id").
		Scan(&spans).Error
	if err != nil {
		return nil, err
	}

	for _, sp := range spans {
		if sp.Count < 2 {
			continue
		}
		durations[sp.ActivityID] = int(sp.Last.Sub(sp.First).Seconds())
	}
	return durations, nil
}

// GoalActivities lists one user's contributing activities for a goal, most
// recent first, with derived duration and score.
func (s *GoalService) GoalActivities(goalID, userID uint) ([]GoalActivity, error) {
	if err := s.requireGoal(goalID); err != nil {
		return nil, err
	}

	rows, err := s.goalActivityRows(goalID, &userID)
	if err != nil {
		return nil, err
	}

	durations, err := s.activityDurations(rowActivityIDs(rows))
	if err != nil {
		return nil, err
	}

	result := make([]GoalActivity, 0, len(rows))
	for _, r := range rows {
		result = append(result, GoalActivity{
			ID:              r.ID,
			Name:            r.Name,
			Type:            r.Type,
			Date:            r.Date,
			DurationSeconds: durations[r.ID],
			Score:           r.Score,
		})
	}
	return result, nil
}

// ParticipantActivities lists contributing activities across all of a goal's
// participants, each annotated with the performer's rank and display name.
func (s *GoalService) ParticipantActivities(goalID uint) ([]ParticipantActivity, error) {
	if err := s.requireGoal(goalID); err != nil {
		return nil, err
	}

	rows, err := s.goalActivityRows(goalID, nil)
	if err != nil {
		return nil, err
	}

	durations, err := s.activityDurations(rowActivityIDs(rows))
	if err != nil {
		return nil, err
	}

	ranked, err := s.rankedScores(goalID)
	if err != nil {
		return nil, err
	}
	ranks := make(map[uint]int, len(ranked))
	for _, r := range ranked {
		ranks[r.UserID] = r.Rank
	}

	names, err := s.displayNames(rowUserIDs(rows))
	if err != nil {
		return nil, err
	}

	result := make([]ParticipantActivity, 0, len(rows))
	for _, r := range rows {
		result = append(result, ParticipantActivity{
			GoalActivity: GoalActivity{
				ID:              r.ID,
				Name:            r.Name,
				Type:            r.Type,
				Date:            r.Date,
				DurationSeconds: durations[r.ID],
				Score:           r.Score,
			},
			UserID:   r.UserID,
			UserName: names[r.UserID],
			Rank:     ranks[r.UserID],
		})
	}
	return result, nil
}

func (s *GoalService) requireGoal(goalID uint) error {
	var count int64
	if err := s.db.Model(&models.ActivityGoal{}).Where("id = ?", goalID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func rowActivityIDs(rows []goalActivityRow) []uint {
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func rowUserIDs(rows []goalActivityRow) []uint {
	seen := make(map[uint]bool, len(rows))
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}
	return ids
}
