package services

import (
	"sort"

	"github.com/hbitapp/hbit-backend/models"
)

// CurrentUserLabel replaces the viewer's own display name in leaderboard
// responses.
const CurrentUserLabel = "You"

// LeaderboardEntry is one ranked row of a goal leaderboard.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        uint   `json:"user_id"`
	UserName      string `json:"user_name"`
	Score         int    `json:"score"`
	IsCurrentUser bool   `json:"is_current_user"`
}

// rankedScore is the internal per-user aggregate before name resolution.
type rankedScore struct {
	UserID uint
	Score  int
	Rank   int
}

// rankedScores computes total points per user for a goal, sorted by score
// descending with user id ascending as the tie-break, ranks assigned by
// 1-based position. Users without any point row do not appear at all.
func (s *GoalService) rankedScores(goalID uint) ([]rankedScore, error) {
	type row struct {
		UserID uint
		Score  int
	}
	var rows []row
	err := s.db.Model(&models.ActivityGoalPoints{}).
		Joins("JOIN activities ON activities.id = activity_goal_points.activity_id").
		Where("activity_goal_points.activity_goal_id = ?", goalID).
		Select("activities.user_id AS user_id, SUM(activity_goal_points.points) AS score").
		Group("activities.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].UserID < rows[j].UserID
	})

	ranked := make([]rankedScore, len(rows))
	for i, r := range rows {
		ranked[i] = rankedScore{UserID: r.UserID, Score: r.Score, Rank: i + 1}
	}
	return ranked, nil
}

// LeaderboardWindow returns the slice of the goal leaderboard relevant to the
// viewer: their direct neighbors when ranked, the top three otherwise.
func (s *GoalService) LeaderboardWindow(goalID, viewerID uint) ([]LeaderboardEntry, error) {
	ranked, err := s.rankedScores(goalID)
	if err != nil {
		return nil, err
	}

	viewerIdx := -1
	for i, r := range ranked {
		if r.UserID == viewerID {
			viewerIdx = i
			break
		}
	}

	var window []rankedScore
	if viewerIdx < 0 {
		if len(ranked) > 3 {
			window = ranked[:3]
		} else {
			window = ranked
		}
	} else {
		lo := viewerIdx - 1
		if lo < 0 {
			lo = 0
		}
		hi := viewerIdx + 2
		if hi > len(ranked) {
			hi = len(ranked)
		}
		window = ranked[lo:hi]
	}

	names, err := s.displayNames(userIDs(window))
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(window))
	for _, r := range window {
		entry := LeaderboardEntry{
			Rank:          r.Rank,
			UserID:        r.UserID,
			Score:         r.Score,
			UserName:      names[r.UserID],
			IsCurrentUser: r.UserID == viewerID,
		}
		if entry.IsCurrentUser {
			entry.UserName = CurrentUserLabel
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func userIDs(scores []rankedScore) []uint {
	ids := make([]uint, 0, len(scores))
	for _, r := range scores {
		ids = append(ids, r.UserID)
	}
	return ids
}

// displayNames resolves user ids to leaderboard names. Missing users resolve
// to "Unknown" instead of failing the whole board.
func (s *GoalService) displayNames(ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	for _, id := range ids {
		names[id] = "Unknown"
	}
	if len(ids) == 0 {
		return names, nil
	}

	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		names[users[i].ID] = users[i].DisplayName()
	}
	return names, nil
}
