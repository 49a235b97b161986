package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hbitapp/hbit-backend/models"
)

// seedLeaderboard creates one activity per user and a point row with the
// given score, returning the goal and the users in input order.
func seedLeaderboard(t *testing.T, db *gorm.DB, scores map[string]int) (models.ActivityGoal, map[string]models.User) {
	t.Helper()

	goal := models.ActivityGoal{Name: "board", Range: models.RangeDaily, TargetValue: 1}
	require.NoError(t, db.Create(&goal).Error)

	date := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
	users := make(map[string]models.User, len(scores))
	for username, score := range scores {
		user := createUser(t, db, username, "", "")
		activity := createActivity(t, db, user.ID, date)
		addPoints(t, db, activity.ID, goal.ID, score)
		users[username] = user
	}
	return goal, users
}

func TestLeaderboardTopThreeForUnrankedViewer(t *testing.T) {
	db := newTestDB(t)
	svc := NewGoalService(db)

	goal, users := seedLeaderboard(t, db, map[string]int{
		"first":  50,
		"second": 30,
		"third":  20,
	})

	const unrankedViewer = 99
	entries, err := svc.LeaderboardWindow(goal.ID, unrankedViewer)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, users["first"].ID, entries[0].UserID)
	assert.Equal(t, 50, entries[0].Score)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 30, entries[1].Score)
	assert.Equal(t, 3, entries[2].Rank)
	assert.Equal(t, 20, entries[2].Score)

	for _, e := range entries {
		assert.False(t, e.IsCurrentUser)
		assert.NotEqual(t, CurrentUserLabel, e.UserName)
	}
}

func TestLeaderboardWindowAroundMiddleViewer(t *testing.T) {
	db := newTestDB(t)
	svc := NewGoalService(db)

	goal, users := seedLeaderboard(t, db, map[string]int{
		"top":    100,
		"middle": 80,
		"bottom": 60,
	})

	entries, err := svc.LeaderboardWindow(goal.ID, users["middle"].ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, 100, entries[0].Score)
	assert.Equal(t, 1, entries[0].Rank)
	assert.False(t, entries[0].IsCurrentUser)

	assert.Equal(t, 80, entries[1].Score)
	assert.Equal(t, 2, entries[1].Rank)
	assert.True(t, entries[1].IsCurrentUser)
	assert.Equal(t, CurrentUserLabel, entries[1].UserName)

	assert.Equal(t, 60, entries[2].Score)
	assert.Equal(t, 3, entries[2].Rank)
	assert.False(t, entries[2].IsCurrentUser)
}

func TestLeaderboardWindowClampsAtEdges(t *testing.T) {
	db := newTestDB(t)
	svc := NewGoalService(db)

	goal, users := seedLeaderboard(t, db, map[string]int{
		"top":    100,
		"middle": 80,
		"bottom": 60,
	})

	top, err := svc.LeaderboardWindow(goal.ID, users["top"].ID)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.True(t, top[0].IsCurrentUser)
	assert.Equal(t, 1, top[0].Rank)

	bottom, err := svc.LeaderboardWindow(goal.ID, users["bottom"].ID)
	require.NoError(t, err)
	require.Len(t, bottom, 2)
	assert.True(t, bottom[1].IsCurrentUser)
	assert.Equal(t, 3, bottom[1].Rank)
}

func TestLeaderboardTieBreaksByUserID(t *testing.T) {
	db := newTestDB(t)
	svc := NewGoalService(db)

	goal := models.ActivityGoal{Name: "tie", Range: models.RangeDaily, TargetValue: 1}
	require.NoError(t, db.Create(&goal).Error)

	date := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
	first := createUser(t, db, "earlier", "", "")
	second := createUser(t, db, "later", "", "")
	for _, u := range []models.User{first, second} {
		activity := createActivity(t, db, u.ID, date)
		addPoints(t, db, activity.ID, goal.ID, 40)
	}

	entries, err := svc.LeaderboardWindow(goal.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, second.ID, entries[1].UserID)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestLeaderboardSumsMultipleActivities(t *testing.T) {
	db := newTestDB(t)
	svc := NewGoalService(db)

	goal := models.ActivityGoal{Name: "sum", Range: models.RangeDaily, TargetValue: 1}
	require.NoError(t, db.Create(&goal).Error)

	user := createUser(t, db, "grinder", "", "")
	date := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
	for _, points := range []int{10, 25, 5} {
		activity := createActivity(t, db, user.ID, date)
		addPoints(t, db, activity.ID, goal.ID, points)
	}

	entries, err := svc.LeaderboardWindow(goal.ID, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 40, entries[0].Score)
}

func TestLeaderboardDisplayNameResolution(t *testing.T) {
	db := newTestDB(t)
	svc := NewGoalService(db)

	goal := models.ActivityGoal{Name: "names", Range: models.RangeDaily, TargetValue: 1}
	require.NoError(t, db.Create(&goal).Error)

	date := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
	named := createUser(t, db, "jsmith", "Jan", "Smith")
	bare := createUser(t, db, "plainuser", "", "")
	for i, u := range []models.User{named, bare} {
		activity := createActivity(t, db, u.ID, date)
		addPoints(t, db, activity.ID, goal.ID, 100-i*10)
	}

	entries, err := svc.LeaderboardWindow(goal.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Jan Smith", entries[0].UserName)
	assert.Equal(t, "plainuser", entries[1].UserName)
}
