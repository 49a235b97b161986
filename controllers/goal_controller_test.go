package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hbitapp/hbit-backend/middleware"
	"github.com/hbitapp/hbit-backend/models"
	"github.com/hbitapp/hbit-backend/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Activity{},
		&models.HeartRateSample{},
		&models.HeartRateZones{},
		&models.ActivityGoal{},
		&models.ActivityGoalParticipant{},
		&models.ActivityGoalPoints{},
		&models.ActivityGoalInvite{},
		&models.Friend{},
		&models.FriendRequest{},
	))
	return db
}

// testContext builds an authenticated gin context for direct handler calls.
func testContext(t *testing.T, userID uint, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	ctx.Request = httptest.NewRequest(method, target, reader)
	ctx.Request.Header.Set("Content-Type", "application/json")
	ctx.Set(middleware.ContextUserIDKey, userID)
	return ctx, w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, out interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if out != nil && env.Data != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func seedScoredGoal(t *testing.T, db *gorm.DB, scores []int) (models.ActivityGoal, []models.User) {
	t.Helper()

	goal := models.ActivityGoal{Name: "board", Range: models.RangeDaily, TargetValue: 1}
	require.NoError(t, db.Create(&goal).Error)

	date := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
	users := make([]models.User, 0, len(scores))
	for i, score := range scores {
		user := models.User{Username: "user" + strconv.Itoa(i+1)}
		require.NoError(t, db.Create(&user).Error)
		activity := models.Activity{UserID: user.ID, Name: "run", Type: models.ActivityRunning, Date: date}
		require.NoError(t, db.Create(&activity).Error)
		require.NoError(t, db.Create(&models.ActivityGoalPoints{
			ActivityID:     activity.ID,
			ActivityGoalID: goal.ID,
			Points:         score,
		}).Error)
		users = append(users, user)
	}
	return goal, users
}

func TestGetLeaderboardTopThreeForUnrankedViewer(t *testing.T) {
	db := newTestDB(t)
	controller := NewGoalController(db, services.NewGoalService(db))

	goal, _ := seedScoredGoal(t, db, []int{50, 30, 20})

	ctx, w := testContext(t, 99, http.MethodGet, "/api/v1/goals/1/leaderboard", nil)
	ctx.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(goal.ID), 10)}}

	controller.GetLeaderboard(ctx)

	require.Equal(t, http.StatusOK, w.Code)
	var entries []services.LeaderboardEntry
	env := decodeEnvelope(t, w, &entries)
	assert.Zero(t, env.Code)

	require.Len(t, entries, 3)
	assert.Equal(t, []int{50, 30, 20}, []int{entries[0].Score, entries[1].Score, entries[2].Score})
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
		assert.False(t, e.IsCurrentUser)
	}
}

func TestGetLeaderboardWindowAroundViewer(t *testing.T) {
	db := newTestDB(t)
	controller := NewGoalController(db, services.NewGoalService(db))

	goal, users := seedScoredGoal(t, db, []int{100, 80, 60})

	ctx, w := testContext(t, users[1].ID, http.MethodGet, "/api/v1/goals/1/leaderboard", nil)
	ctx.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(goal.ID), 10)}}

	controller.GetLeaderboard(ctx)

	require.Equal(t, http.StatusOK, w.Code)
	var entries []services.LeaderboardEntry
	decodeEnvelope(t, w, &entries)

	require.Len(t, entries, 3)
	assert.True(t, entries[1].IsCurrentUser)
	assert.Equal(t, services.CurrentUserLabel, entries[1].UserName)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestGetLeaderboardUnknownGoal(t *testing.T) {
	db := newTestDB(t)
	controller := NewGoalController(db, services.NewGoalService(db))

	ctx, w := testContext(t, 1, http.MethodGet, "/api/v1/goals/404/leaderboard", nil)
	ctx.Params = gin.Params{{Key: "id", Value: "404"}}

	controller.GetLeaderboard(ctx)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateGoalSanitizesAndAddsOwner(t *testing.T) {
	db := newTestDB(t)
	controller := NewGoalController(db, services.NewGoalService(db))

	owner := models.User{Username: "creator"}
	require.NoError(t, db.Create(&owner).Error)

	body := gin.H{
		"name":         "Weekly run <script>alert(1)</script>",
		"description":  "<b>Run</b> every week",
		"range":        "weekly",
		"target_value": 3,
	}
	ctx, w := testContext(t, owner.ID, http.MethodPost, "/api/v1/goals", body)

	controller.CreateGoal(ctx)

	require.Equal(t, http.StatusOK, w.Code)
	var created models.ActivityGoal
	decodeEnvelope(t, w, &created)

	assert.NotContains(t, created.Name, "<script>")
	assert.Equal(t, models.RangeWeekly, created.Range)

	var participant models.ActivityGoalParticipant
	require.NoError(t, db.Where("activity_goal_id = ? AND user_id = ?", created.ID, owner.ID).First(&participant).Error)
	assert.True(t, participant.IsOwner)
}

func TestCreateGoalRejectsUnknownRange(t *testing.T) {
	db := newTestDB(t)
	controller := NewGoalController(db, services.NewGoalService(db))

	owner := models.User{Username: "creator2"}
	require.NoError(t, db.Create(&owner).Error)

	body := gin.H{"name": "bad", "range": "hourly", "target_value": 1}
	ctx, w := testContext(t, owner.ID, http.MethodPost, "/api/v1/goals", body)

	controller.CreateGoal(ctx)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInviteLifecycle(t *testing.T) {
	db := newTestDB(t)
	controller := NewGoalController(db, services.NewGoalService(db))

	owner := models.User{Username: "host"}
	guest := models.User{Username: "guest"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&guest).Error)

	goal := models.ActivityGoal{Name: "together", Range: models.RangeDaily, TargetValue: 1}
	require.NoError(t, db.Create(&goal).Error)
	require.NoError(t, db.Create(&models.ActivityGoalParticipant{
		ActivityGoalID: goal.ID, UserID: owner.ID, IsOwner: true, JoinedAt: time.Now().UTC(),
	}).Error)

	goalParam := strconv.FormatUint(uint64(goal.ID), 10)

	// guests cannot invite
	ctx, w := testContext(t, guest.ID, http.MethodPost, "/api/v1/goals/"+goalParam+"/invites", gin.H{"to_user_id": owner.ID})
	ctx.Params = gin.Params{{Key: "id", Value: goalParam}}
	controller.CreateInvite(ctx)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// owner invites guest
	ctx, w = testContext(t, owner.ID, http.MethodPost, "/api/v1/goals/"+goalParam+"/invites", gin.H{"to_user_id": guest.ID})
	ctx.Params = gin.Params{{Key: "id", Value: goalParam}}
	controller.CreateInvite(ctx)
	require.Equal(t, http.StatusOK, w.Code)
	var invite models.ActivityGoalInvite
	decodeEnvelope(t, w, &invite)

	// duplicate pending invite conflicts
	ctx, w = testContext(t, owner.ID, http.MethodPost, "/api/v1/goals/"+goalParam+"/invites", gin.H{"to_user_id": guest.ID})
	ctx.Params = gin.Params{{Key: "id", Value: goalParam}}
	controller.CreateInvite(ctx)
	assert.Equal(t, http.StatusConflict, w.Code)

	// guest accepts and becomes a participant
	inviteParam := strconv.FormatUint(uint64(invite.ID), 10)
	ctx, w = testContext(t, guest.ID, http.MethodPost, "/api/v1/invites/"+inviteParam+"/accept", nil)
	ctx.Params = gin.Params{{Key: "id", Value: inviteParam}}
	controller.AcceptInvite(ctx)
	require.Equal(t, http.StatusOK, w.Code)

	var participant models.ActivityGoalParticipant
	require.NoError(t, db.Where("activity_goal_id = ? AND user_id = ?", goal.ID, guest.ID).First(&participant).Error)
	assert.False(t, participant.IsOwner)

	// accepting twice conflicts
	ctx, w = testContext(t, guest.ID, http.MethodPost, "/api/v1/invites/"+inviteParam+"/accept", nil)
	ctx.Params = gin.Params{{Key: "id", Value: inviteParam}}
	controller.AcceptInvite(ctx)
	assert.Equal(t, http.StatusConflict, w.Code)
}
