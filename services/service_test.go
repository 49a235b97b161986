package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hbitapp/hbit-backend/models"
)

// newTestDB opens an in-memory database with the full schema. A single
// connection keeps the in-memory store alive for the whole test.
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

func createUser(t *testing.T, db *gorm.DB, username, name, surname string) models.User {
	t.Helper()
	user := models.User{Username: username, Name: name, Surname: surname}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createActivity(t *testing.T, db *gorm.DB, userID uint, date time.Time) models.Activity {
	t.Helper()
	activity := models.Activity{
		UserID: userID,
		Name:   "test activity",
		Type:   models.ActivityRunning,
		Date:   date.UTC(),
	}
	require.NoError(t, db.Create(&activity).Error)
	return activity
}

func addPoints(t *testing.T, db *gorm.DB, activityID, goalID uint, points int) {
	t.Helper()
	require.NoError(t, db.Create(&models.ActivityGoalPoints{
		ActivityID:     activityID,
		ActivityGoalID: goalID,
		Points:         points,
	}).Error)
}

func addSample(t *testing.T, db *gorm.DB, activityID uint, ts time.Time, bpm int) {
	t.Helper()
	require.NoError(t, db.Create(&models.HeartRateSample{
		ActivityID: activityID,
		Timestamp:  ts.UTC(),
		Bpm:        bpm,
	}).Error)
}
