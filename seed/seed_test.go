package seed

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hbitapp/hbit-backend/models"
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

func TestRunSeedsFullDataset(t *testing.T) {
	if testing.Short() {
		t.Skip("seeding generates a large sample set")
	}

	db := newTestDB(t)
	require.NoError(t, Run(db))

	var users int64
	db.Model(&models.User{}).Count(&users)
	assert.EqualValues(t, userCount, users)

	// all-pairs friendships: n*(n-1)/2
	var friends int64
	db.Model(&models.Friend{}).Count(&friends)
	assert.EqualValues(t, userCount*(userCount-1)/2, friends)

	var goals []models.ActivityGoal
	require.NoError(t, db.Find(&goals).Error)
	require.Len(t, goals, 4)
	seen := map[models.ActivityGoalRange]bool{}
	for _, g := range goals {
		seen[g.Range] = true
		assert.Len(t, []models.ActivityType(g.AcceptedTypes), 2)
	}
	assert.Len(t, seen, 4, "one goal per range")

	var participants int64
	db.Model(&models.ActivityGoalParticipant{}).Count(&participants)
	assert.EqualValues(t, userCount*4, participants)

	var activities int64
	db.Model(&models.Activity{}).Count(&activities)
	assert.EqualValues(t, userCount*(activityDays+4), activities)

	var samples int64
	db.Model(&models.HeartRateSample{}).Count(&samples)
	assert.EqualValues(t, activities*int64(secondsPerActivity/sampleIntervalSec), samples)

	var points int64
	db.Model(&models.ActivityGoalPoints{}).Count(&points)
	assert.Positive(t, points)
}

func TestRunIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("seeding generates a large sample set")
	}

	db := newTestDB(t)
	require.NoError(t, Run(db))

	var before int64
	db.Model(&models.Activity{}).Count(&before)

	require.NoError(t, Run(db))

	var after int64
	db.Model(&models.Activity{}).Count(&after)
	assert.Equal(t, before, after, "second run must not add data")
}
