package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbitapp/hbit-backend/models"
)

func TestZonesFromMax(t *testing.T) {
	bounds := ZonesFromMax(180)

	assert.Equal(t, 180, bounds.MaxHeartRate)
	assert.Equal(t, 90, bounds.Zone1LowerLimit)
	assert.Equal(t, 108, bounds.Zone2LowerLimit)
	assert.Equal(t, 126, bounds.Zone3LowerLimit)
	assert.Equal(t, 144, bounds.Zone4LowerLimit)
	assert.Equal(t, 162, bounds.Zone5LowerLimit)
}

func TestZonesFromMaxRoundsHalfAwayFromZero(t *testing.T) {
	// 185 * 0.5 = 92.5 and 185 * 0.7 = 129.5; both must round up
	bounds := ZonesFromMax(185)

	assert.Equal(t, 93, bounds.Zone1LowerLimit)
	assert.Equal(t, 111, bounds.Zone2LowerLimit)
	assert.Equal(t, 130, bounds.Zone3LowerLimit)
	assert.Equal(t, 148, bounds.Zone4LowerLimit)
	assert.Equal(t, 167, bounds.Zone5LowerLimit)
}

func TestZonesFromMaxOrdering(t *testing.T) {
	for _, max := range []int{120, 160, 185, 205} {
		b := ZonesFromMax(max)
		assert.Less(t, b.Zone1LowerLimit, b.Zone2LowerLimit)
		assert.Less(t, b.Zone2LowerLimit, b.Zone3LowerLimit)
		assert.Less(t, b.Zone3LowerLimit, b.Zone4LowerLimit)
		assert.Less(t, b.Zone4LowerLimit, b.Zone5LowerLimit)
		assert.LessOrEqual(t, b.Zone5LowerLimit, max)
	}
}

func TestComputeMaxFromSamplesUsesLookbackWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	user := createUser(t, db, "runner", "", "")

	recent := createActivity(t, db, user.ID, now.AddDate(0, 0, -30))
	addSample(t, db, recent.ID, recent.Date, 150)
	addSample(t, db, recent.ID, recent.Date.Add(time.Minute), 187)

	// a higher bpm outside the lookback window must not win
	old := createActivity(t, db, user.ID, now.AddDate(0, 0, -400))
	addSample(t, db, old.ID, old.Date, 199)

	max, err := svc.ComputeMaxFromSamples(user.ID)
	require.NoError(t, err)
	require.NotNil(t, max)
	assert.Equal(t, 187, *max)
}

func TestComputeMaxFromSamplesNoData(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)
	user := createUser(t, db, "idle", "", "")

	max, err := svc.ComputeMaxFromSamples(user.ID)
	require.NoError(t, err)
	assert.Nil(t, max)
}

func TestAgeFallbackMaxTanaka(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	dob := now.AddDate(-30, 0, -10)
	user := models.User{Username: "thirty", DateOfBirth: &dob}
	require.NoError(t, db.Create(&user).Error)

	max, err := svc.AgeFallbackMax(user.ID)
	require.NoError(t, err)
	require.NotNil(t, max)
	// round(211 - 0.64*30) = 192
	assert.Equal(t, 192, *max)
}

func TestAgeFallbackMaxNoDateOfBirth(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)
	user := createUser(t, db, "nodob", "", "")

	max, err := svc.AgeFallbackMax(user.ID)
	require.NoError(t, err)
	assert.Nil(t, max)
}

func TestEnsureFreshNoRowReturnsNil(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)
	user := createUser(t, db, "norow", "", "")

	zones, err := svc.EnsureFresh(user.ID)
	require.NoError(t, err)
	assert.Nil(t, zones)
}

func TestEnsureFreshKeepsFreshRowUntouched(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	user := createUser(t, db, "fresh", "", "")
	stored := now.Add(-24 * time.Hour)
	require.NoError(t, db.Create(&models.HeartRateZones{
		UserID:       user.ID,
		MaxHeartRate: 190,
		Timestamp:    stored,
	}).Error)

	zones, err := svc.EnsureFresh(user.ID)
	require.NoError(t, err)
	require.NotNil(t, zones)
	assert.Equal(t, 190, zones.MaxHeartRate)
	assert.True(t, zones.Timestamp.Equal(stored))
}

func TestEnsureFreshStaleRowRecomputesMax(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	user := createUser(t, db, "stale", "", "")
	require.NoError(t, db.Create(&models.HeartRateZones{
		UserID:       user.ID,
		MaxHeartRate: 170,
		Timestamp:    now.AddDate(0, 0, -10),
	}).Error)

	activity := createActivity(t, db, user.ID, now.AddDate(0, 0, -2))
	addSample(t, db, activity.ID, activity.Date, 195)
	addSample(t, db, activity.ID, activity.Date.Add(time.Minute), 188)

	zones, err := svc.EnsureFresh(user.ID)
	require.NoError(t, err)
	require.NotNil(t, zones)
	assert.Equal(t, 195, zones.MaxHeartRate)
	assert.True(t, zones.Timestamp.Equal(now))

	var persisted models.HeartRateZones
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&persisted).Error)
	assert.Equal(t, 195, persisted.MaxHeartRate)
}

func TestEnsureFreshStaleRowNoSamplesStillBumpsTimestamp(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	user := createUser(t, db, "quiet", "", "")
	require.NoError(t, db.Create(&models.HeartRateZones{
		UserID:       user.ID,
		MaxHeartRate: 170,
		Timestamp:    now.AddDate(0, 0, -10),
	}).Error)

	zones, err := svc.EnsureFresh(user.ID)
	require.NoError(t, err)
	require.NotNil(t, zones)
	// stored max survives, timestamp still advances
	assert.Equal(t, 170, zones.MaxHeartRate)
	assert.True(t, zones.Timestamp.Equal(now))
}

func TestResolveZonesUnresolvable(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)
	user := createUser(t, db, "blank", "", "")

	_, err := svc.ResolveZones(user.ID)
	assert.ErrorIs(t, err, ErrMaxHeartRateUnresolvable)
}

func TestResolveZonesPrefersCachedMax(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	user := createUser(t, db, "cached", "", "")
	require.NoError(t, db.Create(&models.HeartRateZones{
		UserID:           user.ID,
		RestingHeartRate: 55,
		MaxHeartRate:     180,
		Timestamp:        now.Add(-time.Hour),
	}).Error)

	bounds, err := svc.ResolveZones(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 55, bounds.RestingHeartRate)
	assert.Equal(t, 180, bounds.MaxHeartRate)
	assert.Equal(t, 90, bounds.Zone1LowerLimit)
}

func TestResolveZonesFallsBackToDirectComputation(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// no cache row at all; samples must carry the result
	user := createUser(t, db, "direct", "", "")
	activity := createActivity(t, db, user.ID, now.AddDate(0, 0, -1))
	addSample(t, db, activity.ID, activity.Date, 178)
	addSample(t, db, activity.ID, activity.Date.Add(time.Minute), 182)

	bounds, err := svc.ResolveZones(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 182, bounds.MaxHeartRate)
}

func TestTimeInZonesBucketsSampleDeltas(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)

	user := createUser(t, db, "zoned", "", "")
	start := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	activity := createActivity(t, db, user.ID, start)

	// bounds from max 200: z1 100, z2 120, z3 140, z4 160, z5 180
	bounds := ZonesFromMax(200)

	addSample(t, db, activity.ID, start, 110)                     // z1 for 10s
	addSample(t, db, activity.ID, start.Add(10*time.Second), 130) // z2 for 15s
	addSample(t, db, activity.ID, start.Add(25*time.Second), 190) // z5 for 5s
	addSample(t, db, activity.ID, start.Add(30*time.Second), 100)

	times, err := svc.TimeInZones(activity.ID, time.Time{}, bounds)
	require.NoError(t, err)
	require.Len(t, times, 5)

	byZone := map[string]int{}
	for _, zt := range times {
		byZone[zt.Zone] = zt.Seconds
	}
	assert.Equal(t, 10, byZone["Z1"])
	assert.Equal(t, 15, byZone["Z2"])
	assert.Equal(t, 0, byZone["Z3"])
	assert.Equal(t, 0, byZone["Z4"])
	assert.Equal(t, 5, byZone["Z5"])
}

func TestTimeInZonesFewerThanTwoSamples(t *testing.T) {
	db := newTestDB(t)
	svc := NewHeartRateZonesService(db, 365, 7)

	user := createUser(t, db, "single", "", "")
	start := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	activity := createActivity(t, db, user.ID, start)
	addSample(t, db, activity.ID, start, 150)

	times, err := svc.TimeInZones(activity.ID, time.Time{}, ZonesFromMax(200))
	require.NoError(t, err)
	require.Len(t, times, 5)
	for _, zt := range times {
		assert.Zero(t, zt.Seconds)
	}
}
