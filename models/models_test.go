package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDisplayName(t *testing.T) {
	cases := []struct {
		name     string
		user     User
		expected string
	}{
		{"full name", User{Username: "jk", Name: "Jan", Surname: "Kowalski"}, "Jan Kowalski"},
		{"name only", User{Username: "jk", Name: "Jan"}, "Jan"},
		{"username fallback", User{Username: "jk"}, "jk"},
		{"nothing known", User{}, "Unknown"},
		{"whitespace ignored", User{Username: "jk", Name: "  ", Surname: " "}, "jk"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.user.DisplayName())
		})
	}
}

func TestActivityTypeListRoundTrip(t *testing.T) {
	list := ActivityTypeList{ActivityRunning, ActivityCycling}

	value, err := list.Value()
	require.NoError(t, err)

	var decoded ActivityTypeList
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, list, decoded)
}

func TestActivityTypeListContains(t *testing.T) {
	list := ActivityTypeList{ActivityRunning, ActivityCycling}
	assert.True(t, list.Contains(ActivityRunning))
	assert.False(t, list.Contains(ActivitySwimming))

	var empty ActivityTypeList
	assert.True(t, empty.Contains(ActivitySwimming), "empty list accepts every type")
}

func TestHeartRateZonesStaleness(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	zones := HeartRateZones{Timestamp: now.AddDate(0, 0, -8)}

	assert.True(t, zones.IsStale(now, 7))
	assert.False(t, zones.IsStale(now, 30))
	assert.False(t, zones.IsStale(now, -1), "negative max age disables staleness")
}

func TestHeartRateZonesRefresh(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	zones := HeartRateZones{MaxHeartRate: 180, Timestamp: now.AddDate(0, 0, -10)}

	// no derived value: timestamp moves, max stays
	assert.False(t, zones.Refresh(now, nil))
	assert.Equal(t, 180, zones.MaxHeartRate)
	assert.True(t, zones.Timestamp.Equal(now))

	newMax := 192
	later := now.Add(time.Hour)
	assert.True(t, zones.Refresh(later, &newMax))
	assert.Equal(t, 192, zones.MaxHeartRate)
	assert.True(t, zones.Timestamp.Equal(later))
}
