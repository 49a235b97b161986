package models

import "time"

// HeartRateZones is the per-user cache row for derived heart-rate data.
// At most one row exists per user. MaxHeartRate is 0 until first computed.
// Rows are provisioned externally; the zones service never creates them.
type HeartRateZones struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	RestingHeartRate int       `json:"resting_heart_rate"`
	MaxHeartRate     int       `json:"max_heart_rate"`
	Timestamp        time.Time `json:"timestamp"`
}

// IsStale reports whether the cached max heart rate is older than maxAgeDays.
// A negative maxAgeDays disables staleness entirely.
func (z *HeartRateZones) IsStale(now time.Time, maxAgeDays int) bool {
	if maxAgeDays < 0 {
		return false
	}
	return now.Sub(z.Timestamp) > time.Duration(maxAgeDays)*24*time.Hour
}

// Refresh applies a recomputed max heart rate to the record. The timestamp is
// always advanced, even when no value could be derived, so that users without
// recent samples do not trigger a full rescan on every request. The stored max
// changes only when newMax is non-nil. Returns true when the max was updated.
func (z *HeartRateZones) Refresh(now time.Time, newMax *int) bool {
	z.Timestamp = now
	if newMax == nil {
		return false
	}
	z.MaxHeartRate = *newMax
	return true
}
