package models

import "time"

// HeartRateSample is a single BPM measurement tied to an activity. Samples
// are append-only and ordered by timestamp within their activity.
type HeartRateSample struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	ActivityID uint      `gorm:"index;not null" json:"activity_id"`
	Timestamp  time.Time `gorm:"index;not null" json:"timestamp"`
	Bpm        int       `gorm:"not null" json:"bpm"`
}
