package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ActivityType enumerates the supported kinds of recorded activities.
type ActivityType string

const (
	ActivityRunning  ActivityType = "running"
	ActivityCycling  ActivityType = "cycling"
	ActivitySwimming ActivityType = "swimming"
	ActivityWalking  ActivityType = "walking"
	ActivityHiking   ActivityType = "hiking"
	ActivityStrength ActivityType = "strength"
	ActivityOther    ActivityType = "other"
)

// AllActivityTypes lists every known activity type, used by validation and the seeder.
var AllActivityTypes = []ActivityType{
	ActivityRunning,
	ActivityCycling,
	ActivitySwimming,
	ActivityWalking,
	ActivityHiking,
	ActivityStrength,
	ActivityOther,
}

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	for _, known := range AllActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ActivityTypeList is stored as a JSON array in a text column.
// An empty list means "all types accepted".
type ActivityTypeList []ActivityType

// Value implements driver.Valuer.
func (l ActivityTypeList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *ActivityTypeList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for ActivityTypeList: %T", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// Contains reports whether the list accepts the given type. An empty list
// accepts everything.
func (l ActivityTypeList) Contains(t ActivityType) bool {
	if len(l) == 0 {
		return true
	}
	for _, item := range l {
		if item == t {
			return true
		}
	}
	return false
}

// Activity is a single recorded workout. Dates are stored in UTC; the period
// aggregation compares them against UTC window boundaries.
type Activity struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"index;not null" json:"user_id"`
	Name      string            `gorm:"size:255;not null" json:"name"`
	Type      ActivityType      `gorm:"size:32;not null" json:"type"`
	Date      time.Time         `gorm:"index;not null" json:"date"`
	CreatedAt time.Time         `json:"created_at"`
	Samples   []HeartRateSample `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
