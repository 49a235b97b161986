package models

import "time"

// ActivityGoalRange is the recurrence granularity a goal's target is
// evaluated over.
type ActivityGoalRange string

const (
	RangeDaily   ActivityGoalRange = "daily"
	RangeWeekly  ActivityGoalRange = "weekly"
	RangeMonthly ActivityGoalRange = "monthly"
	RangeYearly  ActivityGoalRange = "yearly"
)

// Valid reports whether r is a recognized range. Unrecognized values are not
// an error at query time; aggregation falls back to daily behavior.
func (r ActivityGoalRange) Valid() bool {
	switch r {
	case RangeDaily, RangeWeekly, RangeMonthly, RangeYearly:
		return true
	}
	return false
}

// ActivityGoal is a shared recurring target, immutable after creation.
type ActivityGoal struct {
	ID            uint                      `gorm:"primaryKey" json:"id"`
	Name          string                    `gorm:"size:255;not null" json:"name"`
	Description   string                    `gorm:"type:text" json:"description"`
	Range         ActivityGoalRange         `gorm:"size:16;not null" json:"range"`
	TargetValue   int                       `gorm:"not null" json:"target_value"`
	AcceptedTypes ActivityTypeList          `gorm:"type:text" json:"accepted_activity_types"`
	StartsAt      *time.Time                `json:"starts_at"`
	EndsAt        *time.Time                `json:"ends_at"`
	CreatedAt     time.Time                 `json:"created_at"`
	Participants  []ActivityGoalParticipant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// ActivityGoalParticipant joins a user to a goal. Each goal has at least one
// owner participant, created in the same transaction as the goal itself.
type ActivityGoalParticipant struct {
	ActivityGoalID uint      `gorm:"primaryKey;autoIncrement:false" json:"activity_goal_id"`
	UserID         uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	IsOwner        bool      `gorm:"default:false" json:"is_owner"`
	JoinedAt       time.Time `json:"joined_at"`
}
