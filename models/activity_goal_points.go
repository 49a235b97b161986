package models

// ActivityGoalPoints records that an activity contributed Points toward a
// goal. Aggregation sums rows, so accidental duplicates for the same
// (activity, goal) pair do not corrupt ranking, only inflate it.
type ActivityGoalPoints struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	ActivityID     uint `gorm:"index;not null" json:"activity_id"`
	ActivityGoalID uint `gorm:"index;not null" json:"activity_goal_id"`
	Points         int  `gorm:"not null" json:"points"`
}

// TableName keeps the plural-of-plural default from biting us.
func (ActivityGoalPoints) TableName() string {
	return "activity_goal_points"
}
