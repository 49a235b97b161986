package models

import "time"

// InviteStatus is the lifecycle state of a goal invite.
type InviteStatus int

const (
	InvitePending InviteStatus = iota
	InviteAccepted
	InviteDeclined
)

// ActivityGoalInvite asks another user to join a goal. Only goal owners may
// send invites.
type ActivityGoalInvite struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	ActivityGoalID uint         `gorm:"index;not null" json:"activity_goal_id"`
	FromUserID     uint         `gorm:"index;not null" json:"from_user_id"`
	ToUserID       uint         `gorm:"index;not null" json:"to_user_id"`
	Status         InviteStatus `gorm:"default:0" json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	RespondedAt    *time.Time   `json:"responded_at"`
}
