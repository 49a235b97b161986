package models

import "time"

// Friend stores an undirected friendship. The pair is normalized so that
// UserAID < UserBID, which makes the composite key unique per relation.
type Friend struct {
	UserAID   uint      `gorm:"primaryKey;autoIncrement:false" json:"user_a_id"`
	UserBID   uint      `gorm:"primaryKey;autoIncrement:false" json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FriendRequestStatus is the lifecycle state of a friend request.
type FriendRequestStatus int

const (
	FriendRequestPending FriendRequestStatus = iota
	FriendRequestAccepted
	FriendRequestRejected
)

// FriendRequest is a directed request that becomes a Friend row on accept.
type FriendRequest struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	FromUserID  uint                `gorm:"index;not null" json:"from_user_id"`
	ToUserID    uint                `gorm:"index;not null" json:"to_user_id"`
	Status      FriendRequestStatus `gorm:"default:0" json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	RespondedAt *time.Time          `json:"responded_at"`
}
