package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hbitapp/hbit-backend/models"
	"github.com/hbitapp/hbit-backend/utils"
)

// FriendsController manages friendships and friend requests.
type FriendsController struct {
	db *gorm.DB
}

// NewFriendsController creates a FriendsController.
func NewFriendsController(db *gorm.DB) *FriendsController {
	return &FriendsController{db: db}
}

// ListFriends returns the viewer's friends with display names.
func (f *FriendsController) ListFriends(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var friendships []models.Friend
	err := f.db.Where("user_a_id = ? OR user_b_id = ?", userID, userID).Find(&friendships).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to list friends")
		return
	}

	friendIDs := make([]uint, 0, len(friendships))
	for _, fr := range friendships {
		if fr.UserAID == userID {
			friendIDs = append(friendIDs, fr.UserBID)
		} else {
			friendIDs = append(friendIDs, fr.UserAID)
		}
	}

	items := make([]gin.H, 0, len(friendIDs))
	if len(friendIDs) > 0 {
		var users []models.User
		if err := f.db.Where("id IN ?", friendIDs).Find(&users).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to load friend profiles")
			return
		}
		for _, u := range users {
			items = append(items, gin.H{
				"id":           u.ID,
				"username":     u.Username,
				"display_name": u.DisplayName(),
			})
		}
	}

	utils.Success(ctx, items)
}

// SendRequest creates a pending friend request to another user.
func (f *FriendsController) SendRequest(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var req struct {
		ToUserID uint `json:"to_user_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid request payload")
		return
	}

	if req.ToUserID == userID {
		utils.Error(ctx, http.StatusBadRequest, 40081, "cannot befriend yourself")
		return
	}

	var targetCount int64
	if err := f.db.Model(&models.User{}).Where("id = ?", req.ToUserID).Count(&targetCount).Error; err != nil || targetCount == 0 {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	a, b := orderedPair(userID, req.ToUserID)
	var existing int64
	f.db.Model(&models.Friend{}).Where("user_a_id = ? AND user_b_id = ?", a, b).Count(&existing)
	if existing > 0 {
		utils.Error(ctx, http.StatusConflict, 40980, "already friends")
		return
	}

	var pending int64
	f.db.Model(&models.FriendRequest{}).
		Where("status = ? AND ((from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?))",
			models.FriendRequestPending, userID, req.ToUserID, req.ToUserID, userID).
		Count(&pending)
	if pending > 0 {
		utils.Error(ctx, http.StatusConflict, 40981, "request already pending")
		return
	}

	request := models.FriendRequest{
		FromUserID: userID,
		ToUserID:   req.ToUserID,
		Status:     models.FriendRequestPending,
	}
	if err := f.db.Create(&request).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50082, "failed to create friend request")
		return
	}

	utils.Success(ctx, request)
}

// ListIncomingRequests returns pending requests addressed to the viewer.
func (f *FriendsController) ListIncomingRequests(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var requests []models.FriendRequest
	err := f.db.Where("to_user_id = ? AND status = ?", userID, models.FriendRequestPending).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50083, "failed to list friend requests")
		return
	}

	utils.Success(ctx, requests)
}

// AcceptRequest converts a pending request into a friendship.
func (f *FriendsController) AcceptRequest(ctx *gin.Context) {
	f.respondRequest(ctx, models.FriendRequestAccepted)
}

// RejectRequest marks a pending request as rejected.
func (f *FriendsController) RejectRequest(ctx *gin.Context) {
	f.respondRequest(ctx, models.FriendRequestRejected)
}

func (f *FriendsController) respondRequest(ctx *gin.Context, status models.FriendRequestStatus) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	requestID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40082, "invalid request id")
		return
	}

	var request models.FriendRequest
	if err := f.db.First(&request, uint(requestID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40480, "friend request not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50084, "failed to get friend request")
		return
	}

	if request.ToUserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40380, "request addressed to another user")
		return
	}
	if request.Status != models.FriendRequestPending {
		utils.Error(ctx, http.StatusConflict, 40982, "request already responded to")
		return
	}

	now := time.Now().UTC()
	err = f.db.Transaction(func(tx *gorm.DB) error {
		request.Status = status
		request.RespondedAt = &now
		if err := tx.Save(&request).Error; err != nil {
			return err
		}
		if status != models.FriendRequestAccepted {
			return nil
		}
		a, b := orderedPair(request.FromUserID, request.ToUserID)
		return tx.Create(&models.Friend{UserAID: a, UserBID: b}).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50085, "failed to respond to friend request")
		return
	}

	utils.Success(ctx, request)
}

// RemoveFriend deletes an existing friendship.
func (f *FriendsController) RemoveFriend(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	friendID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40083, "invalid friend id")
		return
	}

	a, b := orderedPair(userID, uint(friendID))
	result := f.db.Where("user_a_id = ? AND user_b_id = ?", a, b).Delete(&models.Friend{})
	if result.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50086, "failed to remove friend")
		return
	}
	if result.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40481, "friendship not found")
		return
	}

	utils.Success(ctx, gin.H{"removed": friendID})
}

// orderedPair normalizes a friendship so the smaller id is always first.
func orderedPair(x, y uint) (uint, uint) {
	if x < y {
		return x, y
	}
	return y, x
}
