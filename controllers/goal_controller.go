package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hbitapp/hbit-backend/models"
	"github.com/hbitapp/hbit-backend/services"
	"github.com/hbitapp/hbit-backend/utils"
)

// GoalController manages shared activity goals, invites and the derived
// fulfillment and leaderboard views.
type GoalController struct {
	db    *gorm.DB
	goals *services.GoalService
}

// NewGoalController creates a GoalController.
func NewGoalController(db *gorm.DB, goals *services.GoalService) *GoalController {
	return &GoalController{db: db, goals: goals}
}

// CreateGoal stores a new goal and its owner participant in one transaction.
func (g *GoalController) CreateGoal(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	type request struct {
		Name          string     `json:"name" binding:"required,max=255"`
		Description   string     `json:"description"`
		Range         string     `json:"range" binding:"required"`
		TargetValue   int        `json:"target_value" binding:"required,gt=0"`
		AcceptedTypes []string   `json:"accepted_activity_types"`
		StartsAt      *time.Time `json:"starts_at"`
		EndsAt        *time.Time `json:"ends_at"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}

	goalRange := models.ActivityGoalRange(strings.ToLower(strings.TrimSpace(req.Range)))
	if !goalRange.Valid() {
		utils.Error(ctx, http.StatusBadRequest, 40061, "unknown goal range")
		return
	}

	var accepted models.ActivityTypeList
	for _, t := range req.AcceptedTypes {
		actType := models.ActivityType(strings.ToLower(strings.TrimSpace(t)))
		if !actType.Valid() {
			utils.Error(ctx, http.StatusBadRequest, 40021, "unknown activity type")
			return
		}
		accepted = append(accepted, actType)
	}

	var startsAt, endsAt *time.Time
	if req.StartsAt != nil {
		t := req.StartsAt.UTC()
		startsAt = &t
	}
	if req.EndsAt != nil {
		t := req.EndsAt.UTC()
		endsAt = &t
	}
	if startsAt != nil && endsAt != nil && endsAt.Before(*startsAt) {
		utils.Error(ctx, http.StatusBadRequest, 40062, "ends_at must not precede starts_at")
		return
	}

	goal := models.ActivityGoal{
		Name:          strings.TrimSpace(utils.Sanitize(req.Name)),
		Description:   strings.TrimSpace(utils.SanitizeRich(req.Description)),
		Range:         goalRange,
		TargetValue:   req.TargetValue,
		AcceptedTypes: accepted,
		StartsAt:      startsAt,
		EndsAt:        endsAt,
	}

	err := g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&goal).Error; err != nil {
			return err
		}
		participant := models.ActivityGoalParticipant{
			ActivityGoalID: goal.ID,
			UserID:         userID,
			IsOwner:        true,
			JoinedAt:       time.Now().UTC(),
		}
		return tx.Create(&participant).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to create goal")
		return
	}

	utils.Success(ctx, goal)
}

// ListMyGoals returns all goals the viewer participates in.
func (g *GoalController) ListMyGoals(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var goals []models.ActivityGoal
	err := g.db.
		Joins("JOIN activity_goal_participants p ON p.activity_goal_id = activity_goals.id").
		Where("p.user_id = ?", userID).
		Order("activity_goals.created_at DESC").
		Find(&goals).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to list goals")
		return
	}

	utils.Success(ctx, goals)
}

// GetGoal returns one goal the viewer participates in.
func (g *GoalController) GetGoal(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	goalID, err := parseGoalID(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid goal id")
		return
	}

	var goal models.ActivityGoal
	if err := g.db.First(&goal, goalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40460, "goal not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to get goal")
		return
	}

	if !g.isParticipant(goalID, userID) {
		utils.Error(ctx, http.StatusForbidden, 40360, "not a goal participant")
		return
	}

	utils.Success(ctx, goal)
}

// CreateInvite lets a goal owner invite another user.
func (g *GoalController) CreateInvite(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	goalID, err := parseGoalID(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid goal id")
		return
	}

	var req struct {
		ToUserID uint `json:"to_user_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40064, "invalid request payload")
		return
	}

	if req.ToUserID == userID {
		utils.Error(ctx, http.StatusBadRequest, 40065, "cannot invite yourself")
		return
	}

	var owner models.ActivityGoalParticipant
	err = g.db.Where("activity_goal_id = ? AND user_id = ? AND is_owner = ?", goalID, userID, true).
		First(&owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusForbidden, 40361, "only the goal owner may invite")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to verify ownership")
		return
	}

	var targetCount int64
	if err := g.db.Model(&models.User{}).Where("id = ?", req.ToUserID).Count(&targetCount).Error; err != nil || targetCount == 0 {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	if g.isParticipant(goalID, req.ToUserID) {
		utils.Error(ctx, http.StatusConflict, 40960, "user already participates in goal")
		return
	}

	var pending int64
	g.db.Model(&models.ActivityGoalInvite{}).
		Where("activity_goal_id = ? AND to_user_id = ? AND status = ?", goalID, req.ToUserID, models.InvitePending).
		Count(&pending)
	if pending > 0 {
		utils.Error(ctx, http.StatusConflict, 40961, "invite already pending")
		return
	}

	invite := models.ActivityGoalInvite{
		ActivityGoalID: goalID,
		FromUserID:     userID,
		ToUserID:       req.ToUserID,
		Status:         models.InvitePending,
	}
	if err := g.db.Create(&invite).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to create invite")
		return
	}

	utils.Success(ctx, invite)
}

// ListMyInvites returns pending invites addressed to the viewer.
func (g *GoalController) ListMyInvites(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var invites []models.ActivityGoalInvite
	err := g.db.Where("to_user_id = ? AND status = ?", userID, models.InvitePending).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50065, "failed to list invites")
		return
	}

	utils.Success(ctx, invites)
}

// AcceptInvite turns a pending invite into a goal participation.
func (g *GoalController) AcceptInvite(ctx *gin.Context) {
	g.respondInvite(ctx, models.InviteAccepted)
}

// DeclineInvite marks a pending invite as declined.
func (g *GoalController) DeclineInvite(ctx *gin.Context) {
	g.respondInvite(ctx, models.InviteDeclined)
}

func (g *GoalController) respondInvite(ctx *gin.Context, status models.InviteStatus) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	inviteID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40066, "invalid invite id")
		return
	}

	var invite models.ActivityGoalInvite
	if err := g.db.First(&invite, uint(inviteID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40461, "invite not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50066, "failed to get invite")
		return
	}

	if invite.ToUserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40362, "invite addressed to another user")
		return
	}
	if invite.Status != models.InvitePending {
		utils.Error(ctx, http.StatusConflict, 40962, "invite already responded to")
		return
	}

	now := time.Now().UTC()
	err = g.db.Transaction(func(tx *gorm.DB) error {
		invite.Status = status
		invite.RespondedAt = &now
		if err := tx.Save(&invite).Error; err != nil {
			return err
		}
		if status != models.InviteAccepted {
			return nil
		}
		participant := models.ActivityGoalParticipant{
			ActivityGoalID: invite.ActivityGoalID,
			UserID:         userID,
			JoinedAt:       now,
		}
		return tx.Create(&participant).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50067, "failed to respond to invite")
		return
	}

	utils.Success(ctx, invite)
}

// GetFulfillment returns the viewer's per-period fulfillment series, most
// recent period first.
func (g *GoalController) GetFulfillment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	goalID, err := parseGoalID(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid goal id")
		return
	}

	series, err := g.goals.FulfillmentSeries(goalID, userID)
	if err != nil {
		if errors.Is(err, services.ErrGoalNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40460, "goal not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50068, "failed to compute fulfillment")
		return
	}

	utils.Success(ctx, series)
}

// GetLeaderboard returns a ranked window of at most three entries around the
// viewer, or the top three when the viewer has no score.
func (g *GoalController) GetLeaderboard(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	goalID, err := parseGoalID(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid goal id")
		return
	}
	if err := g.requireGoal(ctx, goalID); err != nil {
		return
	}

	entries, err := g.goals.LeaderboardWindow(goalID, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50069, "failed to compute leaderboard")
		return
	}

	utils.Success(ctx, entries)
}

// GetGoalActivities returns the viewer's contributing activities with derived
// duration and score, newest first.
func (g *GoalController) GetGoalActivities(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	goalID, err := parseGoalID(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid goal id")
		return
	}

	activities, err := g.goals.GoalActivities(goalID, userID)
	if err != nil {
		if errors.Is(err, services.ErrGoalNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40460, "goal not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to list goal activities")
		return
	}

	utils.Success(ctx, activities)
}

// GetParticipantActivities returns all participants' contributing activities
// annotated with display names and leaderboard ranks.
func (g *GoalController) GetParticipantActivities(ctx *gin.Context) {
	if _, ok := getUserID(ctx); !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	goalID, err := parseGoalID(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid goal id")
		return
	}

	activities, err := g.goals.ParticipantActivities(goalID)
	if err != nil {
		if errors.Is(err, services.ErrGoalNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40460, "goal not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to list participant activities")
		return
	}

	utils.Success(ctx, activities)
}

func (g *GoalController) requireGoal(ctx *gin.Context, goalID uint) error {
	var count int64
	if err := g.db.Model(&models.ActivityGoal{}).Where("id = ?", goalID).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to get goal")
		return err
	}
	if count == 0 {
		utils.Error(ctx, http.StatusNotFound, 40460, "goal not found")
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (g *GoalController) isParticipant(goalID, userID uint) bool {
	var count int64
	g.db.Model(&models.ActivityGoalParticipant{}).
		Where("activity_goal_id = ? AND user_id = ?", goalID, userID).
		Count(&count)
	return count > 0
}

func parseGoalID(ctx *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
