package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hbitapp/hbit-backend/services"
	"github.com/hbitapp/hbit-backend/utils"
)

// PointsController exposes stored and derived activity point values.
type PointsController struct {
	db     *gorm.DB
	points *services.ActivityPointsService
}

// NewPointsController creates a PointsController.
func NewPointsController(db *gorm.DB, points *services.ActivityPointsService) *PointsController {
	return &PointsController{db: db, points: points}
}

// GetActivityPoints returns stored points for an (activity, goal) pair the
// viewer owns, or zero when nothing was recorded.
func (p *PointsController) GetActivityPoints(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	activityID, err := strconv.ParseUint(ctx.Param("activityId"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid activity id")
		return
	}
	goalID, err := strconv.ParseUint(ctx.Param("goalId"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid goal id")
		return
	}

	points, err := p.points.ActivityPoints(userID, uint(activityID), uint(goalID))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50090, "failed to read points")
		return
	}

	utils.Success(ctx, gin.H{
		"activity_id": activityID,
		"goal_id":     goalID,
		"points":      points,
	})
}

// GetBonusPoints counts recent same-type activities at a similar time of day.
func (p *PointsController) GetBonusPoints(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	activityID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid activity id")
		return
	}

	window := 15
	if v := ctx.Query("window_minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			window = n
		}
	}

	bonus, err := p.points.BonusPointsFromBpm(userID, uint(activityID), window)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50091, "failed to compute bonus points")
		return
	}

	utils.Success(ctx, gin.H{
		"activity_id":    activityID,
		"window_minutes": window,
		"bonus_points":   bonus,
	})
}
