package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hbitapp/hbit-backend/models"
	"github.com/hbitapp/hbit-backend/services"
	"github.com/hbitapp/hbit-backend/utils"
)

// HeartRateController exposes heart rate zone computation endpoints.
type HeartRateController struct {
	db    *gorm.DB
	zones *services.HeartRateZonesService
}

// NewHeartRateController creates a HeartRateController.
func NewHeartRateController(db *gorm.DB, zones *services.HeartRateZonesService) *HeartRateController {
	return &HeartRateController{db: db, zones: zones}
}

// GetZones returns the five heart rate zone lower bounds for a user.
// Without a user_id query parameter the viewer's own zones are returned.
func (h *HeartRateController) GetZones(ctx *gin.Context) {
	viewerID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	targetID := viewerID
	if v := ctx.Query("user_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40040, "invalid user_id")
			return
		}
		targetID = uint(parsed)
	}

	bounds, err := h.zones.ResolveZones(targetID)
	if err != nil {
		if errors.Is(err, services.ErrMaxHeartRateUnresolvable) {
			utils.Error(ctx, http.StatusNotFound, 40440, "unable to determine max heart rate")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to resolve heart rate zones")
		return
	}

	utils.Success(ctx, bounds)
}

// GetTimeSpentInZones reports per-zone seconds for one activity's samples.
// An optional days query parameter restricts how far back samples are read.
func (h *HeartRateController) GetTimeSpentInZones(ctx *gin.Context) {
	activityID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid activity id")
		return
	}

	var activity models.Activity
	if err := h.db.First(&activity, uint(activityID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "activity not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to get activity")
		return
	}

	days := 0
	if v := ctx.Query("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	since := time.Time{}
	if days > 0 {
		since = time.Now().UTC().AddDate(0, 0, -days)
	}

	bounds, err := h.zones.ResolveZones(activity.UserID)
	if err != nil {
		if errors.Is(err, services.ErrMaxHeartRateUnresolvable) {
			utils.Error(ctx, http.StatusNotFound, 40440, "unable to determine max heart rate")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to resolve heart rate zones")
		return
	}

	times, err := h.zones.TimeInZones(uint(activityID), since, bounds)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to compute time in zones")
		return
	}

	utils.Success(ctx, gin.H{
		"activity_id": activityID,
		"zones":       times,
	})
}
