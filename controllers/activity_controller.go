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
	"github.com/hbitapp/hbit-backend/utils"
)

// ActivityController manages workout activities and their heart rate samples.
type ActivityController struct {
	db *gorm.DB
}

// NewActivityController creates an ActivityController.
func NewActivityController(db *gorm.DB) *ActivityController {
	return &ActivityController{db: db}
}

// CreateActivity records a new workout for the authenticated user.
func (a *ActivityController) CreateActivity(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	type request struct {
		Name string    `json:"name" binding:"required,max=255"`
		Type string    `json:"type" binding:"required"`
		Date time.Time `json:"date" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	actType := models.ActivityType(strings.ToLower(strings.TrimSpace(req.Type)))
	if !actType.Valid() {
		utils.Error(ctx, http.StatusBadRequest, 40021, "unknown activity type")
		return
	}

	activity := models.Activity{
		UserID: userID,
		Name:   strings.TrimSpace(utils.Sanitize(req.Name)),
		Type:   actType,
		Date:   req.Date.UTC(),
	}

	if err := a.db.Create(&activity).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create activity")
		return
	}

	utils.Success(ctx, activity)
}

// ListMyActivities returns the viewer's activities, newest first.
func (a *ActivityController) ListMyActivities(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var activities []models.Activity
	query := a.db.Where("user_id = ?", userID).Order("date DESC")
	if t := strings.TrimSpace(ctx.Query("type")); t != "" {
		actType := models.ActivityType(strings.ToLower(t))
		if !actType.Valid() {
			utils.Error(ctx, http.StatusBadRequest, 40021, "unknown activity type")
			return
		}
		query = query.Where("type = ?", actType)
	}
	if err := query.Find(&activities).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list activities")
		return
	}

	utils.Success(ctx, activities)
}

// GetActivity returns one activity by id. Any authenticated user may read.
func (a *ActivityController) GetActivity(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid activity id")
		return
	}

	var activity models.Activity
	if err := a.db.First(&activity, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "activity not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to get activity")
		return
	}

	utils.Success(ctx, activity)
}

// AddHeartRateSamples appends heart rate samples to an activity the viewer owns.
func (a *ActivityController) AddHeartRateSamples(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid activity id")
		return
	}

	var activity models.Activity
	if err := a.db.First(&activity, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "activity not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to get activity")
		return
	}
	if activity.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "not the activity owner")
		return
	}

	type sampleInput struct {
		Timestamp time.Time `json:"timestamp" binding:"required"`
		Bpm       int       `json:"bpm" binding:"required"`
	}
	var req struct {
		Samples []sampleInput `json:"samples" binding:"required,min=1,dive"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}

	samples := make([]models.HeartRateSample, 0, len(req.Samples))
	for _, s := range req.Samples {
		if s.Bpm < 1 || s.Bpm > 300 {
			utils.Error(ctx, http.StatusBadRequest, 40024, "bpm out of range")
			return
		}
		samples = append(samples, models.HeartRateSample{
			ActivityID: activity.ID,
			Timestamp:  s.Timestamp.UTC(),
			Bpm:        s.Bpm,
		})
	}

	if err := a.db.Create(&samples).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to store samples")
		return
	}

	utils.Success(ctx, gin.H{"stored": len(samples)})
}

// ListHeartRateSamples returns samples of an activity ordered by timestamp.
func (a *ActivityController) ListHeartRateSamples(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid activity id")
		return
	}

	var count int64
	if err := a.db.Model(&models.Activity{}).Where("id = ?", uint(id)).Count(&count).Error; err != nil || count == 0 {
		utils.Error(ctx, http.StatusNotFound, 40420, "activity not found")
		return
	}

	var samples []models.HeartRateSample
	if err := a.db.Where("activity_id = ?", uint(id)).Order("timestamp ASC").Find(&samples).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to list samples")
		return
	}

	utils.Success(ctx, samples)
}
