package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hbitapp/hbit-backend/models"
	"github.com/hbitapp/hbit-backend/utils"
)

// StatsController provides aggregate application statistics.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate counts, cached for a short window.
func (s *StatsController) GetStats(ctx *gin.Context) {
	const cacheKey = "cache:stats:global"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var userCount int64
	var activityCount int64
	var sampleCount int64
	var goalCount int64
	var todayActivities int64

	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		userCount = 0
	}
	if err := s.db.Model(&models.Activity{}).Count(&activityCount).Error; err != nil {
		activityCount = 0
	}
	if err := s.db.Model(&models.HeartRateSample{}).Count(&sampleCount).Error; err != nil {
		sampleCount = 0
	}
	if err := s.db.Model(&models.ActivityGoal{}).Count(&goalCount).Error; err != nil {
		goalCount = 0
	}

	todayStart := time.Now().UTC().Truncate(24 * time.Hour)
	if err := s.db.Model(&models.Activity{}).
		Where("date >= ?", todayStart).
		Count(&todayActivities).Error; err != nil {
		todayActivities = 0
	}

	payload := gin.H{
		"user_count":           userCount,
		"activity_count":       activityCount,
		"sample_count":         sampleCount,
		"goal_count":           goalCount,
		"today_activity_count": todayActivities,
	}

	utils.CacheSetJSON(cacheKey, utils.SuccessEnvelope(payload), 5*time.Minute)

	utils.Success(ctx, payload)
}
