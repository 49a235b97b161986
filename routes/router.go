package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hbitapp/hbit-backend/config"
	"github.com/hbitapp/hbit-backend/controllers"
	"github.com/hbitapp/hbit-backend/middleware"
	"github.com/hbitapp/hbit-backend/services"
	"github.com/hbitapp/hbit-backend/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}
	r.Use(middleware.RequestID())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	zonesService := services.NewHeartRateZonesService(db, cfg.ZoneLookbackDays, cfg.ZoneMaxAgeDays)
	goalService := services.NewGoalService(db)
	pointsService := services.NewActivityPointsService(db)

	authController := controllers.NewAuthController(db)
	usersController := controllers.NewUsersController(db)
	activityController := controllers.NewActivityController(db)
	heartRateController := controllers.NewHeartRateController(db, zonesService)
	goalController := controllers.NewGoalController(db, goalService)
	friendsController := controllers.NewFriendsController(db)
	pointsController := controllers.NewPointsController(db, pointsService)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public stats endpoint
	api.GET("/stats", statsController.GetStats)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.GET("/users", usersController.ListUsers)
	protected.GET("/users/:id", usersController.GetUserPublic)

	protected.POST("/activities", activityController.CreateActivity)
	protected.GET("/activities", activityController.ListMyActivities)
	protected.GET("/activities/:id", activityController.GetActivity)
	protected.POST("/activities/:id/samples", activityController.AddHeartRateSamples)
	protected.GET("/activities/:id/samples", activityController.ListHeartRateSamples)

	protected.GET("/heartrate/zones", heartRateController.GetZones)
	protected.GET("/activities/:id/zones/timespent", heartRateController.GetTimeSpentInZones)

	protected.POST("/goals", goalController.CreateGoal)
	protected.GET("/goals", goalController.ListMyGoals)
	protected.GET("/invites", goalController.ListMyInvites)
	protected.POST("/invites/:id/accept", goalController.AcceptInvite)
	protected.POST("/invites/:id/decline", goalController.DeclineInvite)
	protected.GET("/goals/:id", goalController.GetGoal)
	protected.POST("/goals/:id/invites", goalController.CreateInvite)
	protected.GET("/goals/:id/fulfillment", goalController.GetFulfillment)
	protected.GET("/goals/:id/leaderboard", goalController.GetLeaderboard)
	protected.GET("/goals/:id/activities", goalController.GetGoalActivities)
	protected.GET("/goals/:id/participants/activities", goalController.GetParticipantActivities)

	protected.GET("/friends", friendsController.ListFriends)
	protected.POST("/friends/requests", friendsController.SendRequest)
	protected.GET("/friends/requests", friendsController.ListIncomingRequests)
	protected.POST("/friends/requests/:id/accept", friendsController.AcceptRequest)
	protected.POST("/friends/requests/:id/reject", friendsController.RejectRequest)
	protected.DELETE("/friends/:id", friendsController.RemoveFriend)

	protected.GET("/activities/:id/bonus-points", pointsController.GetBonusPoints)
	protected.GET("/points/:activityId/:goalId", pointsController.GetActivityPoints)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
