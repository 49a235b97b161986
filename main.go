package main

import (
	"github.com/hbitapp/hbit-backend/config"
	"github.com/hbitapp/hbit-backend/models"
	"github.com/hbitapp/hbit-backend/routes"
	"github.com/hbitapp/hbit-backend/seed"
	"github.com/hbitapp/hbit-backend/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Activity{},
		&models.HeartRateSample{},
		&models.HeartRateZones{},
		&models.ActivityGoal{},
		&models.ActivityGoalParticipant{},
		&models.ActivityGoalPoints{},
		&models.ActivityGoalInvite{},
		&models.Friend{},
		&models.FriendRequest{},
	)

	if cfg.SeedDemoData {
		if err := seed.Run(db); err != nil {
			utils.Sugar.Warnf("demo data seeding failed: %v", err)
		}
	}

	r := routes.SetupRouter(db)

	addr := ":" + cfg.AppPort
	var err error
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		utils.Sugar.Infof("Starting HTTPS server on %s (graceful)", addr)
		err = utils.GraceServerTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile, r)
	} else {
		utils.Sugar.Infof("Starting server on %s (graceful)", addr)
		err = utils.GraceServer(addr, r)
	}
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
