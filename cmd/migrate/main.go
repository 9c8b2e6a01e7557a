package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nutrilog/backend/config"
	"github.com/nutrilog/backend/internal/database"
	"github.com/nutrilog/backend/internal/logger"
	"github.com/nutrilog/backend/internal/service"
)

// Applies the schema and seeds the achievement catalogue, then exits.
// Useful for provisioning a database before the API server first boots.
func main() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	log := logger.L()
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := service.NewAchievementService(db).ListAchievements(ctx); err != nil {
		log.Fatal("failed to seed achievements", zap.Error(err))
	}

	log.Info("migrations applied")
}
