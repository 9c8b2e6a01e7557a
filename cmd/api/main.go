package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nutrilog/backend/config"
	"github.com/nutrilog/backend/internal/database"
	"github.com/nutrilog/backend/internal/logger"
	"github.com/nutrilog/backend/internal/scheduler"
	"github.com/nutrilog/backend/internal/server"
	"github.com/nutrilog/backend/internal/service"
)

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

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		// Redis only backs rate limiting and the key cache, both of
		// which degrade gracefully.
		log.Warn("redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	}

	var photos service.PhotoStore
	if s3Config, err := config.NewS3Config(context.Background()); err != nil {
		log.Warn("S3 unavailable, photo uploads disabled", zap.Error(err))
	} else {
		photos = s3Config
	}

	var keys service.KeyProvider
	if cfg.VisionAPIKey != "" {
		keys = service.StaticKeyProvider(cfg.VisionAPIKey)
	} else {
		keys = service.NewRemoteKeyProvider(cfg.KeySheetURL, redisClient)
	}

	achievements := service.NewAchievementService(db)
	recognition := service.NewRecognitionService(cfg, keys)

	svcs := server.Services{
		Profiles:     service.NewProfileService(db),
		Entries:      service.NewEntryService(db, photos),
		Goals:        service.NewGoalsService(db),
		Achievements: achievements,
		Recognition:  recognition,
		Suggestions:  service.NewSuggestionService(cfg, keys),
	}

	jobs := scheduler.New(achievements)
	if err := jobs.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}

	srv := server.NewServer(cfg, db, redisClient, svcs)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	case sig := <-quit:
		log.Info("received signal", zap.String("signal", sig.String()))
	}

	jobs.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown error", zap.Error(err))
	}
	log.Info("server stopped")
}
