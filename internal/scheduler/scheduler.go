package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nutrilog/backend/internal/logger"
	"github.com/nutrilog/backend/internal/service"
)

// Scheduler runs periodic background jobs. The only job today is the
// nightly achievement sweep, which catches time-based unlocks (streaks,
// weekly goal counts) that only become true by a day passing, without
// any new entry being written.
type Scheduler struct {
	cron         *cron.Cron
	achievements service.IAchievementService
}

func New(achievements service.IAchievementService) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		achievements: achievements,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("59 23 * * *", s.evaluateAchievements)
	if err != nil {
		return err
	}
	s.cron.Start()
	logger.L().Info("scheduler started")
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.L().Info("scheduler stopped")
}

func (s *Scheduler) evaluateAchievements() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	unlocked, err := s.achievements.Evaluate(ctx, time.Now())
	if err != nil {
		logger.L().Error("scheduled achievement evaluation failed", zap.Error(err))
		return
	}
	if len(unlocked) > 0 {
		logger.L().Info("scheduled evaluation unlocked achievements",
			zap.Int("count", len(unlocked)))
	}
}
