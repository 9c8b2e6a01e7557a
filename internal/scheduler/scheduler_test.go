package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/service"
	"github.com/nutrilog/backend/internal/testhelpers"
)

func TestSchedulerStartStop(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	s := New(service.NewAchievementService(db))

	require.NoError(t, s.Start())
	s.Stop()
}

func TestEvaluateAchievementsJob(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	s := New(service.NewAchievementService(db))

	// The job seeds the catalogue on an empty store and must not panic.
	s.evaluateAchievements()

	var count int64
	require.NoError(t, db.Model(&models.Achievement{}).Count(&count).Error)
	assert.Equal(t, int64(16), count)
}
