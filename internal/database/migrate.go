package database

import (
	"github.com/nutrilog/backend/internal/models"
	"gorm.io/gorm"
)

// RunMigrations brings the schema up to date. GORM auto-migration covers
// both the SQLite test path and the Postgres deployment path; the schema is
// small enough that hand-written SQL migrations buy nothing here.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserProfile{},
		&models.FoodEntry{},
		&models.FoodProduct{},
		&models.Achievement{},
		&models.DailyProgress{},
	)
}
