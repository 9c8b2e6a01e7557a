package models

import (
	"time"

	"gorm.io/datatypes"
)

// DailyProgress is a per-day snapshot of realized totals, upserted whenever
// the day's aggregation runs. It powers history queries without rescanning
// every food entry.
type DailyProgress struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Date      datatypes.Date `gorm:"not null;uniqueIndex" json:"date"`
	Calories  int            `gorm:"not null" json:"calories"`
	Protein   float64        `gorm:"not null" json:"protein"`
	Carbs     float64        `gorm:"not null" json:"carbs"`
	Fat       float64        `gorm:"not null" json:"fat"`
	MealCount int            `gorm:"not null" json:"meal_count"`
	GoalMet   bool           `gorm:"not null;default:false" json:"goal_met"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (DailyProgress) TableName() string {
	return "daily_progress"
}
