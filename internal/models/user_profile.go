package models

import (
	"time"

	"gorm.io/gorm"
)

// Sex is the biological sex used by the BMR formula.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ActivityLevel describes how active the user is day to day.
type ActivityLevel string

const (
	ActivityLow    ActivityLevel = "low"
	ActivityMedium ActivityLevel = "medium"
	ActivityHigh   ActivityLevel = "high"
)

// Goal is the user's weight goal.
type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

// UserProfile holds the single user's biometric data and derived daily
// targets. At most one row exists; it is created on onboarding and only
// removed by a full data wipe.
type UserProfile struct {
	ID            uint          `gorm:"primarykey" json:"id"`
	Name          string        `gorm:"size:255" json:"name"`
	Sex           Sex           `gorm:"size:16;not null" json:"sex"`
	Age           int           `gorm:"not null" json:"age"`
	HeightCm      float64       `gorm:"not null" json:"height_cm"`
	WeightKg      float64       `gorm:"not null" json:"weight_kg"`
	ActivityLevel ActivityLevel `gorm:"size:16;not null" json:"activity_level"`
	Goal          Goal          `gorm:"size:16;not null" json:"goal"`

	// Derived targets. Always recomputable from the biometric fields, but a
	// custom calorie goal set by the user persists until the next recompute.
	CalorieGoal       int     `gorm:"not null" json:"calorie_goal"`
	ProteinGoal       float64 `gorm:"not null" json:"protein_goal"`
	CarbsGoal         float64 `gorm:"not null" json:"carbs_goal"`
	FatGoal           float64 `gorm:"not null" json:"fat_goal"`
	CustomCalorieGoal bool    `gorm:"not null;default:false" json:"custom_calorie_goal"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// Valid reports whether s is a known sex value.
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

// Valid reports whether a is a known activity level.
func (a ActivityLevel) Valid() bool {
	return a == ActivityLow || a == ActivityMedium || a == ActivityHigh
}

// Valid reports whether g is a known goal.
func (g Goal) Valid() bool {
	return g == GoalLose || g == GoalMaintain || g == GoalGain
}
