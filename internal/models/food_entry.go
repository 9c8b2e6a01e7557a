package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealType classifies when a meal was eaten. Presentation metadata
// (icons, colors, localized titles) is a client concern and does not live
// on the enum.
type MealType string

const (
	MealBreakfast      MealType = "breakfast"
	MealLunch          MealType = "lunch"
	MealDinner         MealType = "dinner"
	MealSnack          MealType = "snack"
	MealAfternoonSnack MealType = "afternoon_snack"
	MealOther          MealType = "other"
)

// Valid reports whether m is a known meal type.
func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack, MealAfternoonSnack, MealOther:
		return true
	}
	return false
}

// FoodEntry is one logged meal. Calories/Protein/Carbs/Fat are cached sums
// over the contained products and are recomputed on every create and update.
type FoodEntry struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"size:255;not null" json:"name"`
	Date     time.Time `gorm:"not null;index" json:"date"`
	MealType MealType  `gorm:"size:32;not null" json:"meal_type"`

	Products []FoodProduct `gorm:"foreignKey:FoodEntryID;constraint:OnDelete:CASCADE" json:"products"`

	Calories int     `gorm:"not null" json:"calories"`
	Protein  float64 `gorm:"not null" json:"protein"`
	Carbs    float64 `gorm:"not null" json:"carbs"`
	Fat      float64 `gorm:"not null" json:"fat"`

	Notes    string `gorm:"size:1024" json:"notes,omitempty"`
	PhotoKey string `gorm:"size:512" json:"photo_key,omitempty"`

	// PhotoURL is a short-lived presigned read URL, filled in at read time
	// when photo storage is configured. Never persisted.
	PhotoURL string `gorm:"-" json:"photo_url,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (FoodEntry) TableName() string {
	return "food_entries"
}

// HasPhoto reports whether a photo was attached to this entry.
func (e *FoodEntry) HasPhoto() bool {
	return e.PhotoKey != ""
}

// RecalculateTotals recomputes the cached sums from the contained products.
func (e *FoodEntry) RecalculateTotals() {
	var calories float64
	var protein, carbs, fat float64
	for _, p := range e.Products {
		calories += p.Calories
		protein += p.Protein
		carbs += p.Carbs
		fat += p.Fat
	}
	e.Calories = int(calories + 0.5)
	e.Protein = protein
	e.Carbs = carbs
	e.Fat = fat
}

// FoodProduct is a single food item inside an entry, with per-serving
// nutrient values.
type FoodProduct struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	FoodEntryID uuid.UUID `gorm:"type:uuid;not null;index" json:"food_entry_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Calories    float64   `gorm:"not null" json:"calories"`
	Protein     float64   `gorm:"not null" json:"protein"`
	Carbs       float64   `gorm:"not null" json:"carbs"`
	Fat         float64   `gorm:"not null" json:"fat"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (FoodProduct) TableName() string {
	return "food_products"
}
