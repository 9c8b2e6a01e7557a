package types

import (
	"time"

	"github.com/nutrilog/backend/internal/models"
)

// SaveProfileRequest carries the onboarding/editor form fields.
type SaveProfileRequest struct {
	Name          string               `json:"name"`
	Sex           models.Sex           `json:"sex" binding:"required"`
	Age           int                  `json:"age"`
	HeightCm      float64              `json:"height_cm"`
	WeightKg      float64              `json:"weight_kg"`
	ActivityLevel models.ActivityLevel `json:"activity_level" binding:"required"`
	Goal          models.Goal          `json:"goal" binding:"required"`
}

// CalorieGoalRequest sets a custom calorie goal.
type CalorieGoalRequest struct {
	Calories int `json:"calories" binding:"required"`
}

// ProductInput is one food product inside an entry request.
type ProductInput struct {
	Name     string  `json:"name" binding:"required"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// SaveEntryRequest creates or replaces a food entry.
type SaveEntryRequest struct {
	Name     string          `json:"name" binding:"required"`
	Date     time.Time       `json:"date"`
	MealType models.MealType `json:"meal_type" binding:"required"`
	Products []ProductInput  `json:"products" binding:"required"`
	Notes    string          `json:"notes"`
}

// SuggestRequest asks for a recipe suggestion from a list of ingredients.
type SuggestRequest struct {
	Ingredients []string `json:"ingredients" binding:"required"`
	Language    string   `json:"language"`
}
