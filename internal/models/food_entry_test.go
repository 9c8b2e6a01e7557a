package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMealTypeValid(t *testing.T) {
	for _, m := range []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack, MealAfternoonSnack, MealOther} {
		assert.True(t, m.Valid(), string(m))
	}
	assert.False(t, MealType("brunch").Valid())
	assert.False(t, MealType("").Valid())
}

func TestRecalculateTotals(t *testing.T) {
	entry := FoodEntry{
		Products: []FoodProduct{
			{Calories: 330.4, Protein: 40, Carbs: 0, Fat: 12},
			{Calories: 206.3, Protein: 4.3, Carbs: 44.5, Fat: 0.4},
		},
	}

	entry.RecalculateTotals()

	assert.Equal(t, 537, entry.Calories)
	assert.InDelta(t, 44.3, entry.Protein, 1e-9)
	assert.InDelta(t, 44.5, entry.Carbs, 1e-9)
	assert.InDelta(t, 12.4, entry.Fat, 1e-9)

	entry.Products = nil
	entry.RecalculateTotals()
	assert.Equal(t, 0, entry.Calories)
	assert.Equal(t, float64(0), entry.Protein)
}

func TestHasPhoto(t *testing.T) {
	assert.False(t, (&FoodEntry{}).HasPhoto())
	assert.True(t, (&FoodEntry{PhotoKey: "meal-photos/a.jpg"}).HasPhoto())
}

func TestProfileEnumsValid(t *testing.T) {
	assert.True(t, SexMale.Valid())
	assert.True(t, SexFemale.Valid())
	assert.False(t, Sex("x").Valid())

	assert.True(t, ActivityMedium.Valid())
	assert.False(t, ActivityLevel("extreme").Valid())

	assert.True(t, GoalGain.Valid())
	assert.False(t, Goal("bulk").Valid())
}
