package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/testhelpers"
)

func createEntry(t *testing.T, db *gorm.DB, date time.Time, mealType models.MealType, calories int, protein float64, photoKey string, productNames ...string) {
	t.Helper()
	entry := models.FoodEntry{
		ID:       uuid.New(),
		Name:     "meal",
		Date:     date,
		MealType: mealType,
		Calories: calories,
		Protein:  protein,
		PhotoKey: photoKey,
	}
	for _, name := range productNames {
		entry.Products = append(entry.Products, models.FoodProduct{
			FoodEntryID: entry.ID,
			Name:        name,
			Calories:    float64(calories) / float64(len(productNames)),
		})
	}
	require.NoError(t, db.Create(&entry).Error)
}

func findByID(records []models.Achievement, id string) *models.Achievement {
	for i := range records {
		if records[i].ID == id {
			return &records[i]
		}
	}
	return nil
}

func TestEvaluateSeedsCatalogueOnce(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := NewAchievementService(db)
	ctx := context.Background()

	_, err := svc.Evaluate(ctx, time.Now())
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, time.Now())
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Achievement{}).Count(&count).Error)
	assert.Equal(t, int64(16), count)
}

func TestListAchievementsSeedsAndOrders(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := NewAchievementService(db)

	records, err := svc.ListAchievements(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 16)
	assert.Equal(t, "first_meal", records[0].ID)
	assert.Equal(t, "month_100_meals", records[15].ID)
	for _, r := range records {
		assert.False(t, r.IsUnlocked, r.ID)
		assert.Nil(t, r.UnlockedAt, r.ID)
	}
}

func TestEvaluateEmptyHistory(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := NewAchievementService(db)
	ctx := context.Background()

	unlocked, err := svc.Evaluate(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	records, err := svc.ListAchievements(ctx)
	require.NoError(t, err)

	first := findByID(records, "first_meal")
	require.NotNil(t, first)
	assert.False(t, first.IsUnlocked)
	assert.Equal(t, float64(0), first.Progress)
	assert.Equal(t, float64(1), first.Target)
}

func TestEvaluateMealCountsAndPhoto(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := NewAchievementService(db)
	ctx := context.Background()
	now := time.Date(2026, 5, 12, 18, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		createEntry(t, db, now.AddDate(0, 0, -10-i), models.MealLunch, 500, 20, "")
	}
	createEntry(t, db, now.AddDate(0, 0, -20), models.MealDinner, 600, 25, "meal-photos/x.jpg")

	unlocked, err := svc.Evaluate(ctx, now)
	require.NoError(t, err)

	ids := make([]string, 0, len(unlocked))
	for _, a := range unlocked {
		ids = append(ids, a.ID)
	}
	assert.Contains(t, ids, "first_meal")
	assert.Contains(t, ids, "five_meals")
	assert.Contains(t, ids, "photo_entry")
	assert.NotContains(t, ids, "twenty_meals")

	records, err := svc.ListAchievements(ctx)
	require.NoError(t, err)

	five := findByID(records, "five_meals")
	require.NotNil(t, five)
	assert.True(t, five.IsUnlocked)
	assert.Equal(t, float64(5), five.Progress)
	require.NotNil(t, five.UnlockedAt)
	assert.WithinDuration(t, now, *five.UnlockedAt, time.Second)

	twenty := findByID(records, "twenty_meals")
	require.NotNil(t, twenty)
	assert.False(t, twenty.IsUnlocked)
	assert.Equal(t, float64(5), twenty.Progress)
}

func TestEvaluateStreak(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := NewAchievementService(db)
	ctx := context.Background()
	now := time.Date(2026, 5, 12, 20, 0, 0, 0, time.UTC)

	// Today, yesterday and the day before. Nothing earlier.
	createEntry(t, db, now.Add(-2*time.Hour), models.MealDinner, 500, 20, "")
	createEntry(t, db, now.AddDate(0, 0, -1), models.MealLunch, 500, 20, "")
	createEntry(t, db, now.AddDate(0, 0, -2), models.MealLunch, 500, 20, "")

	_, err := svc.Evaluate(ctx, now)
	require.NoError(t, err)

	records, err := svc.ListAchievements(ctx)
	require.NoError(t, err)

	three := findByID(records, "streak_3")
	require.NotNil(t, three)
	assert.True(t, three.IsUnlocked)
	assert.Equal(t, float64(3), three.Progress)

	seven := findByID(records, "streak_7")
	require.NotNil(t, seven)
	assert.False(t, seven.IsUnlocked)
	assert.Equal(t, float64(3), seven.Progress)
	assert.Equal(t, float64(7), seven.Target)
}

func TestEvaluateStreakRequiresToday(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := NewAchievementService(db)
	ctx := context.Background()
	now := time.Date(2026, 5, 12, 20, 0, 0, 0, time.UTC)

	// Three consecutive days, but none of them today.
	createEntry(t, db, now.AddDate(0, 0, -1), models.MealLunch, 500, 20, "")
	createEntry(t, db, now.AddDate(0, 0, -2), models.MealLunch, 500, 20, "")
	createEntry(t, db, now.AddDate(0, 0, -3), models.MealLunch, 500, 20, "")

	_, err := svc.Evaluate(ctx, now)
	require.NoError(t, err)

	records, err := svc.ListAchievements(ctx)
	require.NoError(t, err)

	three := findByID(records, "streak_3")
	require.NotNil(t, three)
	assert.False(t, three.IsUnlocked)
	assert.Equal(t, float64(0), three.Progress)
}

func TestEvaluateGoalDay(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := NewAchievementService(db)
	ctx := context.Background()
	now := time.Date(2026, 5, 12, 21, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.UserProfile{
		Sex: models.SexMale, Age: 30, HeightCm: 175, WeightKg: 70,
		ActivityLevel: models.ActivityMedium, Goal: models.GoalMaintain,
		CalorieGoal: 2000, ProteinGoal: 150, CarbsGoal: 250, FatGoal: 67,
	}).Error)

	createEntry(t, db, now.Add(-10*time.Hour), models.MealBreakfast, 900, 40, "")
	createEntry(t, db, now.Add(-2*time.Hour), models.MealDinner, 1200, 65, "")

	unlocked, err := svc.Evaluate(ctx, now)
	require.NoError(t, err)

	ids := make([]string, 0, len(unlocked))
	for _, a := range unlocked {
		ids = append(ids, a.ID)
	}
	assert.Contains(t, ids, "goal_day")
	assert.Contains(t, ids, "protein_100")

	records, err := svc.ListAchievements(ctx)
	require.NoError(t, err)
	protein := findByID(records, "protein_100")
	require.NotNil(t, protein)
	assert.Equal(t, float64(105), protein.Progress)
}

func TestEvaluateMealTimePredicates(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := NewAchievementService(db)
	ctx := context.Background()
	now := time.Date(2026, 5, 12, 23, 0, 0, 0, time.UTC)

	early := time.Date(2026, 5, 12, 7, 30, 0, 0, time.UTC)
	late := time.Date(2026, 5, 12, 21, 15, 0, 0, time.UTC)
	createEntry(t, db, early, models.MealBreakfast, 400, 15, "")
	createEntry(t, db, late, models.MealDinner, 700, 30, "")

	_, err := svc.Evaluate(ctx, now)
	require.NoError(t, err)

	records, err := svc.ListAchievements(ctx)
	require.NoError(t, err)

	assert.True(t, findByID(records, "breakfast_early").IsUnlocked)
	assert.True(t, findByID(records, "dinner_late").IsUnlocked)
}

func TestEvaluateDistinctProducts(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := NewAchievementService(db)
	ctx := context.Background()
	now := time.Date(2026, 5, 12, 20, 0, 0, 0, time.UTC)

	createEntry(t, db, now.Add(-8*time.Hour), models.MealLunch, 600, 25, "", "rice", "chicken", "Broccoli")
	// Case-insensitive dedup: "broccoli" repeats, "tomato" and "feta" are new.
	createEntry(t, db, now.Add(-2*time.Hour), models.MealDinner, 500, 20, "", "broccoli", "tomato", "feta")

	_, err := svc.Evaluate(ctx, now)
	require.NoError(t, err)

	records, err := svc.ListAchievements(ctx)
	require.NoError(t, err)

	veggie := findByID(records, "veggie_day")
	require.NotNil(t, veggie)
	assert.True(t, veggie.IsUnlocked)
	assert.Equal(t, float64(5), veggie.Progress)
}

func TestEvaluateIdempotent(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := NewAchievementService(db)
	ctx := context.Background()
	now := time.Date(2026, 5, 12, 18, 0, 0, 0, time.UTC)

	createEntry(t, db, now, models.MealLunch, 500, 20, "")

	first, err := svc.Evaluate(ctx, now)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := svc.Evaluate(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestUnlockIsMonotonic(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := NewAchievementService(db)
	ctx := context.Background()
	now := time.Date(2026, 5, 12, 20, 0, 0, 0, time.UTC)

	createEntry(t, db, now.Add(-2*time.Hour), models.MealDinner, 500, 20, "")
	createEntry(t, db, now.AddDate(0, 0, -1), models.MealLunch, 500, 20, "")
	createEntry(t, db, now.AddDate(0, 0, -2), models.MealLunch, 500, 20, "")

	_, err := svc.Evaluate(ctx, now)
	require.NoError(t, err)

	// Two days later the streak is broken, but the unlock must survive
	// even though current progress dropped below the target.
	later := now.AddDate(0, 0, 2)
	_, err = svc.Evaluate(ctx, later)
	require.NoError(t, err)

	records, err := svc.ListAchievements(ctx)
	require.NoError(t, err)

	three := findByID(records, "streak_3")
	require.NotNil(t, three)
	assert.True(t, three.IsUnlocked)
	assert.Equal(t, float64(0), three.Progress)
	require.NotNil(t, three.UnlockedAt)
	assert.WithinDuration(t, now, *three.UnlockedAt, time.Second)
}

func TestComputeAggregatesWeekAndMonthWindows(t *testing.T) {
	now := time.Date(2026, 5, 13, 12, 0, 0, 0, time.UTC) // Wednesday

	entries := []models.FoodEntry{
		{Date: now, MealType: models.MealLunch},
		{Date: now.AddDate(0, 0, -2), MealType: models.MealLunch},   // Monday, same ISO week
		{Date: now.AddDate(0, 0, -4), MealType: models.MealLunch},   // Saturday, previous ISO week
		{Date: now.AddDate(0, 0, -20), MealType: models.MealDinner}, // April
	}

	agg := computeAggregates(entries, 2000, now)

	assert.Equal(t, 4, agg.totalMealCount)
	assert.Equal(t, 2, agg.mealsThisWeek)
	assert.Equal(t, 3, agg.mealsThisMonth)
}
