package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nutrilog/backend/internal/logger"
	"github.com/nutrilog/backend/internal/models"
)

// achievementDef is one catalogue entry: id, presentation metadata, target
// and how its progress is read off the shared aggregates.
type achievementDef struct {
	ID       string
	Title    string
	Detail   string
	Icon     string
	Color    string
	Target   float64
	Progress func(a *entryAggregates) float64
}

func boolProgress(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// catalogue is the fixed list of unlockable milestones. Order is stable so
// seeding and listing are deterministic.
var catalogue = []achievementDef{
	{ID: "first_meal", Title: "First Bite", Detail: "Log your first meal", Icon: "fork.knife", Color: "green", Target: 1,
		Progress: func(a *entryAggregates) float64 { return float64(a.totalMealCount) }},
	{ID: "five_meals", Title: "Getting Started", Detail: "Log 5 meals", Icon: "list.bullet", Color: "green", Target: 5,
		Progress: func(a *entryAggregates) float64 { return float64(a.totalMealCount) }},
	{ID: "twenty_meals", Title: "Regular", Detail: "Log 20 meals", Icon: "list.bullet.rectangle", Color: "teal", Target: 20,
		Progress: func(a *entryAggregates) float64 { return float64(a.totalMealCount) }},
	{ID: "hundred_meals", Title: "Centurion", Detail: "Log 100 meals", Icon: "trophy", Color: "gold", Target: 100,
		Progress: func(a *entryAggregates) float64 { return float64(a.totalMealCount) }},
	{ID: "photo_entry", Title: "Say Cheese", Detail: "Log a meal with a photo", Icon: "camera", Color: "blue", Target: 1,
		Progress: func(a *entryAggregates) float64 { return boolProgress(a.hasPhoto) }},
	{ID: "healthy_snacks", Title: "Snack Attack", Detail: "Log 10 snacks", Icon: "carrot", Color: "orange", Target: 10,
		Progress: func(a *entryAggregates) float64 { return float64(a.snackCount) }},
	{ID: "breakfast_early", Title: "Early Bird", Detail: "Log a breakfast before 8:00", Icon: "sunrise", Color: "yellow", Target: 1,
		Progress: func(a *entryAggregates) float64 { return boolProgress(a.earlyBreakfast) }},
	{ID: "dinner_late", Title: "Night Owl", Detail: "Log a dinner after 21:00", Icon: "moon.stars", Color: "indigo", Target: 1,
		Progress: func(a *entryAggregates) float64 { return boolProgress(a.lateDinner) }},
	{ID: "streak_3", Title: "Three in a Row", Detail: "Log meals 3 days in a row", Icon: "flame", Color: "orange", Target: 3,
		Progress: func(a *entryAggregates) float64 { return float64(a.currentStreak) }},
	{ID: "streak_7", Title: "Full Week", Detail: "Log meals 7 days in a row", Icon: "flame.fill", Color: "red", Target: 7,
		Progress: func(a *entryAggregates) float64 { return float64(a.currentStreak) }},
	{ID: "goal_day", Title: "On Target", Detail: "Reach your calorie goal today", Icon: "target", Color: "green", Target: 1,
		Progress: func(a *entryAggregates) float64 { return boolProgress(a.todayGoalMet) }},
	{ID: "goal_week_4", Title: "Consistent", Detail: "Reach your calorie goal 4 days this week", Icon: "calendar", Color: "teal", Target: 4,
		Progress: func(a *entryAggregates) float64 { return float64(a.goalDaysThisWeek) }},
	{ID: "protein_100", Title: "Protein Power", Detail: "Eat 100g of protein in one day", Icon: "bolt", Color: "purple", Target: 100,
		Progress: func(a *entryAggregates) float64 { return a.todayProtein }},
	{ID: "veggie_day", Title: "Variety Day", Detail: "Log 5 different products in one day", Icon: "leaf", Color: "green", Target: 5,
		Progress: func(a *entryAggregates) float64 { return float64(a.todayDistinctProducts) }},
	{ID: "week_30_meals", Title: "Busy Week", Detail: "Log 30 meals in one week", Icon: "chart.bar", Color: "blue", Target: 30,
		Progress: func(a *entryAggregates) float64 { return float64(a.mealsThisWeek) }},
	{ID: "month_100_meals", Title: "Marathon Month", Detail: "Log 100 meals in one month", Icon: "crown", Color: "gold", Target: 100,
		Progress: func(a *entryAggregates) float64 { return float64(a.mealsThisMonth) }},
}

// entryAggregates are the intermediate values shared across all predicates,
// computed in a single pass over the history.
type entryAggregates struct {
	totalMealCount        int
	currentStreak         int
	todayProtein          float64
	todayDistinctProducts int
	hasPhoto              bool
	earlyBreakfast        bool
	lateDinner            bool
	snackCount            int
	todayGoalMet          bool
	goalDaysThisWeek      int
	mealsThisWeek         int
	mealsThisMonth        int
}

const dayKeyFormat = "2006-01-02"

// computeAggregates scans the full history once. now anchors "today", the
// current ISO week and the current month.
func computeAggregates(entries []models.FoodEntry, calorieGoal int, now time.Time) *entryAggregates {
	agg := &entryAggregates{totalMealCount: len(entries)}

	todayKey := now.Format(dayKeyFormat)
	isoYear, isoWeek := now.ISOWeek()

	daysWithEntries := make(map[string]bool)
	caloriesByDay := make(map[string]int)
	todayProducts := make(map[string]bool)

	for i := range entries {
		e := &entries[i]
		key := e.Date.Format(dayKeyFormat)
		daysWithEntries[key] = true
		caloriesByDay[key] += e.Calories

		if e.HasPhoto() {
			agg.hasPhoto = true
		}
		switch e.MealType {
		case models.MealBreakfast:
			if e.Date.Hour() < 8 {
				agg.earlyBreakfast = true
			}
		case models.MealDinner:
			if e.Date.Hour() >= 21 {
				agg.lateDinner = true
			}
		case models.MealSnack:
			agg.snackCount++
		}

		if key == todayKey {
			agg.todayProtein += e.Protein
			for j := range e.Products {
				todayProducts[strings.ToLower(e.Products[j].Name)] = true
			}
		}

		y, w := e.Date.ISOWeek()
		if y == isoYear && w == isoWeek {
			agg.mealsThisWeek++
		}
		if e.Date.Year() == now.Year() && e.Date.Month() == now.Month() {
			agg.mealsThisMonth++
		}
	}
	agg.todayDistinctProducts = len(todayProducts)

	// Streak walks backward from today and stops at the first gap. A day
	// without an entry today means the streak is zero.
	for day := now; daysWithEntries[day.Format(dayKeyFormat)]; day = day.AddDate(0, 0, -1) {
		agg.currentStreak++
	}

	for key, calories := range caloriesByDay {
		if calories < calorieGoal {
			continue
		}
		if key == todayKey {
			agg.todayGoalMet = true
		}
		day, err := time.ParseInLocation(dayKeyFormat, key, now.Location())
		if err != nil {
			continue
		}
		if y, w := day.ISOWeek(); y == isoYear && w == isoWeek {
			agg.goalDaysThisWeek++
		}
	}

	return agg
}

// AchievementService evaluates the catalogue against the entry history and
// persists unlock state transitions.
type AchievementService struct {
	db *gorm.DB

	// Guards the read-evaluate-write cycle: the HTTP trigger and the
	// scheduled trigger must not interleave or updates get lost.
	mu sync.Mutex
}

var _ IAchievementService = (*AchievementService)(nil)

// NewAchievementService creates a new AchievementService instance
func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{db: db}
}

// ListAchievements returns all achievement records in catalogue order,
// seeding the catalogue first when the store is empty.
func (s *AchievementService) ListAchievements(ctx context.Context) ([]models.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.seed(ctx, s.db.WithContext(ctx)); err != nil {
		return nil, err
	}

	stored := make(map[string]models.Achievement)
	var records []models.Achievement
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}
	for _, r := range records {
		stored[r.ID] = r
	}

	ordered := make([]models.Achievement, 0, len(catalogue))
	for _, def := range catalogue {
		if r, ok := stored[def.ID]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered, nil
}

// Evaluate runs every catalogue predicate against the full entry history
// and the current calorie goal, updates persisted progress, flips unlock
// flags monotonically and returns the records that transitioned to unlocked
// in this pass. Re-running with unchanged data returns an empty slice.
func (s *AchievementService) Evaluate(ctx context.Context, now time.Time) ([]models.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newlyUnlocked []models.Achievement

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.seed(ctx, tx); err != nil {
			return err
		}

		var entries []models.FoodEntry
		if err := tx.Preload("Products").Order("date asc").Find(&entries).Error; err != nil {
			return fmt.Errorf("failed to load entry history: %w", err)
		}

		calorieGoal := DefaultCalorieGoal
		var profile models.UserProfile
		if err := tx.First(&profile).Error; err == nil {
			calorieGoal = profile.CalorieGoal
		}

		agg := computeAggregates(entries, calorieGoal, now)

		var records []models.Achievement
		if err := tx.Find(&records).Error; err != nil {
			return fmt.Errorf("failed to load achievements: %w", err)
		}
		byID := make(map[string]*models.Achievement, len(records))
		for i := range records {
			byID[records[i].ID] = &records[i]
		}

		for _, def := range catalogue {
			record, ok := byID[def.ID]
			if !ok {
				continue
			}

			record.Progress = def.Progress(agg)
			record.Target = def.Target

			// Unlocks are monotonic: a record never reverts, even when
			// current progress has fallen below the target again.
			if !record.IsUnlocked && record.Progress >= def.Target {
				record.IsUnlocked = true
				unlockedAt := now
				record.UnlockedAt = &unlockedAt
				newlyUnlocked = append(newlyUnlocked, *record)
			}

			if err := tx.Save(record).Error; err != nil {
				return fmt.Errorf("failed to save achievement %s: %w", def.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		// Achievement tracking is non-critical; the caller decides what to
		// do, but nothing crashes and no partial state is committed.
		return nil, fmt.Errorf("achievement evaluation failed: %w", err)
	}

	if len(newlyUnlocked) > 0 {
		ids := make([]string, 0, len(newlyUnlocked))
		for _, a := range newlyUnlocked {
			ids = append(ids, a.ID)
		}
		logger.L().Info("achievements unlocked", zap.Strings("ids", ids))
	}
	return newlyUnlocked, nil
}

// seed inserts the catalogue when the achievements table is empty. Running
// it repeatedly never creates duplicates.
func (s *AchievementService) seed(ctx context.Context, tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&models.Achievement{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count achievements: %w", err)
	}
	if count > 0 {
		return nil
	}

	records := make([]models.Achievement, 0, len(catalogue))
	for _, def := range catalogue {
		records = append(records, models.Achievement{
			ID:     def.ID,
			Title:  def.Title,
			Detail: def.Detail,
			Icon:   def.Icon,
			Color:  def.Color,
			Target: def.Target,
		})
	}
	if err := tx.Create(&records).Error; err != nil {
		return fmt.Errorf("failed to seed achievement catalogue: %w", err)
	}
	logger.L().Info("seeded achievement catalogue", zap.Int("count", len(records)))
	return nil
}
