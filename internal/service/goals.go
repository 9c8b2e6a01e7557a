package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nutrilog/backend/internal/models"
)

// Defaults used when no profile exists or a biometric value is unusable.
const (
	DefaultCalorieGoal = 2000
	DefaultProteinGoal = 150
	DefaultCarbsGoal   = 250
	DefaultFatGoal     = 67

	DefaultWeightKg = 70
	DefaultHeightCm = 170
	DefaultAge      = 30
)

// activityFactors maps activity level to its TDEE multiplier. The factor
// set must stay monotonically increasing with activity level.
var activityFactors = map[models.ActivityLevel]float64{
	models.ActivityLow:    1.2,
	models.ActivityMedium: 1.5,
	models.ActivityHigh:   1.75,
}

// goalMultipliers adjusts the calorie goal for the user's weight goal.
var goalMultipliers = map[models.Goal]float64{
	models.GoalLose:     0.8,
	models.GoalMaintain: 1.0,
	models.GoalGain:     1.15,
}

// ResolvedProfile carries guaranteed-present biometric fields, produced once
// at read time with defaults already applied. Downstream code never deals
// with missing or malformed values.
type ResolvedProfile struct {
	Sex           models.Sex
	Age           int
	HeightCm      float64
	WeightKg      float64
	ActivityLevel models.ActivityLevel
	Goal          models.Goal
}

// Targets are the derived daily nutrition targets. Calories are kcal,
// macros are whole grams.
type Targets struct {
	CalorieGoal int     `json:"calorie_goal"`
	ProteinGoal float64 `json:"protein_goal"`
	CarbsGoal   float64 `json:"carbs_goal"`
	FatGoal     float64 `json:"fat_goal"`
}

// DayTotals are realized nutrient sums for one calendar day.
type DayTotals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// DayStats is one day's totals with progress against the current targets.
type DayStats struct {
	Date      string    `json:"date"`
	Totals    DayTotals `json:"totals"`
	Targets   Targets   `json:"targets"`
	MealCount int       `json:"meal_count"`

	CalorieProgress float64 `json:"calorie_progress"`
	ProteinProgress float64 `json:"protein_progress"`
	CarbsProgress   float64 `json:"carbs_progress"`
	FatProgress     float64 `json:"fat_progress"`
}

// WeeklyStats is the per-day breakdown for the 7 days ending today plus
// period totals and averages.
type WeeklyStats struct {
	Days []DayStats `json:"days"`

	TotalCalories int     `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
	TotalCarbs    float64 `json:"total_carbs"`
	TotalFat      float64 `json:"total_fat"`

	// Averages divide by exactly 7: days without entries count as zero.
	AvgCalories float64 `json:"avg_calories"`
	AvgProtein  float64 `json:"avg_protein"`
	AvgCarbs    float64 `json:"avg_carbs"`
	AvgFat      float64 `json:"avg_fat"`
}

// BMR computes the Mifflin-St Jeor basal metabolic rate.
func BMR(p ResolvedProfile) float64 {
	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Sex == models.SexMale {
		return bmr + 5
	}
	return bmr - 161
}

// DeriveTargets derives the daily nutrition targets from biometric inputs.
// Pure and idempotent: identical inputs always yield identical outputs.
func DeriveTargets(p ResolvedProfile) Targets {
	factor, ok := activityFactors[p.ActivityLevel]
	if !ok {
		factor = activityFactors[models.ActivityMedium]
	}
	mult, ok := goalMultipliers[p.Goal]
	if !ok {
		mult = goalMultipliers[models.GoalMaintain]
	}

	tdee := BMR(p) * factor
	calorieGoal := int(math.Round(tdee * mult))
	proteinGoal := math.Round(math.Max(60, p.WeightKg*1.6))
	fatGoal := math.Round(math.Max(40, p.WeightKg*0.9))

	// Carbs fill the calorie budget left after protein (4 kcal/g) and fat
	// (9 kcal/g); clamped to zero when protein and fat already exceed it.
	carbKcal := math.Max(0, float64(calorieGoal)-proteinGoal*4-fatGoal*9)
	carbGoal := math.Round(carbKcal / 4)

	return Targets{
		CalorieGoal: calorieGoal,
		ProteinGoal: proteinGoal,
		CarbsGoal:   carbGoal,
		FatGoal:     fatGoal,
	}
}

// DefaultTargets are used whenever no profile exists.
func DefaultTargets() Targets {
	return Targets{
		CalorieGoal: DefaultCalorieGoal,
		ProteinGoal: DefaultProteinGoal,
		CarbsGoal:   DefaultCarbsGoal,
		FatGoal:     DefaultFatGoal,
	}
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// TotalsForDate sums all entry totals whose date falls within the calendar
// day of date. The empty sum is returned when no entries match.
func TotalsForDate(entries []models.FoodEntry, date time.Time) DayTotals {
	start := startOfDay(date)
	end := start.AddDate(0, 0, 1)

	var totals DayTotals
	for i := range entries {
		d := entries[i].Date
		if (d.Equal(start) || d.After(start)) && d.Before(end) {
			totals.Calories += entries[i].Calories
			totals.Protein += entries[i].Protein
			totals.Carbs += entries[i].Carbs
			totals.Fat += entries[i].Fat
		}
	}
	return totals
}

// Progress returns total/goal, or 0 when the goal is not positive.
func Progress(total, goal float64) float64 {
	if goal > 0 {
		return total / goal
	}
	return 0
}

// GoalsService computes daily and weekly statistics from the entry store
// and the resolved profile.
type GoalsService struct {
	db *gorm.DB
}

var _ IGoalsService = (*GoalsService)(nil)

// NewGoalsService creates a new GoalsService instance
func NewGoalsService(db *gorm.DB) *GoalsService {
	return &GoalsService{db: db}
}

func (s *GoalsService) currentTargets(ctx context.Context) Targets {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).First(&profile).Error; err != nil {
		return DefaultTargets()
	}
	return Targets{
		CalorieGoal: profile.CalorieGoal,
		ProteinGoal: profile.ProteinGoal,
		CarbsGoal:   profile.CarbsGoal,
		FatGoal:     profile.FatGoal,
	}
}

func (s *GoalsService) entriesForRange(ctx context.Context, start, end time.Time) ([]models.FoodEntry, error) {
	var entries []models.FoodEntry
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date < ?", start, end).
		Order("date asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	return entries, nil
}

func dayStats(entries []models.FoodEntry, date time.Time, targets Targets) DayStats {
	totals := TotalsForDate(entries, date)

	count := 0
	start := startOfDay(date)
	end := start.AddDate(0, 0, 1)
	for i := range entries {
		d := entries[i].Date
		if (d.Equal(start) || d.After(start)) && d.Before(end) {
			count++
		}
	}

	return DayStats{
		Date:            start.Format("2006-01-02"),
		Totals:          totals,
		Targets:         targets,
		MealCount:       count,
		CalorieProgress: Progress(float64(totals.Calories), float64(targets.CalorieGoal)),
		ProteinProgress: Progress(totals.Protein, targets.ProteinGoal),
		CarbsProgress:   Progress(totals.Carbs, targets.CarbsGoal),
		FatProgress:     Progress(totals.Fat, targets.FatGoal),
	}
}

// DailyStats computes realized totals and progress for one calendar day and
// snapshots the result into the daily progress table.
func (s *GoalsService) DailyStats(ctx context.Context, date time.Time) (*DayStats, error) {
	start := startOfDay(date)
	entries, err := s.entriesForRange(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	targets := s.currentTargets(ctx)
	stats := dayStats(entries, date, targets)

	// Map-based Assign so zero totals still overwrite a stale snapshot.
	var row models.DailyProgress
	err = s.db.WithContext(ctx).
		Where("date = ?", datatypes.Date(start)).
		Assign(map[string]interface{}{
			"date":       datatypes.Date(start),
			"calories":   stats.Totals.Calories,
			"protein":    stats.Totals.Protein,
			"carbs":      stats.Totals.Carbs,
			"fat":        stats.Totals.Fat,
			"meal_count": stats.MealCount,
			"goal_met":   stats.Totals.Calories >= targets.CalorieGoal,
		}).
		FirstOrCreate(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot daily progress: %w", err)
	}

	return &stats, nil
}

// Weekly computes the per-day breakdown for the 7 days ending today.
func (s *GoalsService) Weekly(ctx context.Context, today time.Time) (*WeeklyStats, error) {
	// Calendar arithmetic, not hour arithmetic, so that a DST transition
	// inside the week keeps the range aligned with the day buckets below.
	base := startOfDay(today)
	start := base.AddDate(0, 0, -6)
	end := base.AddDate(0, 0, 1)

	entries, err := s.entriesForRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	targets := s.currentTargets(ctx)

	stats := &WeeklyStats{Days: make([]DayStats, 0, 7)}
	for offset := 6; offset >= 0; offset-- {
		day := startOfDay(today).AddDate(0, 0, -offset)
		ds := dayStats(entries, day, targets)
		stats.Days = append(stats.Days, ds)

		stats.TotalCalories += ds.Totals.Calories
		stats.TotalProtein += ds.Totals.Protein
		stats.TotalCarbs += ds.Totals.Carbs
		stats.TotalFat += ds.Totals.Fat
	}

	// Always divide by 7: zero-entry days count as zero in the average.
	stats.AvgCalories = float64(stats.TotalCalories) / 7
	stats.AvgProtein = stats.TotalProtein / 7
	stats.AvgCarbs = stats.TotalCarbs / 7
	stats.AvgFat = stats.TotalFat / 7

	return stats, nil
}

// History returns all persisted daily progress snapshots, newest first.
func (s *GoalsService) History(ctx context.Context) ([]models.DailyProgress, error) {
	var snapshots []models.DailyProgress
	err := s.db.WithContext(ctx).Order("date desc").Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load daily progress history: %w", err)
	}
	return snapshots, nil
}
