package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/types"
)

// ProfileService handles the singleton user profile
type ProfileService struct {
	db *gorm.DB
}

var _ IProfileService = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService instance
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetProfile retrieves the user profile
func (s *ProfileService) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile creates or replaces the user profile and recomputes the
// derived targets from the biometric fields. A previously set custom
// calorie goal is discarded by the recompute.
func (s *ProfileService) SaveProfile(ctx context.Context, req *types.SaveProfileRequest) (*models.UserProfile, error) {
	resolved, err := resolveBiometrics(req)
	if err != nil {
		return nil, err
	}
	targets := DeriveTargets(resolved)

	var profile models.UserProfile
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&profile).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			profile = models.UserProfile{}
		}

		profile.Name = req.Name
		profile.Sex = resolved.Sex
		profile.Age = resolved.Age
		profile.HeightCm = resolved.HeightCm
		profile.WeightKg = resolved.WeightKg
		profile.ActivityLevel = resolved.ActivityLevel
		profile.Goal = resolved.Goal
		profile.CalorieGoal = targets.CalorieGoal
		profile.ProteinGoal = targets.ProteinGoal
		profile.CarbsGoal = targets.CarbsGoal
		profile.FatGoal = targets.FatGoal
		profile.CustomCalorieGoal = false

		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return &profile, nil
}

// SetCalorieGoal overrides the derived calorie goal with an explicit user
// value. Macro targets are refitted to the new budget: protein and fat stay
// weight-based, carbs absorb the difference. The override persists until
// the next profile save recomputes everything.
func (s *ProfileService) SetCalorieGoal(ctx context.Context, calories int) (*models.UserProfile, error) {
	if calories <= 0 {
		return nil, fmt.Errorf("%w: calorie goal must be positive", ErrValidation)
	}

	var profile models.UserProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return err
		}

		profile.CalorieGoal = calories
		profile.CustomCalorieGoal = true
		carbKcal := math.Max(0, float64(calories)-profile.ProteinGoal*4-profile.FatGoal*9)
		profile.CarbsGoal = math.Round(carbKcal / 4)

		return tx.Save(&profile).Error
	})
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to set calorie goal: %w", err)
	}
	return &profile, nil
}

// Resolve produces the resolved profile snapshot used by the aggregator and
// the evaluator. When no profile exists, defaults are returned.
func (s *ProfileService) Resolve(ctx context.Context) ResolvedProfile {
	profile, err := s.GetProfile(ctx)
	if err != nil {
		return defaultResolvedProfile()
	}
	return ResolvedProfile{
		Sex:           profile.Sex,
		Age:           profile.Age,
		HeightCm:      profile.HeightCm,
		WeightKg:      profile.WeightKg,
		ActivityLevel: profile.ActivityLevel,
		Goal:          profile.Goal,
	}
}

// WipeData removes all persisted state: profile, entries, products,
// achievements and daily snapshots, in one transaction.
func (s *ProfileService) WipeData(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.FoodProduct{},
			&models.FoodEntry{},
			&models.Achievement{},
			&models.DailyProgress{},
			&models.UserProfile{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to wipe data: %w", err)
	}
	return nil
}

func defaultResolvedProfile() ResolvedProfile {
	return ResolvedProfile{
		Sex:           models.SexFemale,
		Age:           DefaultAge,
		HeightCm:      DefaultHeightCm,
		WeightKg:      DefaultWeightKg,
		ActivityLevel: models.ActivityMedium,
		Goal:          models.GoalMaintain,
	}
}

// resolveBiometrics applies fail-closed defaulting to the raw request:
// out-of-range numbers are coerced to documented defaults rather than
// rejected, while enum fields must be valid.
func resolveBiometrics(req *types.SaveProfileRequest) (ResolvedProfile, error) {
	if !req.Sex.Valid() {
		return ResolvedProfile{}, fmt.Errorf("%w: unknown sex %q", ErrValidation, req.Sex)
	}
	if !req.ActivityLevel.Valid() {
		return ResolvedProfile{}, fmt.Errorf("%w: unknown activity level %q", ErrValidation, req.ActivityLevel)
	}
	if !req.Goal.Valid() {
		return ResolvedProfile{}, fmt.Errorf("%w: unknown goal %q", ErrValidation, req.Goal)
	}

	resolved := ResolvedProfile{
		Sex:           req.Sex,
		Age:           req.Age,
		HeightCm:      req.HeightCm,
		WeightKg:      req.WeightKg,
		ActivityLevel: req.ActivityLevel,
		Goal:          req.Goal,
	}
	if resolved.Age <= 0 || resolved.Age > 130 {
		resolved.Age = DefaultAge
	}
	if resolved.HeightCm <= 0 {
		resolved.HeightCm = DefaultHeightCm
	}
	if resolved.WeightKg <= 0 {
		resolved.WeightKg = DefaultWeightKg
	}
	return resolved, nil
}
