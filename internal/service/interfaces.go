package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/types"
)

// IProfileService defines the interface for user profile operations
type IProfileService interface {
	GetProfile(ctx context.Context) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, req *types.SaveProfileRequest) (*models.UserProfile, error)
	SetCalorieGoal(ctx context.Context, calories int) (*models.UserProfile, error)
	Resolve(ctx context.Context) ResolvedProfile
	WipeData(ctx context.Context) error
}

// IEntryService defines the interface for food entry operations
type IEntryService interface {
	CreateEntry(ctx context.Context, req *types.SaveEntryRequest) (*models.FoodEntry, error)
	GetEntry(ctx context.Context, id uuid.UUID) (*models.FoodEntry, error)
	ListEntries(ctx context.Context) ([]models.FoodEntry, error)
	ListEntriesByDateRange(ctx context.Context, start, end time.Time) ([]models.FoodEntry, error)
	UpdateEntry(ctx context.Context, id uuid.UUID, req *types.SaveEntryRequest) (*models.FoodEntry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	AttachPhoto(ctx context.Context, id uuid.UUID, data []byte, contentType string) (*models.FoodEntry, error)
}

// IGoalsService defines the interface for statistics operations
type IGoalsService interface {
	DailyStats(ctx context.Context, date time.Time) (*DayStats, error)
	Weekly(ctx context.Context, today time.Time) (*WeeklyStats, error)
	History(ctx context.Context) ([]models.DailyProgress, error)
}

// IAchievementService defines the interface for achievement operations
type IAchievementService interface {
	ListAchievements(ctx context.Context) ([]models.Achievement, error)
	Evaluate(ctx context.Context, now time.Time) ([]models.Achievement, error)
}

// IRecognitionService defines the interface for photo-based recognition
type IRecognitionService interface {
	RecognizeFood(ctx context.Context, photo []byte, language string) (*FoodRecognition, error)
}

// ISuggestionService defines the interface for recipe suggestions
type ISuggestionService interface {
	SuggestRecipe(ctx context.Context, ingredients []string, language string) (*RecipeSuggestion, error)
}
