package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nutrilog/backend/config"
	"github.com/nutrilog/backend/internal/logger"
)

// RecipeSuggestion is a generated recipe for a list of ingredients.
type RecipeSuggestion struct {
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Steps        []string `json:"steps"`
	NutritionTip string   `json:"nutrition_tip"`
}

// SuggestionService generates recipe suggestions from ingredient lists via
// the hosted chat-completion API. On a rate limit it falls back to the
// configured alternate models before giving up.
type SuggestionService struct {
	chat   *RecognitionService
	models []string
	keys   KeyProvider
}

var _ ISuggestionService = (*SuggestionService)(nil)

// NewSuggestionService creates a new SuggestionService instance. The model
// list is the primary model followed by up to two fallbacks.
func NewSuggestionService(cfg *config.Config, keys KeyProvider) *SuggestionService {
	models := append([]string{cfg.VisionModel}, cfg.FallbackModels...)
	if len(models) > 3 {
		models = models[:3]
	}
	return &SuggestionService{
		chat: &RecognitionService{
			apiURL: cfg.VisionAPIURL,
			keys:   keys,
			client: &http.Client{Timeout: 60 * time.Second},
		},
		models: models,
		keys:   keys,
	}
}

const suggestionSystemPrompt = `You are a professional chef and nutritionist. Suggest one recipe using the given ingredients. Respond only with JSON like {"title":"","ingredients":[],"steps":[],"nutrition_tip":""}.`

// SuggestRecipe asks the API for a recipe. Models are tried in order; only
// an HTTP 429 moves on to the next model, any other failure is final.
func (s *SuggestionService) SuggestRecipe(ctx context.Context, ingredients []string, language string) (*RecipeSuggestion, error) {
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("%w: ingredient list must not be empty", ErrValidation)
	}

	apiKey, err := s.keys.APIKey(ctx)
	if err != nil {
		return nil, err
	}

	prompt := "Suggest a recipe using: " + strings.Join(ingredients, ", ")
	if language != "" {
		prompt += ". Answer in language: " + language
	}

	var lastErr error
	for _, model := range s.models {
		reqBody := chatRequest{
			Model: model,
			Messages: []chatMessage{
				{Role: "system", Content: suggestionSystemPrompt},
				{Role: "user", Content: prompt},
			},
			ResponseFormat: map[string]string{"type": "json_object"},
			Temperature:    0.7,
		}

		content, err := s.chat.postChat(ctx, apiKey, model, &reqBody)
		if err != nil {
			var rl *errRateLimited
			if errors.As(err, &rl) {
				logger.L().Warn("model rate limited, trying fallback", zap.String("model", model))
				lastErr = err
				continue
			}
			return nil, err
		}

		var suggestion RecipeSuggestion
		if err := json.Unmarshal([]byte(content), &suggestion); err != nil {
			return nil, fmt.Errorf("failed to parse suggestion: %w", err)
		}
		return &suggestion, nil
	}

	return nil, fmt.Errorf("all models rate limited: %w", lastErr)
}
