package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nutrilog/backend/config"
	"github.com/nutrilog/backend/internal/logger"
)

// FoodRecognition is the structured result of photo-based recognition.
type FoodRecognition struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// KeyProvider supplies the API key for the hosted chat-completion endpoint.
type KeyProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKeyProvider returns a fixed key from configuration.
type StaticKeyProvider string

// APIKey implements KeyProvider
func (p StaticKeyProvider) APIKey(ctx context.Context) (string, error) {
	if p == "" {
		return "", ErrKeyUnavailable
	}
	return string(p), nil
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// RecognitionService sends meal photos to a hosted vision-capable
// chat-completion API and parses the structured nutrition response.
type RecognitionService struct {
	apiURL string
	model  string
	keys   KeyProvider
	client *http.Client
}

var _ IRecognitionService = (*RecognitionService)(nil)

// NewRecognitionService creates a new RecognitionService instance
func NewRecognitionService(cfg *config.Config, keys KeyProvider) *RecognitionService {
	return &RecognitionService{
		apiURL: cfg.VisionAPIURL,
		model:  cfg.VisionModel,
		keys:   keys,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

const recognitionSystemPrompt = `You are a nutrition expert. Identify the food on the photo and estimate its nutrition for the depicted serving. Respond only with JSON like {"name":"","calories":0,"protein":0,"fat":0,"carbs":0}. The numeric fields must be numbers, not strings.`

// RecognizeFood sends the photo to the vision API and parses the nutrition
// JSON. A single attempt is made; the request is aborted when ctx is
// cancelled (e.g. the caller dismissed the view).
func (s *RecognitionService) RecognizeFood(ctx context.Context, photo []byte, language string) (*FoodRecognition, error) {
	if len(photo) == 0 {
		return nil, fmt.Errorf("%w: photo must not be empty", ErrValidation)
	}

	apiKey, err := s.keys.APIKey(ctx)
	if err != nil {
		return nil, err
	}

	prompt := "Identify this meal and estimate its nutrition."
	if language != "" {
		prompt += " Answer the name field in language: " + language
	}

	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: recognitionSystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(photo),
				}},
			}},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    0.2,
	}

	content, err := s.postChat(ctx, apiKey, s.model, &reqBody)
	if err != nil {
		return nil, err
	}

	var result FoodRecognition
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse recognition result: %w", err)
	}
	if result.Name == "" {
		return nil, fmt.Errorf("recognition returned no food name")
	}
	return &result, nil
}

// errRateLimited marks an HTTP 429 from the API so callers with fallback
// models can retry with the next one.
type errRateLimited struct{ model string }

func (e *errRateLimited) Error() string {
	return fmt.Sprintf("model %s rate limited (HTTP 429)", e.model)
}

func (s *RecognitionService) postChat(ctx context.Context, apiKey, model string, reqBody *chatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &errRateLimited{model: model}
	}
	if resp.StatusCode != http.StatusOK {
		logger.L().Warn("chat completion request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("model", model),
		)
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}
	return result.Choices[0].Message.Content, nil
}
