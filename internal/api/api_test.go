package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/backend/internal/middleware"
	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/service"
	"github.com/nutrilog/backend/internal/testhelpers"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLiteDatabase(t)
	achievements := service.NewAchievementService(db)

	router := gin.New()
	router.Use(middleware.Recovery())

	v1 := router.Group("/api/v1")
	NewProfileHandler(service.NewProfileService(db)).RegisterRoutes(v1)
	NewEntryHandler(service.NewEntryService(db, nil), achievements).RegisterRoutes(v1)
	NewStatsHandler(service.NewGoalsService(db)).RegisterRoutes(v1)
	NewAchievementHandler(achievements).RegisterRoutes(v1)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func profileBody() map[string]interface{} {
	return map[string]interface{}{
		"name":           "Alex",
		"sex":            "male",
		"age":            30,
		"height_cm":      175,
		"weight_kg":      70,
		"activity_level": "medium",
		"goal":           "maintain",
	}
}

func entryBody(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":      name,
		"meal_type": "lunch",
		"products": []map[string]interface{}{
			{"name": "rice", "calories": 206, "protein": 4.3, "carbs": 44.5, "fat": 0.4},
			{"name": "chicken", "calories": 330, "protein": 40, "fat": 12},
		},
	}
}

func TestProfileEndpoints(t *testing.T) {
	router := setupRouter(t)

	t.Run("get before onboarding", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/profile", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("save derives targets", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/v1/profile", profileBody())
		require.Equal(t, http.StatusOK, w.Code)

		var profile models.UserProfile
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
		assert.Equal(t, 2473, profile.CalorieGoal)
		assert.Equal(t, float64(365), profile.CarbsGoal)
	})

	t.Run("invalid enum rejected", func(t *testing.T) {
		body := profileBody()
		body["goal"] = "bulk"
		w := doJSON(t, router, http.MethodPut, "/api/v1/profile", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("custom calorie goal", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/v1/profile/calorie-goal", map[string]int{"calories": 1800})
		require.Equal(t, http.StatusOK, w.Code)

		var profile models.UserProfile
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
		assert.Equal(t, 1800, profile.CalorieGoal)
		assert.True(t, profile.CustomCalorieGoal)
	})

	t.Run("wipe data", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, "/api/v1/data", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/v1/profile", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestEntryEndpoints(t *testing.T) {
	router := setupRouter(t)

	var entryID string

	t.Run("create returns entry and unlocks", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/entries", entryBody("Chicken bowl"))
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Entry    models.FoodEntry     `json:"entry"`
			Unlocked []models.Achievement `json:"unlocked"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.Equal(t, "Chicken bowl", resp.Entry.Name)
		assert.Equal(t, 536, resp.Entry.Calories)
		entryID = resp.Entry.ID.String()

		ids := make([]string, 0, len(resp.Unlocked))
		for _, a := range resp.Unlocked {
			ids = append(ids, a.ID)
		}
		assert.Contains(t, ids, "first_meal")
	})

	t.Run("create with invalid body", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/entries", map[string]string{"name": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create with empty products", func(t *testing.T) {
		body := entryBody("Empty")
		body["products"] = []map[string]interface{}{}
		w := doJSON(t, router, http.MethodPost, "/api/v1/entries", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get by id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/entries/"+entryID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var entry models.FoodEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
		assert.Len(t, entry.Products, 2)
	})

	t.Run("get with malformed id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/entries/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update", func(t *testing.T) {
		body := entryBody("Chicken bowl XL")
		w := doJSON(t, router, http.MethodPut, "/api/v1/entries/"+entryID, body)
		require.Equal(t, http.StatusOK, w.Code)

		var entry models.FoodEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
		assert.Equal(t, "Chicken bowl XL", entry.Name)
	})

	t.Run("list", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/entries", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var entries []models.FoodEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
		assert.Len(t, entries, 1)
	})

	t.Run("list with bad date range", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/entries?from=nope&to=2026-06-02", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list with half-specified range", func(t *testing.T) {
		// A lone bound must not silently fall back to the full list.
		w := doJSON(t, router, http.MethodGet, "/api/v1/entries?from=2026-06-01", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/v1/entries?to=2026-06-02", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, "/api/v1/entries/"+entryID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/v1/entries/"+entryID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// signingPhotoStore is a service.PhotoStore that signs deterministic URLs,
// standing in for S3 in handler tests.
type signingPhotoStore struct{}

func (signingPhotoStore) Upload(context.Context, string, []byte, string) error {
	return nil
}

func (signingPhotoStore) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://photos.example.com/" + objectKey + "?signed=1", nil
}

func TestEntryPhotoEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLiteDatabase(t)
	router := gin.New()
	v1 := router.Group("/api/v1")
	NewEntryHandler(service.NewEntryService(db, signingPhotoStore{}), service.NewAchievementService(db)).RegisterRoutes(v1)

	w := doJSON(t, router, http.MethodPost, "/api/v1/entries", entryBody("Chicken bowl"))
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Entry models.FoodEntry `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	entryID := created.Entry.ID.String()

	t.Run("upload returns signed url", func(t *testing.T) {
		body, contentType := multipartPhoto(t, "photo", []byte{0xff, 0xd8, 0xff})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/entries/"+entryID+"/photo", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var entry models.FoodEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
		assert.NotEmpty(t, entry.PhotoKey)
		assert.Equal(t, "https://photos.example.com/"+entry.PhotoKey+"?signed=1", entry.PhotoURL)
	})

	t.Run("get serves signed url", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/entries/"+entryID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var entry models.FoodEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
		assert.Contains(t, entry.PhotoURL, entry.PhotoKey)
	})

	t.Run("list serves signed urls", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/entries", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var entries []models.FoodEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
		require.Len(t, entries, 1)
		assert.NotEmpty(t, entries[0].PhotoURL)
	})
}

func TestStatsEndpoints(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/entries", entryBody("Lunch"))
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("daily", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/stats/daily", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var stats service.DayStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, 536, stats.Totals.Calories)
		assert.Equal(t, 1, stats.MealCount)
		assert.Equal(t, service.DefaultCalorieGoal, stats.Targets.CalorieGoal)
	})

	t.Run("daily with bad date", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/stats/daily?date=junk", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("weekly", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/stats/weekly", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var stats service.WeeklyStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		require.Len(t, stats.Days, 7)
		assert.Equal(t, 536, stats.TotalCalories)
	})

	t.Run("history", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/stats/history", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var history []models.DailyProgress
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
		assert.Len(t, history, 1)
	})
}

func TestAchievementEndpoints(t *testing.T) {
	router := setupRouter(t)

	t.Run("list seeds catalogue", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/achievements", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var records []models.Achievement
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
		assert.Len(t, records, 16)
	})

	t.Run("evaluate on empty store", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/achievements/evaluate", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Unlocked []models.Achievement `json:"unlocked"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Unlocked)
	})
}

// stubRecognition avoids any outbound call from handler tests.
type stubRecognition struct {
	result *service.FoodRecognition
	err    error
}

func (s *stubRecognition) RecognizeFood(ctx context.Context, photo []byte, language string) (*service.FoodRecognition, error) {
	return s.result, s.err
}

type stubSuggestions struct {
	suggestion *service.RecipeSuggestion
	err        error
}

func (s *stubSuggestions) SuggestRecipe(ctx context.Context, ingredients []string, language string) (*service.RecipeSuggestion, error) {
	return s.suggestion, s.err
}

func multipartPhoto(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile(field, "meal.jpg")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestRecognitionEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recognized := &service.FoodRecognition{Name: "Caesar salad", Calories: 320, Protein: 18, Fat: 22, Carbs: 12}
	handler := NewRecognitionHandler(
		&stubRecognition{result: recognized},
		&stubSuggestions{suggestion: &service.RecipeSuggestion{Title: "Tomato pasta"}},
		nil,
	)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))

	t.Run("recognize", func(t *testing.T) {
		body, contentType := multipartPhoto(t, "photo", []byte{0xff, 0xd8, 0xff})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recognize", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var result service.FoodRecognition
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "Caesar salad", result.Name)
	})

	t.Run("recognize without photo", func(t *testing.T) {
		body, contentType := multipartPhoto(t, "image", []byte{1})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recognize", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("suggest", func(t *testing.T) {
		payload, err := json.Marshal(map[string]interface{}{"ingredients": []string{"pasta", "tomato"}})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/suggest", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var suggestion service.RecipeSuggestion
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &suggestion))
		assert.Equal(t, "Tomato pasta", suggestion.Title)
	})

	t.Run("suggest without ingredients", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/suggest", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewRecognitionHandler(
		&stubRecognition{err: service.ErrKeyUnavailable},
		&stubSuggestions{err: fmt.Errorf("wrapped: %w", service.ErrValidation)},
		nil,
	)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))

	body, contentType := multipartPhoto(t, "photo", []byte{1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recognize", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	payload := []byte(`{"ingredients":["x"]}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/suggest", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
