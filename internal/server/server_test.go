package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/backend/config"
	"github.com/nutrilog/backend/internal/service"
	"github.com/nutrilog/backend/internal/testhelpers"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db := testhelpers.SetupSQLiteDatabase(t)

	cfg := &config.Config{
		ServerHost: "localhost",
		ServerPort: "8080",
	}
	achievements := service.NewAchievementService(db)
	keys := service.StaticKeyProvider("test-key")

	return NewServer(cfg, db, nil, Services{
		Profiles:     service.NewProfileService(db),
		Entries:      service.NewEntryService(db, nil),
		Goals:        service.NewGoalsService(db),
		Achievements: achievements,
		Recognition:  service.NewRecognitionService(&config.Config{VisionAPIURL: "http://unused.invalid"}, keys),
		Suggestions:  service.NewSuggestionService(&config.Config{VisionAPIURL: "http://unused.invalid"}, keys),
	})
}

func TestServerHealth(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestServerRoutesRegistered(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/achievements", nil)
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
