package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nutrilog/backend/config"
	"github.com/nutrilog/backend/internal/api"
	"github.com/nutrilog/backend/internal/database"
	"github.com/nutrilog/backend/internal/logger"
	"github.com/nutrilog/backend/internal/middleware"
	"github.com/nutrilog/backend/internal/service"
)

// Services bundles everything the HTTP layer needs.
type Services struct {
	Profiles     service.IProfileService
	Entries      service.IEntryService
	Goals        service.IGoalsService
	Achievements service.IAchievementService
	Recognition  service.IRecognitionService
	Suggestions  service.ISuggestionService
}

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
}

// NewServer creates a new server instance with all routes registered.
// redisClient may be nil, in which case recognition is not rate limited.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, svcs Services) *Server {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.Recovery())

	// The mobile client ships its own origin, so the CORS policy stays
	// permissive. There are no cookies to protect.
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.HealthCheck(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	var limiter *middleware.RateLimiter
	if redisClient != nil {
		limiter = middleware.NewRecognitionRateLimiter(redisClient)
	}

	v1 := router.Group("/api/v1")
	api.NewProfileHandler(svcs.Profiles).RegisterRoutes(v1)
	api.NewEntryHandler(svcs.Entries, svcs.Achievements).RegisterRoutes(v1)
	api.NewStatsHandler(svcs.Goals).RegisterRoutes(v1)
	api.NewAchievementHandler(svcs.Achievements).RegisterRoutes(v1)
	api.NewRecognitionHandler(svcs.Recognition, svcs.Suggestions, limiter).RegisterRoutes(v1)

	return &Server{
		router: router,
		db:     db,
		http: &http.Server{
			Addr:              cfg.ServerHost + ":" + cfg.ServerPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	logger.L().Info("starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
