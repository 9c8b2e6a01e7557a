package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nutrilog/backend/internal/middleware"
	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/service"
)

// AchievementHandler serves the achievement list and evaluation trigger.
type AchievementHandler struct {
	achievements service.IAchievementService
}

func NewAchievementHandler(achievements service.IAchievementService) *AchievementHandler {
	return &AchievementHandler{achievements: achievements}
}

func (h *AchievementHandler) RegisterRoutes(router *gin.RouterGroup) {
	achievements := router.Group("/achievements")
	{
		achievements.GET("", h.List)
		achievements.POST("/evaluate", h.Evaluate)
	}
}

func (h *AchievementHandler) List(c *gin.Context) {
	records, err := h.achievements.ListAchievements(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AchievementHandler) Evaluate(c *gin.Context) {
	unlocked, err := h.achievements.Evaluate(c.Request.Context(), time.Now())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	if unlocked == nil {
		unlocked = []models.Achievement{}
	}
	c.JSON(http.StatusOK, gin.H{"unlocked": unlocked})
}
