package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nutrilog/backend/internal/middleware"
	"github.com/nutrilog/backend/internal/service"
)

// StatsHandler serves daily/weekly nutrition statistics.
type StatsHandler struct {
	goals service.IGoalsService
}

func NewStatsHandler(goals service.IGoalsService) *StatsHandler {
	return &StatsHandler{goals: goals}
}

func (h *StatsHandler) RegisterRoutes(router *gin.RouterGroup) {
	stats := router.Group("/stats")
	{
		stats.GET("/daily", h.Daily)
		stats.GET("/weekly", h.Weekly)
		stats.GET("/history", h.History)
	}
}

func (h *StatsHandler) Daily(c *gin.Context) {
	date := time.Now()
	if q := c.Query("date"); q != "" {
		parsed, err := time.ParseInLocation("2006-01-02", q, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	stats, err := h.goals.DailyStats(c.Request.Context(), date)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) Weekly(c *gin.Context) {
	stats, err := h.goals.Weekly(c.Request.Context(), time.Now())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) History(c *gin.Context) {
	history, err := h.goals.History(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
