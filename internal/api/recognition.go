package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nutrilog/backend/internal/middleware"
	"github.com/nutrilog/backend/internal/service"
	"github.com/nutrilog/backend/internal/types"
)

// RecognitionHandler serves photo-based food recognition and recipe
// suggestions.
type RecognitionHandler struct {
	recognition service.IRecognitionService
	suggestions service.ISuggestionService
	limiter     *middleware.RateLimiter
}

func NewRecognitionHandler(recognition service.IRecognitionService, suggestions service.ISuggestionService, limiter *middleware.RateLimiter) *RecognitionHandler {
	return &RecognitionHandler{
		recognition: recognition,
		suggestions: suggestions,
		limiter:     limiter,
	}
}

func (h *RecognitionHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("")
	if h.limiter != nil {
		group.Use(h.limiter.RateLimitMiddleware())
	}
	group.POST("/recognize", h.Recognize)
	group.POST("/suggest", h.Suggest)
}

func (h *RecognitionHandler) Recognize(c *gin.Context) {
	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read photo"})
		return
	}
	if len(data) > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo too large"})
		return
	}

	// The request context aborts the upstream call when the client
	// disconnects before the vision API responds.
	result, err := h.recognition.RecognizeFood(c.Request.Context(), data, c.PostForm("language"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RecognitionHandler) Suggest(c *gin.Context) {
	var req types.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	suggestion, err := h.suggestions.SuggestRecipe(c.Request.Context(), req.Ingredients, req.Language)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}
