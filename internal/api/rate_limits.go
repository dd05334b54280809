package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
)

// RateLimitHandler reports how many recipe writes the caller has left
type RateLimitHandler struct {
	creationLimiter     *middleware.RateLimiter
	modificationLimiter *middleware.RateLimiter
}

func NewRateLimitHandler(creationLimiter, modificationLimiter *middleware.RateLimiter) *RateLimitHandler {
	return &RateLimitHandler{
		creationLimiter:     creationLimiter,
		modificationLimiter: modificationLimiter,
	}
}

func (h *RateLimitHandler) RegisterRoutes(router *gin.RouterGroup) {
	rateLimits := router.Group("/rate-limits")
	rateLimits.Use(middleware.RequireAuth())
	{
		rateLimits.GET("/recipe-creation", h.RecipeCreation)
		rateLimits.GET("/recipe-modification/:id", h.RecipeModification)
	}
}

func (h *RateLimitHandler) RecipeCreation(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	h.report(c, h.creationLimiter, fmt.Sprintf("%d", userID), nil)
}

func (h *RateLimitHandler) RecipeModification(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	recipeID, ok := pathID(c)
	if !ok {
		return
	}
	h.report(c, h.modificationLimiter, fmt.Sprintf("%d:%d", userID, recipeID), gin.H{"recipe_id": recipeID})
}

func (h *RateLimitHandler) report(c *gin.Context, limiter *middleware.RateLimiter, key string, extra gin.H) {
	remaining, resetTime, err := limiter.Remaining(c.Request.Context(), key)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"detail": "failed to check rate limit"})
		return
	}

	body := gin.H{
		"limit":      limiter.Limit(),
		"remaining":  remaining,
		"reset_time": resetTime.Unix(),
		"window":     limiter.Window().String(),
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}
