package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// Dependencies are the shared resources the handlers are built from
type Dependencies struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Images  storage.ImageStore
	Metrics *metrics.Metrics
	Config  *config.Config
	Logger  *zap.Logger
}

// HealthCheck reports whether the database answers
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.HealthCheck(ctx, db); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "ok"})
	}
}

// RegisterRoutes builds the services and registers every API route. A nil
// Redis client disables rate limiting.
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	useJSONFieldNames()
	cfg := deps.Config

	router.GET("/health", HealthCheck(deps.DB))
	router.GET("/api/health", HealthCheck(deps.DB))

	var recipeCreationLimiter, recipeModificationLimiter *middleware.RateLimiter
	if deps.Redis != nil {
		recipeCreationLimiter = middleware.NewRecipeCreationRateLimiter(deps.Redis, cfg.RateLimit, deps.Logger)
		recipeModificationLimiter = middleware.NewRecipeModificationRateLimiter(deps.Redis, cfg.RateLimit, deps.Logger)
	} else {
		deps.Logger.Warn("redis is not configured, recipe writes are not rate limited")
	}

	authService := service.NewAuthService(deps.DB, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, deps.Logger)
	recipeService := service.NewRecipeService(deps.DB, deps.Images, deps.Logger)

	authHandler := NewAuthHandler(authService)
	catalogHandler := NewCatalogHandler(service.NewCatalogService(deps.DB))
	recipeHandler := NewRecipeHandlerWithRateLimit(
		recipeService,
		service.NewBookmarkService(deps.DB, deps.Logger),
		service.NewShoppingListService(deps.DB),
		deps.Metrics,
		cfg.Server.PublicURL,
		cfg.Pagination.PageSize,
		recipeCreationLimiter,
		recipeModificationLimiter,
	)
	userHandler := NewUserHandler(
		authService,
		service.NewUserService(deps.DB, deps.Images, deps.Logger),
		service.NewSubscriptionService(deps.DB, deps.Logger),
		deps.Metrics,
		cfg.Server.PublicURL,
		cfg.Pagination.PageSize,
	)
	shortLinkHandler := NewShortLinkHandler(recipeService, cfg.Server.PublicURL)

	router.Use(middleware.Authenticate(authService), middleware.RequireActiveUser(deps.DB, deps.Logger))

	shortLinkHandler.RegisterRoutes(router.Group(""))

	v1 := router.Group("/api")
	authHandler.RegisterRoutes(v1)
	catalogHandler.RegisterRoutes(v1)
	recipeHandler.RegisterRoutes(v1)
	userHandler.RegisterRoutes(v1)

	if recipeCreationLimiter != nil {
		NewRateLimitHandler(recipeCreationLimiter, recipeModificationLimiter).RegisterRoutes(v1)
	}
}

// pathID parses the :id path parameter; anything but a positive integer is
// answered with 404
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		notFound(c)
		return 0, false
	}
	return uint(id), true
}
