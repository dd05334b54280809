package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// SetupRouter configures the global middleware, media and metrics endpoints
// and the application routes
func SetupRouter(deps api.Dependencies) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestLogger(deps.Logger, deps.Metrics),
		middleware.Recovery(deps.Logger),
		middleware.CORS(deps.Config.Server.AllowedOrigins),
	)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))

	// uploads written to local disk are served by the API itself; S3 URLs are absolute
	if local, ok := deps.Images.(*storage.LocalStore); ok {
		router.Static(deps.Config.Storage.MediaURL, local.Dir())
	}

	api.RegisterRoutes(router, deps)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Страница не найдена."})
	})

	return router
}
