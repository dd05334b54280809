package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// Server represents the HTTP server and the resources it owns
type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	redis  *redis.Client
	cfg    *config.Config
	logger *zap.Logger
}

// New builds the router. The server takes ownership of db and redisClient,
// which may be nil, and closes them on Stop.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images storage.ImageStore, logger *zap.Logger) *Server {
	engine := router.SetupRouter(api.Dependencies{
		DB:      db,
		Redis:   redisClient,
		Images:  images,
		Metrics: metrics.New(),
		Config:  cfg,
		Logger:  logger,
	})

	return &Server{
		router: engine,
		db:     db,
		redis:  redisClient,
		cfg:    cfg,
		logger: logger,
	}
}

// Router exposes the handler for in-process tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return multierr.Append(err, s.closeResources())
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}

// Stop gracefully stops the HTTP server and releases the database and redis
// connections
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = multierr.Append(err, s.http.Shutdown(ctx))
	}
	return multierr.Append(err, s.closeResources())
}

func (s *Server) closeResources() error {
	var err error
	if s.redis != nil {
		err = multierr.Append(err, s.redis.Close())
	}
	if s.db != nil {
		err = multierr.Append(err, database.Close(s.db))
	}
	return err
}
