package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/storage"
)

type ServeCmd struct {
	ConfigFile  string `default:".foodgram.toml" help:"Path to config file" short:"c"`
	SkipMigrate bool   `help:"Do not apply pending migrations on startup"`
	PublicRead  bool   `help:"Apply a public-read policy to the S3 bucket before serving"`
}

func (s *ServeCmd) Run(cli *Context) error {
	cfg, logger, err := bootstrap(s.ConfigFile, cli.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // we don't care about logger sync errors

	if !cli.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Error("error connecting to database", zap.Error(err))
		return err
	}

	if !s.SkipMigrate {
		if err := database.RunMigrations(db, cfg.DB.DSN(), logger); err != nil {
			logger.Error("error running migrations", zap.Error(err))
			_ = database.Close(db)
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			// recipe writes are served without rate limiting
			logger.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		}
	}

	release := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		_ = database.Close(db)
	}

	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Error("error configuring image storage", zap.Error(err))
		release()
		return err
	}

	if s.PublicRead && cfg.Storage.Backend == "s3" {
		if err := applyPublicRead(ctx, cfg.Storage); err != nil {
			logger.Error("error applying bucket policy", zap.String("bucket", cfg.Storage.S3Bucket), zap.Error(err))
			release()
			return err
		}
	}

	return server.New(cfg, db, redisClient, images, logger).Start(ctx)
}

func applyPublicRead(ctx context.Context, storageCfg config.Storage) error {
	s3Config, err := config.NewS3Config(ctx, storageCfg)
	if err != nil {
		return err
	}
	return s3Config.SetupBucketPolicy(ctx)
}
