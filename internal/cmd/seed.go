package cmd

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/seed"
)

type SeedCmd struct {
	ConfigFile   string `default:".foodgram.toml" help:"Path to config file" short:"c"`
	Tags         string `default:"data/tags.json" help:"JSON file with tags, empty to skip"`
	Ingredients  string `default:"data/ingredients.json" help:"JSON file with ingredients, empty to skip"`
	DemoUsers    bool   `help:"Create demo accounts"`
	DemoPassword string `default:"foodgram-demo" env:"FOODGRAM_DEMO_PASSWORD" help:"Password for the demo accounts"`
}

func (s *SeedCmd) Run(cli *Context) error {
	cfg, logger, err := bootstrap(s.ConfigFile, cli.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // we don't care about logger sync errors

	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Error("error connecting to database", zap.Error(err))
		return err
	}
	defer database.Close(db) //nolint:errcheck

	ctx := context.Background()

	if s.Tags != "" {
		if err := importFile(s.Tags, func(f *os.File) error {
			_, err := seed.ImportTags(ctx, db, f, logger)
			return err
		}); err != nil {
			return err
		}
	}

	if s.Ingredients != "" {
		if err := importFile(s.Ingredients, func(f *os.File) error {
			_, err := seed.ImportIngredients(ctx, db, f, logger)
			return err
		}); err != nil {
			return err
		}
	}

	if s.DemoUsers {
		return createDemoUsers(ctx, db, s.DemoPassword, logger)
	}
	return nil
}

func importFile(path string, load func(*os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return load(f)
}

func createDemoUsers(ctx context.Context, db *gorm.DB, password string, logger *zap.Logger) error {
	created, err := seed.CreateDemoUsers(ctx, db, password, logger)
	if err != nil {
		return err
	}
	logger.Info("Demo users ready", zap.Int("created", created), zap.Int("total", len(seed.DemoUsers)))
	return nil
}
