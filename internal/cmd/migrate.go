package cmd

import (
	"errors"

	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/database"
)

var errSQLiteRollback = errors.New("rollback is only supported on postgres")

type MigrateCmd struct {
	Up   MigrateUpCmd   `cmd:"" default:"1" help:"Apply all pending migrations"`
	Down MigrateDownCmd `cmd:"" help:"Roll back migrations"`
}

type MigrateUpCmd struct {
	ConfigFile string `default:".foodgram.toml" help:"Path to config file" short:"c"`
}

func (m *MigrateUpCmd) Run(cli *Context) error {
	cfg, logger, err := bootstrap(m.ConfigFile, cli.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // we don't care about logger sync errors

	if cfg.DB.Driver == "sqlite" {
		db, err := database.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer database.Close(db) //nolint:errcheck
		return database.RunMigrations(db, "", logger)
	}

	return database.MigrateUp(cfg.DB.DSN(), logger)
}

type MigrateDownCmd struct {
	ConfigFile string `default:".foodgram.toml" help:"Path to config file" short:"c"`
	Steps      int    `default:"1" help:"Number of migrations to roll back, 0 rolls back all"`
}

func (m *MigrateDownCmd) Run(cli *Context) error {
	cfg, logger, err := bootstrap(m.ConfigFile, cli.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // we don't care about logger sync errors

	if cfg.DB.Driver == "sqlite" {
		return errSQLiteRollback
	}

	if err := database.MigrateDown(cfg.DB.DSN(), m.Steps, logger); err != nil {
		logger.Error("error rolling back migrations", zap.Error(err))
		return err
	}
	return nil
}
