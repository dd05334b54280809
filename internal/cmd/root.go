package cmd

import (
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logging"
)

type Context struct {
	Debug bool
}

// bootstrap loads the configuration with a throwaway development logger, then
// builds the process logger from the configured level
func bootstrap(configFile string, debug bool) (*config.Config, *zap.Logger, error) {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.DisableStacktrace = true
	bootLogger, _ := logConfig.Build()
	defer bootLogger.Sync() //nolint:errcheck // we don't care about logger sync errors

	cfg, err := config.LoadConfig(configFile, bootLogger)
	if err != nil {
		bootLogger.Error("error loading config", zap.Error(err))
		return nil, nil, err
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}

	logger, err := logging.New(level, config.GetEnvironment())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
