package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kkyr/fig"
	"go.uber.org/zap"
)

// Server holds HTTP listener settings
type Server struct {
	Host            string        `default:"0.0.0.0"`
	Port            int           `default:"8080"`
	PublicURL       string        `default:"http://localhost:8080"`
	ShutdownTimeout time.Duration `default:"5s"`
	AllowedOrigins  []string      `default:"[http://localhost:3000]"`
}

// Addr returns the host:port pair the server listens on
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DB holds relational store settings. Driver is either postgres or sqlite.
type DB struct {
	Driver             string `default:"postgres"`
	Host               string `default:"localhost"`
	Port               int    `default:"5432"`
	User               string `default:"postgres"`
	Password           string
	Name               string `default:"foodgram"`
	SSLMode            string `default:"disable"`
	Path               string `default:"foodgram.db"`
	MaxIdleConnections int    `default:"10"`
	MaxOpenConnections int    `default:"10"`
}

// DSN renders the postgres connection string
func (d DB) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Redis holds the rate limiter backend settings. Leaving both URL and Host
// empty disables rate limiting.
type Redis struct {
	URL      string
	Host     string
	Port     int `default:"6379"`
	Password string
	DB       int
}

// Enabled reports whether a redis endpoint is configured
func (r Redis) Enabled() bool {
	return r.URL != "" || r.Host != ""
}

type Auth struct {
	JWTSecret string
	TokenTTL  time.Duration `default:"24h"`
}

// Storage selects where uploaded recipe images and avatars are written
type Storage struct {
	Backend  string `default:"local"`
	LocalDir string `default:"media"`
	MediaURL string `default:"/media"`
	S3Bucket string
	S3Region string
}

type Pagination struct {
	PageSize int `default:"6"`
}

type RateLimit struct {
	Window      time.Duration `default:"1h"`
	CreateLimit int           `default:"5"`
	ModifyLimit int           `default:"10"`
}

type Log struct {
	Level string `default:"info"`
}

// Config holds all configuration for the application
type Config struct {
	Server     Server
	DB         DB
	Redis      Redis
	Auth       Auth
	Storage    Storage
	Pagination Pagination
	RateLimit  RateLimit
	Log        Log
}

const envPrefix = "FOODGRAM"

const defaultSecretsDir = "/run/secrets"

var ErrConfiguration = errors.New("configuration error")

// LoadConfig reads the config file (if any), applies FOODGRAM_* environment
// overrides and fills missing credentials from Docker secrets.
func LoadConfig(configFileName string, logger *zap.Logger) (*Config, error) {
	env := GetEnvironment()

	if env == Development || env == Test {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("could not load .env file", zap.Error(err))
		}
	}

	cfg := Config{}
	homeDir, _ := os.UserHomeDir()

	logger.Info("Loading config", zap.String("file", configFileName), zap.String("env", string(env)))

	err := fig.Load(&cfg, fig.File(configFileName), fig.Dirs(".", homeDir), fig.UseEnv(envPrefix))
	if err != nil {
		if configFileName == "" || strings.Contains(err.Error(), "file not found") {
			if configFileName != "" {
				logger.Warn("Could not find config file", zap.String("file", configFileName))
			}

			err = fig.Load(&cfg, fig.IgnoreFile(), fig.UseEnv(envPrefix))
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	applySecrets(&cfg)

	if err := ValidateConfig(&cfg, env); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applySecrets fills credentials that were not provided by file or env
func applySecrets(cfg *Config) {
	if cfg.DB.Password == "" {
		cfg.DB.Password = readSecret("db_password")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = readSecret("jwt_secret")
	}
	if cfg.Redis.Password == "" {
		cfg.Redis.Password = readSecret("redis_password")
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = defaultSecretsDir
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
