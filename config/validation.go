package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requirement checks a single setting and returns the error it raises, if any
type requirement func(cfg *Config) *ValidationError

var (
	requireJWTSecret = func(cfg *Config) *ValidationError {
		if cfg.Auth.JWTSecret == "" {
			return &ValidationError{Field: "Auth.JWTSecret", Message: "jwt_secret secret or FOODGRAM_AUTH_JWTSECRET is required"}
		}
		return nil
	}

	requireDBPassword = func(cfg *Config) *ValidationError {
		if cfg.DB.Driver == "postgres" && cfg.DB.Password == "" {
			return &ValidationError{Field: "DB.Password", Message: "db_password secret or FOODGRAM_DB_PASSWORD is required"}
		}
		return nil
	}

	requireKnownDriver = func(cfg *Config) *ValidationError {
		switch cfg.DB.Driver {
		case "postgres", "sqlite":
			return nil
		}
		return &ValidationError{Field: "DB.Driver", Message: fmt.Sprintf("unsupported driver %q", cfg.DB.Driver)}
	}

	requireStorageBackend = func(cfg *Config) *ValidationError {
		switch cfg.Storage.Backend {
		case "local":
			return nil
		case "s3":
			if cfg.Storage.S3Bucket == "" {
				return &ValidationError{Field: "Storage.S3Bucket", Message: "bucket is required for the s3 backend"}
			}
			return nil
		}
		return &ValidationError{Field: "Storage.Backend", Message: fmt.Sprintf("unsupported backend %q", cfg.Storage.Backend)}
	}

	requirePageSize = func(cfg *Config) *ValidationError {
		if cfg.Pagination.PageSize < 1 {
			return &ValidationError{Field: "Pagination.PageSize", Message: "must be at least 1"}
		}
		return nil
	}
)

// Environment-specific requirements
var requirements = map[Environment][]requirement{
	Development: {requireKnownDriver, requireStorageBackend, requirePageSize},
	Test:        {requireKnownDriver, requireStorageBackend, requirePageSize},
	CI:          {requireKnownDriver, requireStorageBackend, requirePageSize, requireJWTSecret},
	Production:  {requireKnownDriver, requireStorageBackend, requirePageSize, requireJWTSecret, requireDBPassword},
}

const devJWTSecret = "insecure-development-secret"

// ValidateConfig checks if the configuration meets the requirements for the given environment
func ValidateConfig(cfg *Config, env Environment) error {
	reqs, ok := requirements[env]
	if !ok {
		return fmt.Errorf("%w: unknown environment: %s", ErrConfiguration, env)
	}

	var errs []string
	for _, req := range reqs {
		if verr := req(cfg); verr != nil {
			errs = append(errs, verr.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n%s", ErrConfiguration, strings.Join(errs, "\n"))
	}

	// Local environments may run without a configured signing key
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = devJWTSecret
	}

	return nil
}
