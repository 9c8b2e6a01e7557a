package config

import (
	"fmt"
	"os"
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

// requiredEnvVars defines the environment variables each environment must set.
// Development and test fall back to local defaults for everything, so nothing
// is strictly required there.
var requiredEnvVars = map[Environment][]string{
	Development: {},
	Test:        {},
	CI: {
		"DB_HOST",
		"DB_PORT",
		"DB_USER",
		"DB_PASSWORD",
		"DB_NAME",
		"REDIS_HOST",
		"REDIS_PORT",
	},
	Production: {
		"SERVER_PORT",
		"DB_HOST",
		"DB_PORT",
		"DB_USER",
		"DB_PASSWORD",
		"DB_NAME",
		"REDIS_HOST",
		"REDIS_PORT",
	},
}

// ValidateConfig checks if the configuration meets the requirements for the
// current environment.
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()

	var errors []string
	for _, envVar := range requiredEnvVars[env] {
		if value := os.Getenv(envVar); value == "" {
			errors = append(errors, fmt.Sprintf("required environment variable %s is not set", envVar))
		}
	}

	// The recognition flow needs either a static key or a remote key source.
	if env == Production && cfg.VisionAPIKey == "" && cfg.KeySheetURL == "" {
		errors = append(errors, "either VISION_API_KEY or KEY_SHEET_URL must be set in production")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
