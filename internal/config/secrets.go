package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// ConfigurationError reports a missing or invalid setting that prevents a run
// from starting.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
}

// LoadAPIKey returns the classifier credential. The env file named in the
// config is searched for from dir upward and loaded without overriding
// variables that are already set.
func LoadAPIKey(cfg *Config, dir string) (string, error) {
	name := cfg.Classifier.APIKeyEnv
	if name == "" {
		return "", &ConfigurationError{Key: "classifier.api_key_env", Reason: "not set"}
	}

	if cfg.Classifier.EnvFile != "" {
		if path, ok := findUpward(dir, cfg.Classifier.EnvFile); ok {
			if err := godotenv.Load(path); err != nil {
				return "", fmt.Errorf("loading %s: %w", path, err)
			}
		}
	}

	key := strings.TrimSpace(os.Getenv(name))
	if key == "" {
		return "", &ConfigurationError{
			Key:    name,
			Reason: fmt.Sprintf("environment variable is empty; set it or add it to %s", cfg.Classifier.EnvFile),
		}
	}
	return key, nil
}

// IsConfigurationError reports whether err is or wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var cerr *ConfigurationError
	return errors.As(err, &cerr)
}

func findUpward(dir, name string) (string, bool) {
	if filepath.IsAbs(name) {
		_, err := os.Stat(name)
		return name, err == nil
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
