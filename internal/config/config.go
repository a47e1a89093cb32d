package config

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/qqewq/harmonized-mind/internal/errors"
	"github.com/qqewq/harmonized-mind/internal/resonance"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `validate:"required"`
	Server   ServerConfig   `validate:"required"`
	Admin    AdminConfig
	History  HistoryConfig
	Log      LogConfig

	// PolicyFile optionally overrides engine constants
	PolicyFile string
}

// DatabaseConfig holds history store connection settings
type DatabaseConfig struct {
	Driver string `validate:"required,oneof=sqlite postgres"`
	URL    string `validate:"required"`
}

// ServerConfig holds API server settings
type ServerConfig struct {
	Port           string        `validate:"required"`
	GinMode        string        `validate:"oneof=debug release test"`
	RequestTimeout time.Duration `validate:"gt=0"`
	RateLimitRPS   float64       `validate:"gt=0"`
	RateLimitBurst int           `validate:"gte=1"`
}

// AdminConfig holds the metrics/health/pprof listener settings
type AdminConfig struct {
	Port    string
	Enabled bool
}

// HistoryConfig toggles run persistence
type HistoryConfig struct {
	Enabled bool
}

// LogConfig selects logger verbosity and encoding
type LogConfig struct {
	Level  string
	Format string
}

// Defaults
const (
	DefaultDatabaseURL = "file:hre_history.db?_pragma=busy_timeout(5000)"
	DefaultPort        = "8080"
	DefaultAdminPort   = "6060"
)

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: *loadDatabaseConfig(),
		Server:   *loadServerConfig(),
		Admin:    *loadAdminConfig(),
		History:  HistoryConfig{Enabled: getEnvBoolOrDefault("HISTORY_ENABLED", true)},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "INFO"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		PolicyFile: os.Getenv("HRE_POLICY_FILE"),
	}

	if err := configValidator.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "configuration validation failed")
	}
	return config, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver: getEnvOrDefault("DB_DRIVER", "sqlite"),
		URL:    getEnvOrDefault("DATABASE_URL", DefaultDatabaseURL),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvOrDefault("PORT", DefaultPort),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 10*time.Second),
		RateLimitRPS:   getEnvFloatOrDefault("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvIntOrDefault("RATE_LIMIT_BURST", 40),
	}
}

func loadAdminConfig() *AdminConfig {
	return &AdminConfig{
		Port:    getEnvOrDefault("ADMIN_PORT", DefaultAdminPort),
		Enabled: getEnvBoolOrDefault("ADMIN_ENABLED", true),
	}
}

// LoadPolicy returns the default engine policy, overlaid with the YAML file at path when
// path is non-empty. Unknown keys are rejected so typos do not silently fall back.
func LoadPolicy(path string) (resonance.Policy, error) {
	policy := resonance.DefaultPolicy()
	if path == "" {
		return policy, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return policy, errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to read policy file %s", path)
	}
	return ParsePolicy(data)
}

// ParsePolicy overlays YAML onto the default policy and validates the result.
func ParsePolicy(data []byte) (resonance.Policy, error) {
	policy := resonance.DefaultPolicy()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&policy); err != nil && err != io.EOF {
		return policy, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to parse policy")
	}
	if err := policy.Validate(); err != nil {
		return policy, errors.Wrap(errors.ConfigInvalid(err.Error()), "policy validation failed")
	}
	return policy, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
