package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Store     StoreConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig
	GitHub    GitHubConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Host        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// StoreConfig holds artifact store settings
type StoreConfig struct {
	// Path of the embedded key-value database file
	KVPath string
	// Root directory of the on-disk binary blobs
	BinRoot string
}

// AuthConfig holds upload authentication settings
type AuthConfig struct {
	// Shared bearer token required by the upload endpoint
	APIToken string
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// GitHubConfig holds settings for populating from upstream releases
type GitHubConfig struct {
	APIBaseURL string
	Repository string
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Host:        getEnv("SERVER_HOST", "127.0.0.1"),
			Port:        getEnvInt("SERVER_PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"), // Default to text for development
		},
		Store: StoreConfig{
			KVPath:  getEnv("SVM_KV_PATH", "svm.db"),
			BinRoot: getEnv("SVM_BIN_ROOT", "bin"),
		},
		Auth: AuthConfig{
			APIToken: getEnv("API_TOKEN", ""),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
		GitHub: GitHubConfig{
			APIBaseURL: getEnv("GITHUB_API_URL", "https://api.github.com"),
			Repository: getEnv("GITHUB_REPOSITORY", "p2sr/SourceAutoRecord"),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Store.KVPath == "" {
		return fmt.Errorf("kv database path is required")
	}

	if c.Store.BinRoot == "" {
		return fmt.Errorf("binary root directory is required")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
