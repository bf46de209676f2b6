// Package config loads and validates the lazylist configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete lazylist configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (LAZYLIST_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Provider Configuration Pattern:
// Each provider implementation defines its own configuration shape. The
// Config struct carries type-specific sections and only the section
// matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Client contains listing client settings
	Client ClientConfig `mapstructure:"client"`

	// Provider specifies the listing provider type and type-specific
	// configuration
	Provider ProviderConfig `mapstructure:"provider"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ClientConfig contains listing client settings.
type ClientConfig struct {
	// WaitTimeout bounds each readiness wait
	WaitTimeout time.Duration `mapstructure:"wait_timeout" validate:"required,gt=0"`

	// Cache configures the listing cache decorator
	Cache CacheConfig `mapstructure:"cache"`
}

// CacheConfig configures the listing cache decorator.
type CacheConfig struct {
	// Enabled controls whether listing caching is active
	Enabled bool `mapstructure:"enabled"`

	// TTL is how long cached listings remain valid
	TTL time.Duration `mapstructure:"ttl"`

	// MaxEntries limits the cache size (LRU eviction)
	MaxEntries int `mapstructure:"max_entries" validate:"gte=0"`
}

// ProviderConfig specifies provider configuration.
//
// The Type field determines which provider implementation is used. Only
// the corresponding type-specific section is decoded.
type ProviderConfig struct {
	// Type specifies which provider implementation to use
	// Valid values: memory, s3
	Type string `mapstructure:"type" validate:"required,oneof=memory s3"`

	// Memory contains memory-provider configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// S3 contains S3-provider configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses the default
//     location under the user config directory)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variables and config file lookup.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the LAZYLIST_ prefix and underscores
	// Example: LAZYLIST_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("LAZYLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Missing config file is acceptable - defaults apply
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "lazylist")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "lazylist")
}
