package config

import (
	"strings"
	"time"

	"github.com/grote/lazylist/pkg/listing"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Provider-specific defaults are handled by the provider factories
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyClientDefaults(&cfg.Client)
	applyProviderDefaults(&cfg.Provider)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyClientDefaults sets listing client defaults.
func applyClientDefaults(cfg *ClientConfig) {
	if cfg.WaitTimeout == 0 {
		cfg.WaitTimeout = listing.DefaultWaitTimeout
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Second
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 1000
	}
}

// applyProviderDefaults sets provider defaults.
func applyProviderDefaults(cfg *ProviderConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
}
