package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrStorageProviderUnknown indicates an unsupported storage binding.
var ErrStorageProviderUnknown = errors.New("approvals config: storage provider is invalid")

// ErrCacheTTLInvalid ensures cache TTLs stay zero or positive.
var ErrCacheTTLInvalid = errors.New("approvals config: cache TTL must be zero or positive")

// ErrPublishDelayInvalid ensures the publish delay stays zero or positive.
var ErrPublishDelayInvalid = errors.New("approvals config: publish delay must be zero or positive")

// ErrScheduleRequiresScheduling ensures delayed publication only configures when scheduling is enabled.
var ErrScheduleRequiresScheduling = errors.New("approvals config: publish delay requires the scheduling feature to be enabled")

var ErrLoggingProviderRequired = errors.New("approvals config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("approvals config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("approvals config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("approvals config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the approvals module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled  bool
	Storage  StorageConfig
	Cache    CacheConfig
	Schedule ScheduleConfig
	Commands CommandsConfig
	Features Features
	Logging  LoggingConfig
}

// StorageConfig lists identifiers for storage-related dependencies.
type StorageConfig struct {
	Provider string
}

// CacheConfig captures read-cache behaviour for group and node lookups.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// ScheduleConfig captures publication scheduling policy.
type ScheduleConfig struct {
	// PublishDelay is applied between final approval and publication when a
	// submission carries no explicit date.
	PublishDelay time.Duration
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled bool
}

// Features toggles module functionality.
type Features struct {
	Scheduling bool
	Activity   bool
	Logger     bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns opinionated defaults for embedding the module.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Storage: StorageConfig{
			Provider: "bun",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		Schedule: ScheduleConfig{},
		Features: Features{
			Scheduling: true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if provider := normalizeProvider(cfg.Storage.Provider); provider != "" && !isSupportedStorage(provider) {
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, provider)
	}
	if cfg.Cache.DefaultTTL < 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Schedule.PublishDelay < 0 {
		return ErrPublishDelayInvalid
	}
	if cfg.Schedule.PublishDelay > 0 && !cfg.Features.Scheduling {
		return ErrScheduleRequiresScheduling
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedStorage(provider string) bool {
	switch provider {
	case "bun", "memory":
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
