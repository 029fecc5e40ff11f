package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Status    StatusConfig    `mapstructure:"status"`
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Models    ModelsConfig    `mapstructure:"models"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

// SchedulerConfig controls the coordinator's batch scheduler.
type SchedulerConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

// StatusConfig controls the status store and its per-state TTLs.
type StatusConfig struct {
	RedisURL     string        `mapstructure:"redis_url"`
	ActiveTTL    time.Duration `mapstructure:"active_ttl"`
	CompletedTTL time.Duration `mapstructure:"completed_ttl"`
	FailedTTL    time.Duration `mapstructure:"failed_ttl"`
	// MemoryFallback selects the in-memory store when no redis is
	// configured (development and tests).
	MemoryFallback bool `mapstructure:"memory_fallback"`
	MemoryMaxSize  int  `mapstructure:"memory_max_size"`
}

// RuntimeConfig points at the out-of-process model runtime.
type RuntimeConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	BreakerMaxReqs uint32        `mapstructure:"breaker_max_requests"`
	BreakerTimeout time.Duration `mapstructure:"breaker_timeout"`
}

// ModelsConfig is the load-time model configuration. The per-disease
// weights are configuration data, not core logic; clinical correctness
// is owned by whoever produces them.
type ModelsConfig struct {
	// NativeWeightDir holds per-disease weight files for the in-process
	// linear tensor backend. Empty disables the native strategy.
	NativeWeightDir string `mapstructure:"native_weight_dir"`
	// EnsembleWeights overrides the built-in ensemble weight table.
	EnsembleWeights map[string]float64 `mapstructure:"ensemble_weights"`
	// Diseases restricts loading to a subset; empty loads all supported.
	Diseases []string `mapstructure:"diseases"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
