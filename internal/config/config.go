package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/health-risk-inference-server/internal/domain"
)

// Manager loads and validates application configuration using Viper.
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/health-risk-inference-server/")

	viper.SetEnvPrefix("HEALTHRISK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.rate_limit", 50.0)
	viper.SetDefault("server.rate_burst", 100)

	// Scheduler defaults
	viper.SetDefault("scheduler.tick_interval", "100ms")
	viper.SetDefault("scheduler.batch_size", 10)

	// Status store defaults
	viper.SetDefault("status.redis_url", "redis://localhost:6379")
	viper.SetDefault("status.active_ttl", "1h")
	viper.SetDefault("status.completed_ttl", "24h")
	viper.SetDefault("status.failed_ttl", "1h")
	viper.SetDefault("status.memory_fallback", false)
	viper.SetDefault("status.memory_max_size", 4096)

	// External model runtime defaults
	viper.SetDefault("runtime.base_url", "")
	viper.SetDefault("runtime.default_timeout", "10s")
	viper.SetDefault("runtime.breaker_max_requests", 3)
	viper.SetDefault("runtime.breaker_timeout", "30s")

	// Model loading defaults
	viper.SetDefault("models.native_weight_dir", "")
	viper.SetDefault("models.diseases", []string{})

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetSchedulerConfig returns batch scheduler configuration
func (m *Manager) GetSchedulerConfig() *domain.SchedulerConfig {
	return &m.config.Scheduler
}

// GetStatusConfig returns status store configuration
func (m *Manager) GetStatusConfig() *domain.StatusConfig {
	return &m.config.Status
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("scheduler tick interval must be positive: %v", config.Scheduler.TickInterval)
	}
	if config.Scheduler.BatchSize <= 0 {
		return fmt.Errorf("scheduler batch size must be positive: %d", config.Scheduler.BatchSize)
	}

	if !config.Status.MemoryFallback && config.Status.RedisURL == "" {
		return fmt.Errorf("status store requires a redis URL or memory_fallback enabled")
	}
	if config.Status.ActiveTTL <= 0 || config.Status.CompletedTTL <= 0 || config.Status.FailedTTL <= 0 {
		return fmt.Errorf("status TTLs must be positive")
	}

	for _, d := range config.Models.Diseases {
		if !domain.DiseaseKey(d).IsValid() {
			return fmt.Errorf("unknown disease key in models.diseases: %s", d)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// GetRedisConnectionString returns the Redis connection string
func (m *Manager) GetRedisConnectionString() string {
	return m.config.Status.RedisURL
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(viper.GetString("environment")) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(viper.GetString("environment"))
	return env == "development" || env == "dev" || env == ""
}
