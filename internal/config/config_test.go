package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-risk-inference-server/internal/domain"
)

func TestNewManager_Defaults(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.Scheduler.TickInterval)
	assert.Equal(t, 10, cfg.Scheduler.BatchSize)
	assert.Equal(t, time.Hour, cfg.Status.ActiveTTL)
	assert.Equal(t, 24*time.Hour, cfg.Status.CompletedTTL)
	assert.Equal(t, time.Hour, cfg.Status.FailedTTL)
	assert.Equal(t, 10*time.Second, cfg.Runtime.DefaultTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestNewManager_EnvironmentOverrides(t *testing.T) {
	os.Setenv("HEALTHRISK_SERVER_PORT", "9191")
	os.Setenv("HEALTHRISK_SCHEDULER_BATCH_SIZE", "25")
	os.Setenv("HEALTHRISK_LOGGING_LEVEL", "debug")
	defer func() {
		os.Unsetenv("HEALTHRISK_SERVER_PORT")
		os.Unsetenv("HEALTHRISK_SCHEDULER_BATCH_SIZE")
		os.Unsetenv("HEALTHRISK_LOGGING_LEVEL")
	}()

	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Scheduler.BatchSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestManager_Validate(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(cfg *domain.Config)
		wantErr bool
	}{
		{
			name:    "Defaults are valid",
			mutate:  func(*domain.Config) {},
			wantErr: false,
		},
		{
			name:    "Invalid port",
			mutate:  func(cfg *domain.Config) { cfg.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "Non-positive tick interval",
			mutate:  func(cfg *domain.Config) { cfg.Scheduler.TickInterval = 0 },
			wantErr: true,
		},
		{
			name:    "Non-positive batch size",
			mutate:  func(cfg *domain.Config) { cfg.Scheduler.BatchSize = -1 },
			wantErr: true,
		},
		{
			name: "No redis and no memory fallback",
			mutate: func(cfg *domain.Config) {
				cfg.Status.RedisURL = ""
				cfg.Status.MemoryFallback = false
			},
			wantErr: true,
		},
		{
			name: "No redis with memory fallback",
			mutate: func(cfg *domain.Config) {
				cfg.Status.RedisURL = ""
				cfg.Status.MemoryFallback = true
			},
			wantErr: false,
		},
		{
			name:    "Unknown disease key",
			mutate:  func(cfg *domain.Config) { cfg.Models.Diseases = []string{"hypertension"} },
			wantErr: true,
		},
		{
			name:    "Known disease keys",
			mutate:  func(cfg *domain.Config) { cfg.Models.Diseases = []string{"stroke", "diabetes_type2"} },
			wantErr: false,
		},
		{
			name:    "Invalid log level",
			mutate:  func(cfg *domain.Config) { cfg.Logging.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, manager.Reload())
			tt.mutate(manager.GetConfig())
			err := manager.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
