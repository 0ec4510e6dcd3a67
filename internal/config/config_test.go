package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test. envconfig only applies
// defaults to variables that are not set at all.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "PORT", "BASE_URL", "DB_DRIVER", "DISPATCH_CONCURRENCY",
		"DISPATCH_TIMEOUT", "SESSION_TTL", "SCHEDULER_ENABLED", "SERVER_WRITE_TIMEOUT")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 0, cfg.DispatchConcurrency)
	assert.Equal(t, 30*time.Second, cfg.DispatchTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ServerWriteTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.SchedulerEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BASE_URL", "https://bot.example.com/")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("CRON_SECRET", "s3cret")
	t.Setenv("SCHEDULER_ENABLED", "true")
	t.Setenv("DISPATCH_CONCURRENCY", "4")
	t.Setenv("DISPATCH_TIMEOUT", "5s")
	t.Setenv("SERVER_WRITE_TIMEOUT", "20m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "https://bot.example.com", cfg.BaseURLTrimmed())
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "s3cret", cfg.CronSecret)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, 4, cfg.DispatchConcurrency)
	assert.Equal(t, 5*time.Second, cfg.DispatchTimeout)
	assert.Equal(t, 20*time.Minute, cfg.ServerWriteTimeout)
}

func TestValidate(t *testing.T) {
	base := Config{DBDriver: "sqlite", BaseURL: "http://localhost:8080"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown driver", func(c *Config) { c.DBDriver = "postgres" }, true},
		{"negative concurrency", func(c *Config) { c.DispatchConcurrency = -1 }, true},
		{"negative write timeout", func(c *Config) { c.ServerWriteTimeout = -time.Second }, true},
		{"unbounded write timeout", func(c *Config) { c.ServerWriteTimeout = 0 }, false},
		{"base url without scheme", func(c *Config) { c.BaseURL = "localhost:8080" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
