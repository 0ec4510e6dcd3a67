package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaronsela1/productivity-bot/internal/config"
	userdomain "github.com/yaronsela1/productivity-bot/internal/domain/user"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Port:              "0",
		BaseURL:           "http://localhost:8080/",
		DBDriver:          "sqlite",
		DBPath:            filepath.Join(t.TempDir(), "bot.db"),
		DispatchTimeout:   time.Second,
		HTTPClientTimeout: time.Second,
		SessionTTL:        time.Hour,
	}
}

func TestNewContainer_SQLite(t *testing.T) {
	ctx := context.Background()
	c, err := NewContainer(ctx, testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	interval := userdomain.IntervalDaily
	require.NoError(t, c.UserRepo.SaveUser(ctx, "a@x.com", userdomain.UserConfigPatch{CheckInterval: &interval}))

	res, err := c.DispatchService.Run(ctx, "1d")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 0, res.Successful)
	assert.Equal(t, "skipped", string(res.Details[0].Status()))
}

func TestSecureCookies(t *testing.T) {
	assert.True(t, SecureCookies(config.Config{BaseURL: "https://bot.example"}))
	assert.False(t, SecureCookies(config.Config{BaseURL: "http://localhost:8080"}))
}
