package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`

	DBDriver   string `envconfig:"DB_DRIVER" default:"sqlite"` // sqlite|mysql
	DBPath     string `envconfig:"DB_PATH" default:"./data/productivity-bot.db"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"3306"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"productivity_bot"`

	CronSecret          string        `envconfig:"CRON_SECRET"`
	SchedulerEnabled    bool          `envconfig:"SCHEDULER_ENABLED" default:"false"`
	DispatchConcurrency int           `envconfig:"DISPATCH_CONCURRENCY" default:"0"` // 0 = unbounded
	DispatchTimeout     time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"30s"`
	HTTPClientTimeout   time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"15s"`
	SessionTTL          time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	// ServerWriteTimeout bounds a whole /api/cron response. With a capped
	// concurrency a run takes up to ceil(users/cap)*DISPATCH_TIMEOUT, so raise
	// it together with DISPATCH_CONCURRENCY. Zero disables the limit.
	ServerWriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"5m"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"` // json|text
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or mysql, got %q", c.DBDriver)
	}
	if c.DispatchConcurrency < 0 {
		return fmt.Errorf("DISPATCH_CONCURRENCY must not be negative")
	}
	if c.ServerWriteTimeout < 0 {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT must not be negative")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("BASE_URL must start with http:// or https://")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// BaseURLTrimmed returns BaseURL without a trailing slash.
func (c Config) BaseURLTrimmed() string {
	return strings.TrimRight(c.BaseURL, "/")
}
