// Package config is the site-service configuration. Values come from
// config.yaml, .env and BIZSITES_* environment variables, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/md-rashed-zaman/bizsites/libs/config"
	"github.com/md-rashed-zaman/bizsites/libs/db"
	"github.com/md-rashed-zaman/bizsites/libs/httpx"
	otelx "github.com/md-rashed-zaman/bizsites/libs/otel"
	"github.com/md-rashed-zaman/bizsites/libs/runtime"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/slug"
)

const (
	ServiceName = "site-service"
	EnvPrefix   = "BIZSITES_"
)

type Config struct {
	HTTP struct {
		Addr            string        `koanf:"addr" validate:"required"`
		BodyLimitBytes  int64         `koanf:"body_limit_bytes" validate:"gt=0"`
		RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	} `koanf:"http"`

	GRPC struct {
		Addr string `koanf:"addr"`
	} `koanf:"grpc"`

	Database struct {
		URL         string     `koanf:"url" validate:"required"`
		AutoMigrate bool       `koanf:"auto_migrate"`
		Pool        db.Options `koanf:"pool"`
	} `koanf:"database"`

	Deployment slug.DeploymentConfig `koanf:"deployment"`

	Booking struct {
		Timezone string `koanf:"timezone" validate:"required"`
	} `koanf:"booking"`

	Auth struct {
		JWTSecret     string        `koanf:"jwt_secret" validate:"required,min=16"`
		Issuer        string        `koanf:"issuer"`
		TokenTTL      time.Duration `koanf:"token_ttl" validate:"gt=0"`
		AdminEmail    string        `koanf:"admin_email" validate:"omitempty,email"`
		AdminPassword string        `koanf:"admin_password" validate:"required_with=AdminEmail"`
	} `koanf:"auth"`

	RateLimit struct {
		Backend  string        `koanf:"backend" validate:"oneof=memory redis"`
		FailOpen bool          `koanf:"fail_open"`
		Window   time.Duration `koanf:"window" validate:"gt=0"`
		Check    int           `koanf:"check" validate:"gt=0"`
		Book     int           `koanf:"book" validate:"gt=0"`
	} `koanf:"rate_limit"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Outbox struct {
		Enabled   bool          `koanf:"enabled"`
		Brokers   []string      `koanf:"brokers"`
		PollEvery time.Duration `koanf:"poll_every"`
		BatchSize int           `koanf:"batch_size"`
	} `koanf:"outbox"`

	CORS  httpx.CORSPolicy   `koanf:"cors"`
	Log   runtime.LogOptions `koanf:"log"`
	Trace otelx.Config       `koanf:"trace"`
}

// Default returns a development-ready configuration.
func Default() Config {
	var c Config
	c.HTTP.Addr = ":8080"
	c.HTTP.BodyLimitBytes = 1 << 20
	c.HTTP.RequestTimeout = 15 * time.Second
	c.HTTP.ShutdownTimeout = 10 * time.Second
	c.GRPC.Addr = ":9090"
	c.Database.AutoMigrate = true
	c.Deployment = slug.DeploymentConfig{IsDevelopment: true, Port: 8080}
	c.Booking.Timezone = "UTC"
	c.Auth.Issuer = "bizsites"
	c.Auth.TokenTTL = 24 * time.Hour
	c.RateLimit.Backend = "memory"
	c.RateLimit.FailOpen = true
	c.RateLimit.Window = time.Minute
	c.RateLimit.Check = 30
	c.RateLimit.Book = 10
	c.Outbox.PollEvery = 2 * time.Second
	c.Outbox.BatchSize = 100
	c.Log.Level = "info"
	c.Trace = otelx.DefaultConfig(ServiceName)
	return c
}

// Load reads configuration. CONFIG_FILE overrides the YAML path.
func Load() (Config, error) {
	c := Default()
	yamlFile := os.Getenv("CONFIG_FILE")
	if yamlFile == "" {
		yamlFile = "config.yaml"
	}
	if err := config.Load(config.Source{EnvPrefix: EnvPrefix, DotEnv: ".env", YAMLFile: yamlFile}, &c); err != nil {
		return Config{}, err
	}
	if err := c.check(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// check covers rules that span sections, which struct tags cannot express.
func (c Config) check() error {
	if c.RateLimit.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("invalid config: redis.addr is required when rate_limit.backend is redis")
	}
	if c.Outbox.Enabled && len(c.Outbox.Brokers) == 0 {
		return fmt.Errorf("invalid config: outbox.brokers is required when outbox.enabled is set")
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("invalid config: booking.timezone: %w", err)
	}
	return nil
}

// Location is the booking wall-clock zone. check has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
