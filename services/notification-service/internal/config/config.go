// Package config is the notification-service configuration, layered the same
// way as the site-service but under the NOTIFY_ prefix.
package config

import (
	"os"

	"github.com/md-rashed-zaman/bizsites/libs/config"
	"github.com/md-rashed-zaman/bizsites/libs/db"
	"github.com/md-rashed-zaman/bizsites/libs/kafkax"
	otelx "github.com/md-rashed-zaman/bizsites/libs/otel"
	"github.com/md-rashed-zaman/bizsites/libs/runtime"
	"github.com/md-rashed-zaman/bizsites/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/bizsites/services/notification-service/internal/sms"
)

const (
	ServiceName = "notification-service"
	EnvPrefix   = "NOTIFY_"
)

type Config struct {
	HTTP struct {
		Addr string `koanf:"addr" validate:"required"`
	} `koanf:"http"`

	Database struct {
		URL         string     `koanf:"url" validate:"required"`
		AutoMigrate bool       `koanf:"auto_migrate"`
		Pool        db.Options `koanf:"pool"`
	} `koanf:"database"`

	Kafka struct {
		Brokers []string `koanf:"brokers" validate:"required,min=1"`
		GroupID string   `koanf:"group_id" validate:"required"`
		Topics  []string `koanf:"topics" validate:"required,min=1"`
	} `koanf:"kafka"`

	SMTP  email.SMTPConfig   `koanf:"smtp"`
	SMS   sms.Config         `koanf:"sms"`
	Log   runtime.LogOptions `koanf:"log"`
	Trace otelx.Config       `koanf:"trace"`
}

func Default() Config {
	var c Config
	c.HTTP.Addr = ":8085"
	c.Database.AutoMigrate = true
	c.Kafka.Brokers = []string{"localhost:9092"}
	c.Kafka.GroupID = ServiceName
	c.Kafka.Topics = []string{kafkax.TopicAppointmentBooked, kafkax.TopicAppointmentStatus}
	c.SMTP = email.SMTPConfig{Host: "mailpit", Port: 1025, From: "no-reply@bizsites.local", FromName: "BizSites"}
	c.SMS.Provider = "noop"
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
	return c, nil
}
