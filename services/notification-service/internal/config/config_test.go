package config

import (
	"testing"

	"github.com/md-rashed-zaman/bizsites/libs/kafkax"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", t.TempDir()+"/missing.yaml")
	t.Setenv("NOTIFY_DATABASE__URL", "postgres://notify@localhost/notify")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Kafka.Topics) != 2 || c.Kafka.Topics[0] != kafkax.TopicAppointmentBooked {
		t.Fatalf("topics = %v", c.Kafka.Topics)
	}
	if c.SMTP.Host != "mailpit" || c.SMTP.Port != 1025 || c.SMS.Provider != "noop" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("NOTIFY_KAFKA__BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("NOTIFY_SMTP__PORT", "2525")
	t.Setenv("NOTIFY_SMS__PROVIDER", "webhook")
	t.Setenv("NOTIFY_SMS__WEBHOOK_URL", "http://sms.internal/send")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Fatalf("brokers = %v", c.Kafka.Brokers)
	}
	if c.SMTP.Port != 2525 || c.SMS.WebhookURL != "http://sms.internal/send" {
		t.Fatalf("config = %+v", c)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown sms provider", "NOTIFY_SMS__PROVIDER", "pigeon"},
		{"bad sender address", "NOTIFY_SMTP__FROM", "not-an-email"},
		{"webhook without url", "NOTIFY_SMS__PROVIDER", "webhook"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
