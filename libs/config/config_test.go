package config

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Name string `koanf:"name" validate:"required"`
	HTTP struct {
		Port int `koanf:"port" validate:"min=1,max=65535"`
	} `koanf:"http"`
	Database struct {
		URL string `koanf:"url"`
	} `koanf:"database"`
}

func TestEnvKey(t *testing.T) {
	if got := EnvKey("APP_", "APP_HTTP__PORT"); got != "http.port" {
		t.Fatalf("expected http.port, got %q", got)
	}
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(yamlPath, []byte("name: from-yaml\nhttp:\n  port: 9000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CFGTEST_HTTP__PORT", "9100")
	t.Setenv("CFGTEST_DATABASE__URL", "postgres://x")

	var cfg testConfig
	cfg.HTTP.Port = 8080
	if err := Load(Source{EnvPrefix: "CFGTEST_", YAMLFile: yamlPath}, &cfg); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "from-yaml" {
		t.Fatalf("expected yaml name, got %q", cfg.Name)
	}
	if cfg.HTTP.Port != 9100 {
		t.Fatalf("expected env to override port, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.URL != "postgres://x" {
		t.Fatalf("expected database url from env, got %q", cfg.Database.URL)
	}
}

func TestLoadValidates(t *testing.T) {
	var cfg testConfig
	cfg.HTTP.Port = 8080
	if err := Load(Source{EnvPrefix: "CFGTEST_MISSING_"}, &cfg); err == nil {
		t.Fatalf("expected validation error for missing name")
	}
}
