// Package config loads typed service configuration from three layers, later
// layers winning: an optional .env file, an optional YAML file, then
// environment variables carrying the service prefix, where "__" separates
// nesting levels (BIZSITES_DATABASE__URL → database.url).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

var validate = validator.New()

// Source describes where to read configuration from.
type Source struct {
	// EnvPrefix selects environment variables, e.g. "BIZSITES_".
	EnvPrefix string
	// DotEnv is an optional .env path; a missing file is not an error.
	DotEnv string
	// YAMLFile is an optional YAML path; a missing file is not an error.
	YAMLFile string
}

// Load merges the configured layers into out, which should carry its defaults
// already, and validates the result using `validate` struct tags.
func Load(src Source, out any) error {
	if src.DotEnv != "" {
		if err := godotenv.Load(src.DotEnv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", src.DotEnv, err)
		}
	}

	k := koanf.New(".")

	if src.YAMLFile != "" {
		if _, err := os.Stat(src.YAMLFile); err == nil {
			if err := k.Load(file.Provider(src.YAMLFile), yaml.Parser()); err != nil {
				return fmt.Errorf("load %s: %w", src.YAMLFile, err)
			}
		}
	}

	prefix := src.EnvPrefix
	if err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return EnvKey(prefix, s)
	}), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if err := k.Unmarshal("", out); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// EnvKey maps PREFIX_HTTP__PORT to http.port.
func EnvKey(prefix, name string) string {
	name = strings.TrimPrefix(name, prefix)
	return strings.ToLower(strings.ReplaceAll(name, "__", "."))
}
