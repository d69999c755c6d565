// Package config loads process configuration for the userfields binary from
// an optional .env file, an optional YAML file and USERFIELDS_* environment
// variables, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-userfields/pkg/model"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Fields   FieldsConfig   `yaml:"fields"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig guards admin routes. An empty Token disables the bearer check;
// Secret signs the nonces embedded in admin forms.
type AuthConfig struct {
	Token  string        `yaml:"token"`
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"nonce_ttl"`
}

type FieldsConfig struct {
	OptionName    string     `yaml:"option_name"`
	OverrideKey   string     `yaml:"override_key"`
	SubmissionKey string     `yaml:"submission_key"`
	Renderer      string     `yaml:"renderer"`
	Locale        string     `yaml:"locale"`
	Defaults      model.List `yaml:"defaults"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: "userfields.db"},
		Auth:     AuthConfig{TTL: 12 * time.Hour},
		Log:      LogConfig{Level: "info", Format: "console"},
	}
}

// Load builds the configuration. A missing .env or YAML file is not an error;
// path may be empty to skip the YAML file entirely.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.Addr = envOr("USERFIELDS_ADDR", cfg.Server.Addr)
	cfg.Database.Path = envOr("USERFIELDS_DB", cfg.Database.Path)
	cfg.Auth.Token = envOr("USERFIELDS_AUTH_TOKEN", cfg.Auth.Token)
	cfg.Auth.Secret = envOr("USERFIELDS_NONCE_SECRET", cfg.Auth.Secret)
	cfg.Fields.OptionName = envOr("USERFIELDS_OPTION_NAME", cfg.Fields.OptionName)
	cfg.Fields.Renderer = envOr("USERFIELDS_RENDERER", cfg.Fields.Renderer)
	cfg.Fields.Locale = envOr("USERFIELDS_LOCALE", cfg.Fields.Locale)
	cfg.Log.Level = envOr("USERFIELDS_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("USERFIELDS_LOG_FORMAT", cfg.Log.Format)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"USERFIELDS_READ_TIMEOUT", &cfg.Server.ReadTimeout},
		{"USERFIELDS_WRITE_TIMEOUT", &cfg.Server.WriteTimeout},
		{"USERFIELDS_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout},
		{"USERFIELDS_NONCE_TTL", &cfg.Auth.TTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

// parseDuration accepts Go duration strings or a bare number of seconds.
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
