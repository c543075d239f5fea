// Package config loads cwp runtime configuration from .cwp.yaml, CWP_*
// environment variables and command line flags.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/robby/cwp/internal/auth"
	"github.com/robby/cwp/internal/document"
)

// SourceConfig selects the remote GraphQL contract source.
type SourceConfig struct {
	URL          string `mapstructure:"url"`
	TokenEnv     string `mapstructure:"token_env"`
	TokenCommand string `mapstructure:"token_command"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Config holds all runtime configuration for a cwp session.
type Config struct {
	Document        string        `mapstructure:"document"`
	Section         string        `mapstructure:"section"`
	Items           string        `mapstructure:"items"`
	Source          SourceConfig  `mapstructure:"source"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Scene           string        `mapstructure:"scene"`
	Vessel          string        `mapstructure:"vessel"`
	Log             LogConfig     `mapstructure:"log"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("document", "persistent.yaml")
	v.SetDefault("section", document.DefaultSection)
	v.SetDefault("items", "")
	v.SetDefault("source.url", "")
	v.SetDefault("source.token_env", auth.DefaultTokenEnv)
	v.SetDefault("source.token_command", "")
	v.SetDefault("refresh_interval", 5*time.Second)
	v.SetDefault("scene", "flight")
	v.SetDefault("vessel", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Load reads configuration from v, applying built-in defaults for any values
// not set by config file, environment, or flags, and validates the result.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var sceneNames = []string{"flight", "editor", "spacecenter", "trackingstation"}

// Validate checks field values, reporting every problem as criterio field errors.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("document", c.Document, notBlank),
		criterio.Run("refresh_interval", c.RefreshInterval, positive),
		criterio.Run("scene", c.Scene, oneOf(sceneNames)),
		criterio.Run("log.level", c.Log.Level, logLevel),
		criterio.Run("source.url", c.Source.URL, httpURL),
		criterio.Run("vessel", c.Vessel, optionalUUID),
		c.validateSources(),
	)
}

func (c *Config) validateSources() error {
	if c.Items != "" && c.Source.URL != "" {
		return criterio.NewFieldErrors("items", fmt.Errorf("cannot be combined with source.url"))
	}
	return nil
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func positive(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", d)
	}
	return nil
}

func oneOf(allowed []string) func(string) error {
	return func(s string) error {
		for _, a := range allowed {
			if strings.EqualFold(s, a) {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
}

func logLevel(s string) error {
	if _, err := zerolog.ParseLevel(strings.ToLower(s)); err != nil {
		return fmt.Errorf("invalid level %q", s)
	}
	return nil
}

func httpURL(s string) error {
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func optionalUUID(s string) error {
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("invalid vessel id: %w", err)
	}
	return nil
}
