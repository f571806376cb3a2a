// Package config layers defaults, the optional .migrationlint.yaml file, the
// MIGRATIONLINT_* environment and command line flags with viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultConfigFile = ".migrationlint.yaml"
	EnvPrefix         = "MIGRATIONLINT"
)

var (
	Formats = []string{"text", "json", "sarif", "xlsx", "http"}
	Stores  = []string{"memory", "file", "sqlite"}
)

// Config keys are the names of the persistent command line flags, so the
// file key log-level, the flag --log-level and MIGRATIONLINT_LOG_LEVEL all
// set LogLevel.
type Config struct {
	Configuration string   `mapstructure:"configuration"`
	Format        string   `mapstructure:"format"`
	Output        string   `mapstructure:"output"`
	Rules         []string `mapstructure:"rules"`
	Languages     []string `mapstructure:"language"`
	Include       []string `mapstructure:"include"`
	Exclude       []string `mapstructure:"exclude"`
	Store         string   `mapstructure:"store"`
	Cache         string   `mapstructure:"cache"`
	Progress      bool     `mapstructure:"progress"`
	BaseURL       string   `mapstructure:"base-url"`
	LogLevel      string   `mapstructure:"log-level"`
	Workers       int      `mapstructure:"workers"`
}

func Default() Config {
	return Config{
		Configuration: "Release",
		Format:        "text",
		Store:         "memory",
		LogLevel:      "warn",
	}
}

// New returns a viper instance holding the defaults and reading the
// MIGRATIONLINT_ environment.
func New() *viper.Viper {
	v := viper.New()

	defaults := Default()
	v.SetDefault("configuration", defaults.Configuration)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("output", "")
	v.SetDefault("rules", []string{})
	v.SetDefault("language", []string{})
	v.SetDefault("include", []string{})
	v.SetDefault("exclude", []string{})
	v.SetDefault("store", defaults.Store)
	v.SetDefault("cache", "")
	v.SetDefault("progress", false)
	v.SetDefault("base-url", "")
	v.SetDefault("log-level", defaults.LogLevel)
	v.SetDefault("workers", 0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path into v, binds flags when given and
// decodes the result. A missing file is only an error when the path was
// given explicitly.
func Load(v *viper.Viper, path string, explicit bool, flags *pflag.FlagSet) (Config, error) {
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		log.Debugf("No config file at %s, using defaults", path)
	} else {
		log.Debugf("Loaded config file %s", v.ConfigFileUsed())
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Configuration = strings.TrimSpace(cfg.Configuration)
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Configuration == "" {
		return fmt.Errorf("configuration must not be empty")
	}
	if !contains(Formats, c.Format) {
		return fmt.Errorf("unsupported format %q (supported: %s)", c.Format, strings.Join(Formats, ", "))
	}
	if !contains(Stores, c.Store) {
		return fmt.Errorf("unsupported store %q (supported: %s)", c.Store, strings.Join(Stores, ", "))
	}
	if c.Format == "http" && c.BaseURL == "" {
		return fmt.Errorf("format http requires a base url")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
