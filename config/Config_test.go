package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("migrationlint", pflag.ContinueOnError)
	flags.String("configuration", "Release", "")
	flags.String("format", "text", "")
	flags.StringSlice("exclude", nil, "")
	flags.Int("workers", 0, "")
	return flags
}

func TestLoadMissingDefaultFile(t *testing.T) {
	cfg, err := Load(New(), filepath.Join(t.TempDir(), DefaultConfigFile), false, nil)

	require.NoError(t, err)
	assert.Equal(t, "Release", cfg.Configuration)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Empty(t, cfg.Exclude)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"), true, nil)

	assert.Error(t, err)
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := writeConfig(t, DefaultConfigFile, `
configuration: Debug
format: sarif
exclude:
  - "Pods/**"
workers: 4
log-level: info
`)

	cfg, err := Load(New(), path, true, nil)

	require.NoError(t, err)
	assert.Equal(t, "Debug", cfg.Configuration)
	assert.Equal(t, "sarif", cfg.Format)
	assert.Equal(t, []string{"Pods/**"}, cfg.Exclude)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "memory", cfg.Store)
	assert.NoError(t, cfg.Validate())
}

func TestLoadTomlFile(t *testing.T) {
	path := writeConfig(t, "migrationlint.toml", "format = \"json\"\nlanguage = [\"Swift\", \"Objective-C\"]\n")

	cfg, err := Load(New(), path, true, nil)

	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"Swift", "Objective-C"}, cfg.Languages)
}

func TestLoadInvalidYaml(t *testing.T) {
	path := writeConfig(t, DefaultConfigFile, "format: [unclosed")

	_, err := Load(New(), path, false, nil)

	assert.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, DefaultConfigFile, "configuration: Debug\nlog-level: info\n")
	t.Setenv("MIGRATIONLINT_CONFIGURATION", " Staging ")
	t.Setenv("MIGRATIONLINT_LOG_LEVEL", "debug")
	t.Setenv("MIGRATIONLINT_EXCLUDE", "Pods/**,build/**")

	cfg, err := Load(New(), path, true, nil)

	require.NoError(t, err)
	assert.Equal(t, "Staging", cfg.Configuration)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"Pods/**", "build/**"}, cfg.Exclude)
}

func TestChangedFlagsOverrideEnvironmentAndFile(t *testing.T) {
	path := writeConfig(t, DefaultConfigFile, "format: sarif\nworkers: 4\n")
	t.Setenv("MIGRATIONLINT_CONFIGURATION", "Staging")
	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--configuration", "Debug", "--exclude", "Vendor/**"}))

	cfg, err := Load(New(), path, true, flags)

	require.NoError(t, err)
	assert.Equal(t, "Debug", cfg.Configuration)
	assert.Equal(t, []string{"Vendor/**"}, cfg.Exclude)
	// Unchanged flags leave the file values in place.
	assert.Equal(t, "sarif", cfg.Format)
	assert.Equal(t, 4, cfg.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"unknown format", func(c *Config) { c.Format = "csv" }, false},
		{"unknown store", func(c *Config) { c.Store = "redis" }, false},
		{"http without base url", func(c *Config) { c.Format = "http" }, false},
		{"http with base url", func(c *Config) { c.Format = "http"; c.BaseURL = "https://collector" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"blank configuration", func(c *Config) { c.Configuration = "" }, false},
		{"negative workers", func(c *Config) { c.Workers = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
