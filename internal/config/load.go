package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/brushmap/pkg/encoding"
)

// EnvConfigPath names a config file when -config is not given.
const EnvConfigPath = "BRUSHMAP_CONFIG"

// localConfigNames are looked up in the working directory, next to the maps.
var localConfigNames = []string{"maptool.yaml", "maptool.yml"}

// Load builds the configuration from defaults, then the config file, then
// flags, and validates the result.
func Load() (*Config, error) {
	cfg := Default()

	if path := configSource(); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, errors.Wrapf(err, "loading config from %s", path)
		}
	}
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// configSource picks the config file: -config, then $BRUSHMAP_CONFIG, then
// the search locations. An explicit path is returned even if it does not
// exist so the read error surfaces.
func configSource() string {
	if path := ConfigPath(); path != "" {
		return path
	}
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	return findConfigFile()
}

// findConfigFile returns the first existing file among the working
// directory names and the user config directory.
func findConfigFile() string {
	candidates := append([]string(nil), localConfigNames...)
	candidates = append(candidates, filepath.Join(ConfigDir(), "config.yaml"))

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory for maptool.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "brushmap")
}

// loadFromFile merges a YAML file into cfg. Unknown keys are rejected so a
// misspelled setting does not silently fall back to its default.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// Validate checks the settings that would otherwise fail late, after the
// map has been parsed.
func (c *Config) Validate() error {
	if _, err := encoding.Lookup(c.Map.Charset); err != nil {
		return err
	}
	if _, err := c.SpawnTypes(); err != nil {
		return err
	}
	if _, err := c.SplitType(); err != nil {
		return err
	}
	if c.Generator.Workers < 1 {
		return fmt.Errorf("generator.workers must be at least 1, got %d", c.Generator.Workers)
	}
	if c.Surfaces.InverseScale <= 0 {
		return fmt.Errorf("surfaces.inverse_scale must be positive, got %g", c.Surfaces.InverseScale)
	}
	if d := c.Textures.DefaultSize; d.Width < 0 || d.Height < 0 {
		return fmt.Errorf("textures.default_size must not be negative, got %dx%d", d.Width, d.Height)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}
