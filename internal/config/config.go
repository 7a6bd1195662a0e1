// Package config loads the YAML defaults of the tilemaputils command.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eak1mov/go-tilemap/tiledb"
)

type Config struct {
	// Items is the path of the item definition file.
	Items string `yaml:"items"`
	// MapVersion is the OTBM revision (1-4) written by convert and import.
	// Zero keeps the revision of the source map.
	MapVersion  int    `yaml:"map_version"`
	Compression string `yaml:"compression"`
	LogLevel    string `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		Items:       "items.otb",
		Compression: tiledb.CompressionZstd.String(),
		LogLevel:    "info",
	}
}

// Load reads the configuration at path. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.MapVersion < 0 || c.MapVersion > 4 {
		return fmt.Errorf("map_version must be between 1 and 4, got %d", c.MapVersion)
	}
	if _, err := tiledb.ParseCompression(c.Compression); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
