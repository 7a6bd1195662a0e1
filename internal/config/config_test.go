package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-tilemap/internal/config"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tilemaputils.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "items.otb", cfg.Items)
	require.Equal(t, "zstd", cfg.Compression)
	require.Equal(t, 0, cfg.MapVersion)
	level, err := cfg.Level()
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, level)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
items: data/items.otb
map_version: 2
compression: gzip
log_level: debug
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.Config{
		Items:       "data/items.otb",
		MapVersion:  2,
		Compression: "gzip",
		LogLevel:    "debug",
	}, cfg)
	level, err := cfg.Level()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, level)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "compression: none\n"))
	require.NoError(t, err)
	require.Equal(t, "items.otb", cfg.Items)
	require.Equal(t, "none", cfg.Compression)
}

func TestLoadErrors(t *testing.T) {
	for _, content := range []string{
		"map_version: 5\n",
		"compression: brotli\n",
		"log_level: loud\n",
		"items: [not, a, string\n",
	} {
		_, err := config.Load(writeConfig(t, content))
		require.Error(t, err, content)
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
