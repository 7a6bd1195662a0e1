package main

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/eak1mov/go-tilemap/internal/config"
	"github.com/eak1mov/go-tilemap/otb"
	"github.com/eak1mov/go-tilemap/otbm"
	"github.com/eak1mov/go-tilemap/tile"
	"github.com/eak1mov/go-tilemap/tilemap"
)

func configFrom(args []any) config.Config {
	if len(args) > 0 {
		if cfg, ok := args[0].(config.Config); ok {
			return cfg
		}
	}
	cfg, _ := config.Load("")
	return cfg
}

// loadFactory reads the item definitions at itemsPath, falling back to the
// configured path.
func loadFactory(itemsPath string, cfg config.Config) (*tile.Factory, error) {
	if itemsPath == "" {
		itemsPath = cfg.Items
	}
	catalog, err := otb.Load(itemsPath)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded item definitions",
		slog.String("path", itemsPath),
		slog.Int("types", catalog.Len()),
		slog.String("csd", catalog.CSDVersion))
	return tile.NewFactory(catalog, nil), nil
}

// newBar returns a progress bar; a total of -1 shows a spinner.
func newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount())
}

func loadMap(filePath string, factory *tile.Factory) (*tilemap.Map, error) {
	bar := newBar(-1, "reading tiles")
	m, err := otbm.Load(filePath, factory,
		otbm.WithLogger(slog.Default()),
		otbm.WithProgress(func(n int) { bar.Set(n) }))
	bar.Finish()
	fmt.Println()
	return m, err
}

func saveMap(filePath string, m *tilemap.Map) error {
	bar := newBar(m.TileCount(), "writing tiles")
	err := otbm.Save(filePath, m,
		otbm.WithLogger(slog.Default()),
		otbm.WithProgress(func(n int) { bar.Set(n) }))
	bar.Finish()
	fmt.Println()
	return err
}

// setVersion applies the requested OTBM revision (1-4). A zero version falls
// back to the config, and a zero there keeps the current revision.
func setVersion(m *tilemap.Map, version int, cfg config.Config) error {
	if version == 0 {
		version = cfg.MapVersion
	}
	if version == 0 {
		return nil
	}
	if version < 1 || version > 4 {
		return fmt.Errorf("invalid map version %d", version)
	}
	if uint32(version-1) != m.Version.OTBM {
		log.Printf("converting map from OTBM %d to OTBM %d", m.Version.OTBM+1, version)
	}
	m.Version.OTBM = uint32(version - 1)
	return nil
}
