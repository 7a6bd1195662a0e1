package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/google/subcommands"

	"github.com/eak1mov/go-tilemap/tiledb"
)

type exportCmd struct {
	itemsPath   string
	inputPath   string
	outputPath  string
	compression string
}

func (c *exportCmd) Name() string     { return "export" }
func (c *exportCmd) Synopsis() string { return "export a map to a SQLite tile snapshot" }
func (c *exportCmd) Usage() string {
	return "tilemaputils export -i <path> -o <path> [-items <path> -compression <none|gzip|zstd>]\n"
}
func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map path")
	f.StringVar(&c.outputPath, "o", "", "Output snapshot path")
	f.StringVar(&c.itemsPath, "items", "", "Item definitions path")
	f.StringVar(&c.compression, "compression", "", "Tile data compression (none, gzip, zstd)")
}

func (c *exportCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	cfg := configFrom(args)

	name := c.compression
	if name == "" {
		name = cfg.Compression
	}
	compression, err := tiledb.ParseCompression(name)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	factory, err := loadFactory(c.itemsPath, cfg)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	m, err := loadMap(c.inputPath, factory)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	bar := newBar(m.TileCount(), "exporting tiles")
	err = tiledb.Export(c.outputPath, m,
		tiledb.WithCompression(compression),
		tiledb.WithLogger(slog.Default()),
		tiledb.WithProgress(func(n int) { bar.Set(n) }))
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
