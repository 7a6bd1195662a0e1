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

type importCmd struct {
	itemsPath  string
	inputPath  string
	outputPath string
	version    int
}

func (c *importCmd) Name() string     { return "import" }
func (c *importCmd) Synopsis() string { return "create a map from a SQLite tile snapshot" }
func (c *importCmd) Usage() string {
	return "tilemaputils import -i <path> -o <path> [-items <path> -version <1-4>]\n"
}
func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input snapshot path")
	f.StringVar(&c.outputPath, "o", "", "Output map path")
	f.StringVar(&c.itemsPath, "items", "", "Item definitions path")
	f.IntVar(&c.version, "version", 0, "Output OTBM revision (1-4), 0 uses map_version from the config")
}

func (c *importCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	cfg := configFrom(args)

	factory, err := loadFactory(c.itemsPath, cfg)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	bar := newBar(-1, "importing tiles")
	m, err := tiledb.Import(c.inputPath, factory,
		tiledb.WithReaderLogger(slog.Default()),
		tiledb.WithReaderProgress(func(n int) { bar.Set(n) }))
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if err := setVersion(m, c.version, cfg); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if err := saveMap(c.outputPath, m); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
