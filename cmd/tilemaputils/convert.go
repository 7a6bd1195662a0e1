package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/subcommands"
)

type convertCmd struct {
	itemsPath  string
	inputPath  string
	outputPath string
	version    int
}

func (c *convertCmd) Name() string     { return "convert" }
func (c *convertCmd) Synopsis() string { return "re-save a map, optionally in another OTBM revision" }
func (c *convertCmd) Usage() string {
	return "tilemaputils convert -i <path> -o <path> [-items <path> -version <1-4>]\n"
}
func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map path")
	f.StringVar(&c.outputPath, "o", "", "Output map path")
	f.StringVar(&c.itemsPath, "items", "", "Item definitions path")
	f.IntVar(&c.version, "version", 0, "Output OTBM revision (1-4), 0 uses map_version from the config")
}

func (c *convertCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	cfg := configFrom(args)

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
