package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/subcommands"
)

type infoCmd struct {
	itemsPath string
	inputPath string
}

func (c *infoCmd) Name() string     { return "info" }
func (c *infoCmd) Synopsis() string { return "print map header and contents summary" }
func (c *infoCmd) Usage() string {
	return "tilemaputils info -i <path> [-items <path>]\n"
}
func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map path")
	f.StringVar(&c.itemsPath, "items", "", "Item definitions path")
}

func (c *infoCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
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

	items := 0
	for t := range m.Tiles() {
		items += t.ItemCount()
	}

	fmt.Printf("version:    OTBM %d (items %d.%d)\n", m.Version.OTBM+1, m.Version.ItemsMajor, m.Version.ItemsMinor)
	fmt.Printf("size:       %dx%d\n", m.Width, m.Height)
	for _, description := range m.Descriptions {
		fmt.Printf("note:       %s\n", description)
	}
	if m.SpawnFile != "" {
		fmt.Printf("spawns:     %s\n", m.SpawnFile)
	}
	if m.HouseFile != "" {
		fmt.Printf("houses:     %s\n", m.HouseFile)
	}
	fmt.Printf("tiles:      %d\n", m.TileCount())
	fmt.Printf("items:      %d\n", items)
	fmt.Printf("towns:      %d\n", len(m.Towns()))
	fmt.Printf("waypoints:  %d\n", len(m.Waypoints()))

	return subcommands.ExitSuccess
}
