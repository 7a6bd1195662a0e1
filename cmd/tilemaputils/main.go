package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/google/subcommands"
	_ "github.com/mattn/go-sqlite3"

	"github.com/eak1mov/go-tilemap/internal/config"
)

func main() {
	configPath := flag.String("config", "", "YAML file with default settings")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&infoCmd{}, "")
	subcommands.Register(&convertCmd{}, "")
	subcommands.Register(&exportCmd{}, "")
	subcommands.Register(&importCmd{}, "")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	level, _ := cfg.Level()
	slog.SetLogLoggerLevel(level)

	os.Exit(int(subcommands.Execute(context.Background(), cfg)))
}
