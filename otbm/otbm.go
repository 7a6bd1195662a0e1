// Package otbm loads and saves tile maps in the OTBM node-tree format.
//
// All four format revisions are read. Saving writes the revision recorded in
// the map version; new maps use CurrentVersion.
package otbm

import (
	"fmt"
	"log/slog"

	"github.com/eak1mov/go-tilemap/nodetree"
	"github.com/eak1mov/go-tilemap/tilemap"
)

// CurrentVersion is the revision written for maps created from scratch.
const CurrentVersion = tilemap.OTBMVersion4

var (
	ErrInvalidHeader      = fmt.Errorf("%w: invalid map header", nodetree.ErrInvalidFormat)
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported map version", nodetree.ErrInvalidFormat)
)

var identifier = nodetree.Identifier{'O', 'T', 'B', 'M'}

const (
	nodeRoot      = 0
	nodeMapData   = 2
	nodeTileArea  = 4
	nodeTile      = 5
	nodeItem      = 6
	nodeSpawns    = 9
	nodeTowns     = 12
	nodeTown      = 13
	nodeHouseTile = 14
	nodeWaypoints = 15
	nodeWaypoint  = 16
)

const (
	attrDescription   = 1
	attrTileFlags     = 3
	attrActionID      = 4
	attrUniqueID      = 5
	attrText          = 6
	attrDesc          = 7
	attrTeleDest      = 8
	attrItem          = 9
	attrDepotID       = 10
	attrSpawnFile     = 11
	attrRuneCharges   = 12
	attrHouseFile     = 13
	attrHouseDoorID   = 14
	attrCount         = 15
	attrDuration      = 16
	attrDecayingState = 17
	attrWrittenDate   = 18
	attrWrittenBy     = 19
	attrSleeperGUID   = 20
	attrSleepStart    = 21
	attrCharges       = 22
)

// Tile areas cover 256x256 tiles of one floor.
const areaMask = 0xFF00

type config struct {
	Logger   *slog.Logger
	Progress func(tiles int)
}

type Option func(*config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.Logger = logger }
}

// WithProgress registers a callback invoked with the number of tiles
// processed so far, once per tile.
func WithProgress(progress func(tiles int)) Option {
	return func(c *config) { c.Progress = progress }
}

func newConfig(opts []Option) config {
	c := config{
		Logger:   slog.New(slog.DiscardHandler),
		Progress: func(int) {},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func checkVersion(version uint32) error {
	if version > tilemap.OTBMVersion4 {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	return nil
}
