// Package tilemap provides the sparse spatial index of a tile map.
//
// Tiles are addressed by (x, y, z). The index is a 16-way radix tree over the
// high bits of x and y whose leaves own 4x4 floors, one per z, allocated on
// first write. A Map is not safe for concurrent use.
package tilemap

import (
	"fmt"

	"github.com/eak1mov/go-tilemap/tile"
)

// Map file format revisions.
const (
	OTBMVersion1 uint32 = iota
	OTBMVersion2
	OTBMVersion3
	OTBMVersion4
)

// Version identifies the map file format and the item database a map was
// built against.
type Version struct {
	OTBM       uint32
	ItemsMajor uint32
	ItemsMinor uint32
}

const (
	defaultWidth  = 2048
	defaultHeight = 2048
)

type Map struct {
	Version      Version
	Width        uint16
	Height       uint16
	Descriptions []string
	SpawnFile    string
	HouseFile    string

	root      interior
	tileCount int
	towns     map[uint32]Town
	waypoints map[string]Waypoint
}

// New returns an empty map using the latest file format revision.
func New() *Map {
	return &Map{
		Version:   Version{OTBM: OTBMVersion4},
		Width:     defaultWidth,
		Height:    defaultHeight,
		towns:     make(map[uint32]Town),
		waypoints: make(map[string]Waypoint),
	}
}

// Leaf returns the leaf holding (x, y) without allocating anything.
func (m *Map) Leaf(x, y uint16) (*Leaf, bool) {
	leaf := m.root.leaf(x, y)
	return leaf, leaf != nil
}

// FloorWithCreate returns the floor holding pos, allocating the path to it.
func (m *Map) FloorWithCreate(pos tile.Position) *Floor {
	mustValid(pos)
	return m.root.leafWithCreate(pos.X, pos.Y).floorWithCreate(pos.Z)
}

// Location returns the location at pos, or nil if it was never allocated.
func (m *Map) Location(pos tile.Position) *Location {
	if !pos.Valid() {
		return nil
	}
	leaf := m.root.leaf(pos.X, pos.Y)
	if leaf == nil {
		return nil
	}
	floor := leaf.floors[pos.Z]
	if floor == nil {
		return nil
	}
	return floor.Location(pos.X, pos.Y)
}

// LocationWithCreate returns the location at pos, allocating it if needed.
// Repeated calls return the same location.
func (m *Map) LocationWithCreate(pos tile.Position) *Location {
	return m.FloorWithCreate(pos).Location(pos.X, pos.Y)
}

// MustLocation returns the location at pos. It panics if the location was
// never allocated.
func (m *Map) MustLocation(pos tile.Position) *Location {
	loc := m.Location(pos)
	if loc == nil {
		panic(fmt.Sprintf("tilemap: location %v is not allocated", pos))
	}
	return loc
}

// Tile returns the tile at pos, or nil.
func (m *Map) Tile(pos tile.Position) *tile.Tile {
	loc := m.Location(pos)
	if loc == nil {
		return nil
	}
	return loc.tile
}

// TileWithCreate returns the tile at pos, creating an empty one if needed.
func (m *Map) TileWithCreate(pos tile.Position) *tile.Tile {
	loc := m.LocationWithCreate(pos)
	if loc.tile == nil {
		loc.tile = tile.New(pos)
		m.tileCount++
	}
	return loc.tile
}

// ReplaceTile installs t at its own position and returns the tile it
// replaced, if any. The caller takes ownership of the returned tile.
func (m *Map) ReplaceTile(t *tile.Tile) *tile.Tile {
	if t == nil {
		panic("tilemap: replace with nil tile")
	}
	old := m.LocationWithCreate(t.Position()).swapTile(t)
	if old == nil {
		m.tileCount++
	}
	return old
}

// DropTile removes the tile at pos and hands it to the caller.
func (m *Map) DropTile(pos tile.Position) *tile.Tile {
	loc := m.Location(pos)
	if loc == nil {
		return nil
	}
	old := loc.swapTile(nil)
	if old != nil {
		m.tileCount--
	}
	return old
}

// TileCount returns the number of locations holding a tile.
func (m *Map) TileCount() int {
	return m.tileCount
}

// Clear drops every tile and releases the whole index.
// Towns, waypoints and metadata are kept.
func (m *Map) Clear() {
	m.root = interior{}
	m.tileCount = 0
}

func mustValid(pos tile.Position) {
	if !pos.Valid() {
		panic(fmt.Sprintf("tilemap: invalid position %v", pos))
	}
}
