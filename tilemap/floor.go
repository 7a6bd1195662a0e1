package tilemap

import "github.com/eak1mov/go-tilemap/tile"

// Floor is a 4x4 block of locations at one z.
type Floor struct {
	locations [16]Location
}

func newFloor(x, y uint16, z uint8) *Floor {
	f := &Floor{}
	for i := range f.locations {
		f.locations[i].pos = tile.Position{
			X: x + uint16(i&3),
			Y: y + uint16(i>>2),
			Z: z,
		}
	}
	return f
}

func cellIndex(x, y uint16) int {
	return int(x&3) | int(y&3)<<2
}

// Location returns the cell of the floor that holds (x, y).
func (f *Floor) Location(x, y uint16) *Location {
	return &f.locations[cellIndex(x, y)]
}

// Location is one addressable cell of the map. It owns at most one tile.
type Location struct {
	pos  tile.Position
	tile *tile.Tile
}

func (l *Location) Position() tile.Position { return l.pos }
func (l *Location) Tile() *tile.Tile        { return l.tile }
func (l *Location) HasTile() bool           { return l.tile != nil }

func (l *Location) swapTile(t *tile.Tile) *tile.Tile {
	old := l.tile
	l.tile = t
	return old
}
