// Package tile provides the per-location map content model: positions,
// item types, items and tiles.
package tile

import "fmt"

// MaxZ is the highest floor index. Floors are numbered 0..MaxZ.
const MaxZ = 15

// Position represents map coordinates of a single tile.
type Position struct {
	X uint16
	Y uint16
	Z uint8
}

func (p Position) Valid() bool {
	return p.Z <= MaxZ
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}
