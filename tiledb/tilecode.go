package tiledb

import (
	"github.com/google/hilbert"
)

// Tile codes number the 65536x65536 positions of a floor along a Hilbert
// curve, so that tiles close on the map are close in the tiles table.
const gridSize = 1 << 16

var grid = mustGrid()

func mustGrid() *hilbert.Hilbert {
	h, err := hilbert.NewHilbert(gridSize)
	if err != nil {
		panic(err)
	}
	return h
}

func EncodeTileCode(x, y uint16) uint64 {
	code, _ := grid.MapInverse(int(x), int(y))
	return uint64(code)
}

func DecodeTileCode(code uint64) (x, y uint16) {
	hx, hy, _ := grid.Map(int(code))
	return uint16(hx), uint16(hy)
}
