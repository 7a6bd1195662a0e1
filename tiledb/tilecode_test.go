package tiledb_test

import (
	"testing"

	"github.com/eak1mov/go-tilemap/tiledb"
)

func TestEncodeDecodeTileCode(t *testing.T) {
	for _, pos := range [][2]uint16{{0, 0}, {1, 0}, {0, 1}, {1000, 1000}, {65535, 0}, {0, 65535}, {65535, 65535}, {32768, 12345}} {
		x, y := tiledb.DecodeTileCode(tiledb.EncodeTileCode(pos[0], pos[1]))
		if x != pos[0] || y != pos[1] {
			t.Errorf("DecodeTileCode(EncodeTileCode(%v)) = (%d,%d)", pos, x, y)
		}
	}
}

func TestTileCodeLocality(t *testing.T) {
	// Consecutive codes are neighbouring positions.
	px, py := tiledb.DecodeTileCode(0)
	for code := uint64(1); code < 1<<14; code++ {
		x, y := tiledb.DecodeTileCode(code)
		dx, dy := int(x)-int(px), int(y)-int(py)
		if dx*dx+dy*dy != 1 {
			t.Fatalf("codes %d and %d map to (%d,%d) and (%d,%d)", code-1, code, px, py, x, y)
		}
		px, py = x, y
	}
}
