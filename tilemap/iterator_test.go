package tilemap_test

import (
	"cmp"
	"iter"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/eak1mov/go-tilemap/tile"
	"github.com/eak1mov/go-tilemap/tilemap"
	gcmp "github.com/google/go-cmp/cmp"
)

// indexKey interleaves x and y the way the index orders its children.
func indexKey(pos tile.Position) uint32 {
	key := uint32(0)
	for shift := 14; shift >= 0; shift -= 2 {
		digit := uint32(pos.X>>shift)&3 | (uint32(pos.Y>>shift)&3)<<2
		key = key<<4 | digit
	}
	return key
}

func comparePositions(a, b tile.Position) int {
	return cmp.Or(cmp.Compare(a.Z, b.Z), cmp.Compare(indexKey(a), indexKey(b)))
}

func randomMap(seed uint64, count int) (*tilemap.Map, []tile.Position) {
	m := tilemap.New()
	rng := rand.New(rand.NewPCG(seed, seed))
	seen := make(map[tile.Position]bool)
	var positions []tile.Position
	for range count {
		pos := tile.Position{
			X: uint16(rng.IntN(1 << 16)),
			Y: uint16(rng.IntN(1 << 16)),
			Z: uint8(rng.IntN(tile.MaxZ + 1)),
		}
		if rng.IntN(4) == 0 {
			// cluster some tiles together
			pos.X, pos.Y = 1000+uint16(rng.IntN(64)), 1000+uint16(rng.IntN(64))
		}
		if seen[pos] {
			continue
		}
		seen[pos] = true
		positions = append(positions, pos)
		m.TileWithCreate(pos)
	}
	return m, positions
}

func collectTiles(locations iter.Seq[*tilemap.Location]) []tile.Position {
	var result []tile.Position
	for loc := range locations {
		if loc.HasTile() {
			result = append(result, loc.Position())
		}
	}
	return result
}

func TestIteratorOrder(t *testing.T) {
	m, positions := randomMap(1, 3000)

	want := slices.Clone(positions)
	slices.SortFunc(want, comparePositions)

	got := collectTiles(m.Locations())
	if diff := gcmp.Diff(want, got); diff != "" {
		t.Errorf("Locations() order mismatch (-want+got):\n%v", diff)
	}
}

func TestIteratorSkipsUnallocated(t *testing.T) {
	m := tilemap.New()
	if _, ok := m.Iterator().Next(); ok {
		t.Fatalf("Next() on empty map returned a location")
	}

	m.TileWithCreate(tile.Position{X: 5, Y: 6, Z: 7})
	m.TileWithCreate(tile.Position{X: 6, Y: 6, Z: 7})
	m.LocationWithCreate(tile.Position{X: 60000, Y: 60000, Z: 0})

	count := 0
	for range m.Locations() {
		count++
	}
	if got, want := count, 32; got != want {
		t.Errorf("Locations() yielded %v locations, want = %v", got, want)
	}

	tiles := 0
	for range m.Tiles() {
		tiles++
	}
	if got, want := tiles, 2; got != want {
		t.Errorf("Tiles() yielded %v tiles, want = %v", got, want)
	}
}

func TestIteratorSinglePass(t *testing.T) {
	m, positions := randomMap(2, 100)

	it := m.Iterator()
	n := 0
	for {
		loc, ok := it.Next()
		if !ok {
			break
		}
		if loc.HasTile() {
			n++
		}
	}
	if n != len(positions) {
		t.Errorf("Iterator yielded %v tiles, want = %v", n, len(positions))
	}
	if _, ok := it.Next(); ok {
		t.Errorf("exhausted iterator yielded again")
	}

	// A fresh sequence restarts the traversal.
	first := collectTiles(m.Locations())
	second := collectTiles(m.Locations())
	if diff := gcmp.Diff(first, second); diff != "" {
		t.Errorf("second traversal mismatch (-first+second):\n%v", diff)
	}
}

func TestRegionIterator(t *testing.T) {
	m, positions := randomMap(3, 4000)

	for _, region := range []tilemap.Region{
		{MinX: 1000, MinY: 1000, MaxX: 1031, MaxY: 1063, MinZ: 0, MaxZ: 15},
		{MinX: 1001, MinY: 1002, MaxX: 1001, MaxY: 1002, MinZ: 7, MaxZ: 7},
		{MinX: 0, MinY: 0, MaxX: 30000, MaxY: 65535, MinZ: 3, MaxZ: 9},
		{MinX: 5, MinY: 5, MaxX: 4, MaxY: 5, MinZ: 0, MaxZ: 15},
		{MinX: 0, MinY: 0, MaxX: 65535, MaxY: 65535, MinZ: 8, MaxZ: 7},
		tilemap.WholeMap,
	} {
		var want []tile.Position
		for _, pos := range positions {
			if region.Contains(pos) {
				want = append(want, pos)
			}
		}
		slices.SortFunc(want, comparePositions)

		var got []tile.Position
		for loc := range m.LocationsIn(region) {
			if !region.Contains(loc.Position()) {
				t.Fatalf("LocationsIn(%v) yielded %v outside the region", region, loc.Position())
			}
			if loc.HasTile() {
				got = append(got, loc.Position())
			}
		}
		if diff := gcmp.Diff(want, got); diff != "" {
			t.Errorf("LocationsIn(%+v) mismatch (-want+got):\n%v", region, diff)
		}
	}
}

func TestIteratorEarlyBreak(t *testing.T) {
	m, _ := randomMap(4, 50)
	n := 0
	for range m.Tiles() {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("break after 3 tiles, got %v", n)
	}
}
