package tilemap

import (
	"iter"

	"github.com/eak1mov/go-tilemap/tile"
)

// Region is an inclusive box of positions.
type Region struct {
	MinX, MinY uint16
	MaxX, MaxY uint16
	MinZ, MaxZ uint8
}

// WholeMap covers every addressable position.
var WholeMap = Region{MaxX: 0xFFFF, MaxY: 0xFFFF, MaxZ: tile.MaxZ}

func (r Region) Contains(pos tile.Position) bool {
	return pos.X >= r.MinX && pos.X <= r.MaxX &&
		pos.Y >= r.MinY && pos.Y <= r.MaxY &&
		pos.Z >= r.MinZ && pos.Z <= r.MaxZ
}

// overlaps reports whether the square [x, x+size) x [y, y+size) intersects r.
func (r Region) overlaps(x, y, size int) bool {
	return x <= int(r.MaxX) && x+size > int(r.MinX) &&
		y <= int(r.MaxY) && y+size > int(r.MinY)
}

type frame struct {
	node   *interior
	cursor int
	x, y   int
	shift  int
}

// Iterator walks the allocated locations of a region: floor by floor, then
// the allocated leaves in index order, then the 16 cells of each floor.
// Unallocated parts of the index are skipped. An Iterator is single-pass.
type Iterator struct {
	root   *interior
	region Region
	z      int
	stack  []frame
	floor  *Floor
	cell   int
}

func newIterator(root *interior, region Region) *Iterator {
	region.MaxZ = min(region.MaxZ, tile.MaxZ)
	return &Iterator{
		root:   root,
		region: region,
		z:      int(region.MinZ) - 1,
		stack:  make([]frame, 0, 8),
	}
}

// Iterator returns an iterator over every allocated location of the map.
func (m *Map) Iterator() *Iterator {
	return newIterator(&m.root, WholeMap)
}

// RegionIterator returns an iterator over the allocated locations inside r.
func (m *Map) RegionIterator(r Region) *Iterator {
	return newIterator(&m.root, r)
}

// Next returns the next location, or false once the iterator is exhausted.
func (it *Iterator) Next() (*Location, bool) {
	for {
		if it.floor != nil {
			for it.cell < len(it.floor.locations) {
				loc := &it.floor.locations[it.cell]
				it.cell++
				if it.region.Contains(loc.pos) {
					return loc, true
				}
			}
			it.floor = nil
		}

		if len(it.stack) == 0 {
			if it.z >= int(it.region.MaxZ) || it.region.MinX > it.region.MaxX || it.region.MinY > it.region.MaxY {
				return nil, false
			}
			it.z++
			it.stack = append(it.stack, frame{node: it.root, shift: rootShift})
			continue
		}

		top := &it.stack[len(it.stack)-1]
		if top.cursor == len(top.node.children) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		i := top.cursor
		top.cursor++

		child := top.node.children[i]
		if child == nil {
			continue
		}
		x := top.x + (i&3)<<top.shift
		y := top.y + (i>>2)<<top.shift
		if !it.region.overlaps(x, y, 1<<top.shift) {
			continue
		}

		switch c := child.(type) {
		case *interior:
			it.stack = append(it.stack, frame{node: c, x: x, y: y, shift: top.shift - 2})
		case *Leaf:
			if floor := c.floors[it.z]; floor != nil {
				it.floor = floor
				it.cell = 0
			}
		}
	}
}

func (it *Iterator) seq() iter.Seq[*Location] {
	return func(yield func(*Location) bool) {
		for {
			loc, ok := it.Next()
			if !ok || !yield(loc) {
				return
			}
		}
	}
}

// Locations returns a sequence over every allocated location.
// Each call starts a fresh traversal.
func (m *Map) Locations() iter.Seq[*Location] {
	return func(yield func(*Location) bool) {
		m.Iterator().seq()(yield)
	}
}

// LocationsIn returns a sequence over the allocated locations inside r.
func (m *Map) LocationsIn(r Region) iter.Seq[*Location] {
	return func(yield func(*Location) bool) {
		m.RegionIterator(r).seq()(yield)
	}
}

// Tiles returns a sequence over every tile of the map.
func (m *Map) Tiles() iter.Seq[*tile.Tile] {
	return func(yield func(*tile.Tile) bool) {
		for loc := range m.Locations() {
			if loc.tile != nil && !yield(loc.tile) {
				return
			}
		}
	}
}
