package tilemap

import "github.com/eak1mov/go-tilemap/tile"

const (
	// rootShift is the bit offset of the radix digit chosen at the root.
	rootShift = 14
	// leafShift is the bit offset of the digit that selects a leaf.
	leafShift = 2
)

// node is either an *interior or a *Leaf.
type node interface {
	isNode()
}

// interior branches 16-way on 2 bits of x and 2 bits of y.
type interior struct {
	children [16]node
}

// Leaf owns the floors of a 4x4 column of the map, one per z.
// Floors are created on first use and are never removed.
type Leaf struct {
	x, y   uint16
	floors [tile.MaxZ + 1]*Floor
}

func (*interior) isNode() {}
func (*Leaf) isNode()     {}

func childIndex(x, y uint16) int {
	return int(x>>14) | int(y>>14)<<2
}

func (n *interior) leaf(x, y uint16) *Leaf {
	for shift := rootShift; ; shift -= 2 {
		child := n.children[childIndex(x, y)]
		if child == nil {
			return nil
		}
		if shift == leafShift {
			return child.(*Leaf)
		}
		n = child.(*interior)
		x <<= 2
		y <<= 2
	}
}

func (n *interior) leafWithCreate(x, y uint16) *Leaf {
	originX, originY := x&^3, y&^3
	for shift := rootShift; ; shift -= 2 {
		i := childIndex(x, y)
		if shift == leafShift {
			if n.children[i] == nil {
				n.children[i] = &Leaf{x: originX, y: originY}
			}
			return n.children[i].(*Leaf)
		}
		if n.children[i] == nil {
			n.children[i] = &interior{}
		}
		n = n.children[i].(*interior)
		x <<= 2
		y <<= 2
	}
}

// Floor returns the floor at z, or nil if it was never created.
func (l *Leaf) Floor(z uint8) *Floor {
	if z > tile.MaxZ {
		return nil
	}
	return l.floors[z]
}

func (l *Leaf) floorWithCreate(z uint8) *Floor {
	if l.floors[z] == nil {
		l.floors[z] = newFloor(l.x, l.y, z)
	}
	return l.floors[z]
}
