package tile

import (
	"fmt"
	"slices"
)

// TileFlags are the map flags of a tile.
type TileFlags uint32

const (
	TileProtectionZone TileFlags = 1 << 0
	TileNoPvp          TileFlags = 1 << 2
	TileNoLogout       TileFlags = 1 << 3
	TilePvpZone        TileFlags = 1 << 4
	TileRefresh        TileFlags = 1 << 5
)

// Tile is the content of a single map position: an optional ground, a stack
// of items (last is topmost) and the number of selected elements.
//
// The selection count always equals the number of selected elements, so item
// selection must go through the Tile methods once the item is on the tile.
type Tile struct {
	pos            Position
	ground         *Item
	items          []*Item
	selectionCount int
	flags          TileFlags
	houseID        uint32
}

// New creates an empty tile at pos.
func New(pos Position) *Tile {
	return &Tile{pos: pos}
}

func (t *Tile) Position() Position  { return t.pos }
func (t *Tile) Ground() *Item       { return t.ground }
func (t *Tile) SelectionCount() int { return t.selectionCount }
func (t *Tile) Flags() TileFlags    { return t.flags }
func (t *Tile) HouseID() uint32     { return t.houseID }

// Items returns the items above the ground, bottom first. The slice is owned
// by the tile and must not be modified; use AddItem and RemoveItem instead.
func (t *Tile) Items() []*Item { return t.items }

func (t *Tile) SetFlags(flags TileFlags) {
	t.flags = flags
}

func (t *Tile) SetHouseID(id uint32) {
	t.houseID = id
}

// ItemCount returns the number of elements on the tile, ground included.
func (t *Tile) ItemCount() int {
	if t.ground != nil {
		return len(t.items) + 1
	}
	return len(t.items)
}

// Empty reports whether the tile has neither ground nor items.
func (t *Tile) Empty() bool {
	return t.ground == nil && len(t.items) == 0
}

// TopItem returns the topmost item, the ground if there are no items, or nil.
func (t *Tile) TopItem() *Item {
	if len(t.items) > 0 {
		return t.items[len(t.items)-1]
	}
	return t.ground
}

func (t *Tile) AllSelected() bool {
	return t.selectionCount == t.ItemCount()
}

// AddItem puts it on the tile and returns the item it displaced, if any.
//
// Ground items replace the ground. Always-on-top items are kept at the bottom
// of the stack: ground borders go before the other always-on-top items, and
// any other always-on-top item takes the place of the first non-border
// always-on-top item already present. Everything else goes on top.
func (t *Tile) AddItem(it *Item) *Item {
	var displaced *Item
	switch {
	case it.typ.IsGround():
		displaced = t.ground
		if displaced != nil && displaced.selected {
			t.selectionCount--
		}
		t.ground = it
	case it.typ.AlwaysOnTop():
		displaced = t.addAlwaysOnTop(it)
	default:
		t.items = append(t.items, it)
	}
	if it.selected {
		t.selectionCount++
	}
	return displaced
}

func (t *Tile) addAlwaysOnTop(it *Item) *Item {
	border := it.typ.IsGroundBorder()
	i := 0
	for ; i < len(t.items) && t.items[i].typ.AlwaysOnTop(); i++ {
		if t.items[i].typ.IsGroundBorder() {
			continue
		}
		if border {
			break
		}
		// TODO(eak1mov): confirm overwrite is wanted here, inserting would keep both items.
		old := t.items[i]
		if old.selected {
			t.selectionCount--
		}
		t.items[i] = it
		return old
	}
	t.items = slices.Insert(t.items, i, it)
	return nil
}

// RemoveItem removes and returns the item at index i.
func (t *Tile) RemoveItem(i int) *Item {
	it := t.items[i]
	if i == len(t.items)-1 {
		t.items[i] = nil
		t.items = t.items[:i]
	} else {
		t.items = slices.Delete(t.items, i, i+1)
	}
	if it.selected {
		t.selectionCount--
	}
	return it
}

func (t *Tile) SelectItem(i int) {
	t.selectItem(t.items[i])
}

func (t *Tile) DeselectItem(i int) {
	t.deselectItem(t.items[i])
}

func (t *Tile) SelectGround() {
	if t.ground != nil {
		t.selectItem(t.ground)
	}
}

func (t *Tile) DeselectGround() {
	if t.ground != nil {
		t.deselectItem(t.ground)
	}
}

func (t *Tile) SelectAll() {
	t.SelectGround()
	for _, it := range t.items {
		t.selectItem(it)
	}
}

func (t *Tile) DeselectAll() {
	t.DeselectGround()
	for _, it := range t.items {
		t.deselectItem(it)
	}
}

func (t *Tile) selectItem(it *Item) {
	if !it.selected {
		it.selected = true
		t.selectionCount++
	}
}

func (t *Tile) deselectItem(it *Item) {
	if it.selected {
		it.selected = false
		t.selectionCount--
	}
}

// MoveSelected moves the selected ground and items to dst, keeping the order
// of the items left behind. It returns the items displaced from dst.
func (t *Tile) MoveSelected(dst *Tile) []*Item {
	if t == dst {
		panic("tile: move selection onto the same tile")
	}

	var moved []*Item
	if t.ground != nil && t.ground.selected {
		moved = append(moved, t.ground)
		t.ground = nil
	}

	kept := t.items[:0]
	for _, it := range t.items {
		if it.selected {
			moved = append(moved, it)
		} else {
			kept = append(kept, it)
		}
	}
	clear(t.items[len(kept):])
	t.items = kept
	t.selectionCount -= len(moved)

	var displaced []*Item
	for _, it := range moved {
		if old := dst.AddItem(it); old != nil {
			displaced = append(displaced, old)
		}
	}
	return displaced
}

// DeepCopy returns an independent copy of the tile and all of its items.
func (t *Tile) DeepCopy() *Tile {
	c := &Tile{
		pos:            t.pos,
		selectionCount: t.selectionCount,
		flags:          t.flags,
		houseID:        t.houseID,
	}
	if t.ground != nil {
		c.ground = t.ground.DeepCopy()
	}
	if len(t.items) > 0 {
		c.items = make([]*Item, len(t.items))
		for i, it := range t.items {
			c.items[i] = it.DeepCopy()
		}
	}
	return c
}

func (t *Tile) String() string {
	return fmt.Sprintf("tile%v[%d items]", t.pos, t.ItemCount())
}
