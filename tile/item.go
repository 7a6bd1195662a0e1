package tile

import (
	"errors"
	"fmt"
	"slices"
)

var ErrUnknownItemType = errors.New("unknown item type")

// Attributes holds the optional per-item data. Zero values mean "absent" and
// are never persisted.
type Attributes struct {
	ActionID      uint16
	UniqueID      uint16
	Text          string
	Description   string
	TeleportDest  *Position
	DepotID       uint16
	HouseDoorID   uint8
	Charges       uint16
	Duration      uint32
	DecayingState uint8
	WrittenDate   uint32
	WrittenBy     string
	SleeperGUID   uint32
	SleepStart    uint32
}

func (a *Attributes) empty() bool {
	return *a == Attributes{}
}

func (a *Attributes) clone() *Attributes {
	c := *a
	if a.TeleportDest != nil {
		dest := *a.TeleportDest
		c.TeleportDest = &dest
	}
	return &c
}

// EntityID is an opaque handle owned by the animation subsystem.
type EntityID uint32

// Entities is the animation subsystem as seen by items: animated items get an
// entity when created by a Factory and give it back when released.
type Entities interface {
	CreateEntity(t *ItemType) EntityID
	DestroyEntity(id EntityID)
}

// Item is a single item instance on a tile or inside a container.
type Item struct {
	typ      *ItemType
	subtype  uint16
	selected bool
	attrs    *Attributes
	contents []*Item
	entity   *EntityID
}

// NewItem creates an item of the given type without an animation entity.
func NewItem(t *ItemType, subtype uint16) *Item {
	if t == nil {
		panic("tile: nil item type")
	}
	return &Item{typ: t, subtype: subtype}
}

func (it *Item) Type() *ItemType   { return it.typ }
func (it *Item) ID() uint16        { return it.typ.ServerID }
func (it *Item) Subtype() uint16   { return it.subtype }
func (it *Item) Selected() bool    { return it.selected }
func (it *Item) Contents() []*Item { return it.contents }

func (it *Item) SetSubtype(subtype uint16) {
	it.subtype = subtype
}

// Entity returns the animation entity of the item, if it has one.
func (it *Item) Entity() (EntityID, bool) {
	if it.entity == nil {
		return 0, false
	}
	return *it.entity, true
}

// Attributes returns a copy of the item attributes.
func (it *Item) Attributes() Attributes {
	if it.attrs == nil {
		return Attributes{}
	}
	return *it.attrs.clone()
}

// HasAttributes reports whether any attribute has a non-default value.
func (it *Item) HasAttributes() bool {
	return it.attrs != nil
}

// SetAttributes replaces all attributes. Default-valued attributes are not stored.
func (it *Item) SetAttributes(attrs Attributes) {
	if attrs.empty() {
		it.attrs = nil
		return
	}
	it.attrs = attrs.clone()
}

// UpdateAttributes applies fn to a copy of the attributes and stores the result.
func (it *Item) UpdateAttributes(fn func(*Attributes)) {
	attrs := it.Attributes()
	fn(&attrs)
	it.SetAttributes(attrs)
}

// AddContent appends an item to a container.
func (it *Item) AddContent(child *Item) error {
	if !it.typ.IsContainer() {
		return fmt.Errorf("tile: item %d is not a container", it.ID())
	}
	it.contents = append(it.contents, child)
	return nil
}

// DeepCopy returns an independent copy of the item including its contents.
// The animation entity is not copied.
func (it *Item) DeepCopy() *Item {
	c := &Item{
		typ:      it.typ,
		subtype:  it.subtype,
		selected: it.selected,
	}
	if it.attrs != nil {
		c.attrs = it.attrs.clone()
	}
	if len(it.contents) > 0 {
		c.contents = make([]*Item, len(it.contents))
		for i, child := range it.contents {
			c.contents[i] = child.DeepCopy()
		}
	}
	return c
}

func (it *Item) String() string {
	return fmt.Sprintf("item(%d)", it.ID())
}

// Factory creates items from a catalog and wires animated items to the
// animation subsystem.
type Factory struct {
	catalog  *Catalog
	entities Entities
}

// NewFactory returns a factory for the given catalog. entities may be nil.
func NewFactory(catalog *Catalog, entities Entities) *Factory {
	return &Factory{catalog: catalog, entities: entities}
}

func (f *Factory) Catalog() *Catalog {
	return f.catalog
}

// New creates an item of type id.
func (f *Factory) New(id uint16, subtype uint16) (*Item, error) {
	t, ok := f.catalog.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownItemType, id)
	}
	it := NewItem(t, subtype)
	if f.entities != nil && t.Animated() {
		entity := f.entities.CreateEntity(t)
		it.entity = &entity
	}
	return it, nil
}

// Release hands back the animation entities of the item and its contents.
func (f *Factory) Release(it *Item) {
	if it == nil {
		return
	}
	for _, child := range slices.Backward(it.contents) {
		f.Release(child)
	}
	if it.entity != nil && f.entities != nil {
		f.entities.DestroyEntity(*it.entity)
	}
	it.entity = nil
}
