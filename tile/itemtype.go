package tile

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Group is the item group stored as the node type of an item-type definition.
type Group uint8

const (
	GroupNone Group = iota
	GroupGround
	GroupContainer
	GroupWeapon
	GroupAmmunition
	GroupArmor
	GroupCharges
	GroupTeleport
	GroupMagicField
	GroupWriteable
	GroupKey
	GroupSplash
	GroupFluid
	GroupDoor
	GroupDeprecated
)

// Flags are the item-type flags of the item-type definition file.
type Flags uint32

const (
	FlagBlockSolid Flags = 1 << iota
	FlagBlockProjectile
	FlagBlockPathfind
	FlagHasHeight
	FlagUseable
	FlagPickupable
	FlagMoveable
	FlagStackable
	FlagFloorChangeDown
	FlagFloorChangeNorth
	FlagFloorChangeEast
	FlagFloorChangeSouth
	FlagFloorChangeWest
	FlagAlwaysOnTop
	FlagReadable
	FlagRotatable
	FlagHangable
	FlagVertical
	FlagHorizontal
	FlagCannotDecay
	FlagAllowDistRead
	FlagUnused
	FlagClientCharges
	FlagLookThrough
	FlagAnimation
	FlagFullTile
	FlagForceUse
)

// ItemType describes one kind of item. Items reference their type and only
// query its flags; the type itself is owned by a Catalog.
type ItemType struct {
	ServerID     uint16
	ClientID     uint16
	Group        Group
	Flags        Flags
	Name         string
	Speed        uint16
	SpriteHash   []byte
	MinimapColor uint16
	LightLevel   uint16
	LightColor   uint16
	TopOrder     uint8
	MaxTextLen   uint16
	WareID       uint16

	// Border marks always-on-top items that sort first among always-on-top items.
	Border bool
}

func (t *ItemType) IsGround() bool    { return t.Group == GroupGround }
func (t *ItemType) IsContainer() bool { return t.Group == GroupContainer }
func (t *ItemType) IsFluid() bool     { return t.Group == GroupFluid }
func (t *ItemType) IsSplash() bool    { return t.Group == GroupSplash }
func (t *ItemType) AlwaysOnTop() bool { return t.Flags&FlagAlwaysOnTop != 0 }
func (t *ItemType) Stackable() bool   { return t.Flags&FlagStackable != 0 }
func (t *ItemType) Animated() bool    { return t.Flags&FlagAnimation != 0 }

func (t *ItemType) IsGroundBorder() bool {
	return t.AlwaysOnTop() && t.Border
}

// HasSubtype reports whether the subtype of the item is meaningful
// (stack count or fluid kind).
func (t *ItemType) HasSubtype() bool {
	return t.Stackable() || t.IsFluid() || t.IsSplash()
}

// Catalog is the item-type database keyed by server id.
type Catalog struct {
	MajorVersion uint32
	MinorVersion uint32
	BuildNumber  uint32
	CSDVersion   string

	types map[uint16]*ItemType
}

func NewCatalog() *Catalog {
	return &Catalog{types: make(map[uint16]*ItemType)}
}

// Add registers an item type. Server ids must be unique.
func (c *Catalog) Add(t *ItemType) error {
	if _, exists := c.types[t.ServerID]; exists {
		return fmt.Errorf("tile: duplicate item type %d", t.ServerID)
	}
	c.types[t.ServerID] = t
	return nil
}

func (c *Catalog) Get(id uint16) (*ItemType, bool) {
	t, ok := c.types[id]
	return t, ok
}

func (c *Catalog) Len() int {
	return len(c.types)
}

// SetGroundBorder overrides the ground-border classification of a type.
// It returns false if the type is unknown.
func (c *Catalog) SetGroundBorder(id uint16, border bool) bool {
	t, ok := c.types[id]
	if ok {
		t.Border = border
	}
	return ok
}

// All returns item types ordered by server id.
func (c *Catalog) All() iter.Seq[*ItemType] {
	return func(yield func(*ItemType) bool) {
		types := slices.SortedFunc(maps.Values(c.types), func(a, b *ItemType) int {
			return cmp.Compare(a.ServerID, b.ServerID)
		})
		for _, t := range types {
			if !yield(t) {
				return
			}
		}
	}
}
