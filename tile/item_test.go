package tile_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/eak1mov/go-tilemap/tile"
	"github.com/google/go-cmp/cmp"
)

type fakeEntities struct {
	next  tile.EntityID
	alive map[tile.EntityID]uint16
}

func (f *fakeEntities) CreateEntity(t *tile.ItemType) tile.EntityID {
	f.next++
	f.alive[f.next] = t.ServerID
	return f.next
}

func (f *fakeEntities) DestroyEntity(id tile.EntityID) {
	delete(f.alive, id)
}

func newTestCatalog(t *testing.T) *tile.Catalog {
	t.Helper()
	catalog := tile.NewCatalog()
	for _, typ := range []*tile.ItemType{
		{ServerID: 1, Group: tile.GroupGround},
		{ServerID: 2, Group: tile.GroupContainer},
		{ServerID: 3, Flags: tile.FlagAnimation},
		{ServerID: 4, Flags: tile.FlagAlwaysOnTop, TopOrder: 1},
	} {
		if err := catalog.Add(typ); err != nil {
			t.Fatalf("Add(%d) failed: %v", typ.ServerID, err)
		}
	}
	return catalog
}

func TestCatalog(t *testing.T) {
	catalog := newTestCatalog(t)

	if err := catalog.Add(&tile.ItemType{ServerID: 1}); err == nil {
		t.Errorf("Add(duplicate) succeeded")
	}
	if got, want := catalog.Len(), 4; got != want {
		t.Errorf("Len() = %v, want = %v", got, want)
	}

	var got []uint16
	for typ := range catalog.All() {
		got = append(got, typ.ServerID)
	}
	if diff := cmp.Diff([]uint16{1, 2, 3, 4}, got); diff != "" {
		t.Errorf("All() mismatch (-want+got):\n%v", diff)
	}

	typ, _ := catalog.Get(4)
	if typ.IsGroundBorder() {
		t.Errorf("IsGroundBorder() = true before SetGroundBorder")
	}
	if !catalog.SetGroundBorder(4, true) || !typ.IsGroundBorder() {
		t.Errorf("SetGroundBorder(4) did not mark the type")
	}
	if catalog.SetGroundBorder(99, true) {
		t.Errorf("SetGroundBorder(unknown) = true")
	}
}

func TestFactory(t *testing.T) {
	entities := &fakeEntities{alive: make(map[tile.EntityID]uint16)}
	factory := tile.NewFactory(newTestCatalog(t), entities)

	if _, err := factory.New(99, 0); !errors.Is(err, tile.ErrUnknownItemType) {
		t.Errorf("New(99) error = %v, want ErrUnknownItemType", err)
	}

	plain, err := factory.New(1, 0)
	if err != nil {
		t.Fatalf("New(1) failed: %v", err)
	}
	if _, ok := plain.Entity(); ok {
		t.Errorf("non-animated item got an entity")
	}

	container, _ := factory.New(2, 0)
	animated, _ := factory.New(3, 0)
	if _, ok := animated.Entity(); !ok {
		t.Fatalf("animated item has no entity")
	}
	if err := container.AddContent(animated); err != nil {
		t.Fatalf("AddContent failed: %v", err)
	}
	if err := plain.AddContent(animated); err == nil {
		t.Errorf("AddContent on a non-container succeeded")
	}

	c := container.DeepCopy()
	if _, ok := c.Contents()[0].Entity(); ok {
		t.Errorf("DeepCopy copied the entity")
	}

	factory.Release(container)
	if len(entities.alive) != 0 {
		t.Errorf("Release left entities alive: %v", entities.alive)
	}
}

func TestAttributesSparse(t *testing.T) {
	it := tile.NewItem(&tile.ItemType{ServerID: 5}, 0)
	if it.HasAttributes() {
		t.Errorf("new item has attributes")
	}

	it.UpdateAttributes(func(a *tile.Attributes) { a.ActionID = 1000 })
	if !it.HasAttributes() {
		t.Errorf("HasAttributes() = false after setting action id")
	}

	it.UpdateAttributes(func(a *tile.Attributes) { a.ActionID = 0 })
	if it.HasAttributes() {
		t.Errorf("HasAttributes() = true after clearing all attributes")
	}

	dest := tile.Position{X: 1, Y: 2, Z: 3}
	it.SetAttributes(tile.Attributes{TeleportDest: &dest})
	dest.X = 42
	got := it.Attributes()
	got.TeleportDest.Y = 42
	if diff := cmp.Diff(&tile.Position{X: 1, Y: 2, Z: 3}, it.Attributes().TeleportDest); diff != "" {
		t.Errorf("TeleportDest aliased (-want+got):\n%v", diff)
	}
	if !slices.Equal(it.Contents(), nil) {
		t.Errorf("Contents() = %v, want empty", it.Contents())
	}
}
