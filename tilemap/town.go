package tilemap

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/eak1mov/go-tilemap/tile"
)

type Town struct {
	ID        uint32
	Name      string
	TemplePos tile.Position
}

type Waypoint struct {
	Name string
	Pos  tile.Position
}

func (m *Map) AddTown(t Town) error {
	if _, exists := m.towns[t.ID]; exists {
		return fmt.Errorf("tilemap: duplicate town id %d", t.ID)
	}
	m.towns[t.ID] = t
	return nil
}

func (m *Map) Town(id uint32) (Town, bool) {
	t, ok := m.towns[id]
	return t, ok
}

func (m *Map) RemoveTown(id uint32) bool {
	_, ok := m.towns[id]
	delete(m.towns, id)
	return ok
}

// Towns returns all towns ordered by id.
func (m *Map) Towns() []Town {
	return slices.SortedFunc(maps.Values(m.towns), func(a, b Town) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

func (m *Map) AddWaypoint(w Waypoint) error {
	if _, exists := m.waypoints[w.Name]; exists {
		return fmt.Errorf("tilemap: duplicate waypoint %q", w.Name)
	}
	m.waypoints[w.Name] = w
	return nil
}

func (m *Map) Waypoint(name string) (Waypoint, bool) {
	w, ok := m.waypoints[name]
	return w, ok
}

func (m *Map) RemoveWaypoint(name string) bool {
	_, ok := m.waypoints[name]
	delete(m.waypoints, name)
	return ok
}

// Waypoints returns all waypoints ordered by name.
func (m *Map) Waypoints() []Waypoint {
	return slices.SortedFunc(maps.Values(m.waypoints), func(a, b Waypoint) int {
		return cmp.Compare(a.Name, b.Name)
	})
}
