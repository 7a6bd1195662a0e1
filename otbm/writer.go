package otbm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/eak1mov/go-tilemap/internal/latin1"
	"github.com/eak1mov/go-tilemap/nodetree"
	"github.com/eak1mov/go-tilemap/tile"
	"github.com/eak1mov/go-tilemap/tilemap"
)

// Save writes m to filePath in the revision m.Version.OTBM. The file is
// removed if encoding fails.
func Save(filePath string, m *tilemap.Map, opts ...Option) (err error) {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, file.Close())
		if err != nil {
			os.Remove(filePath)
		}
	}()
	if err := Write(file, m, opts...); err != nil {
		return fmt.Errorf("otbm: save %s: %w", filePath, err)
	}
	return nil
}

// Write encodes m. Only tiles with content are written; ground items without
// attributes use the compact tile attribute form.
func Write(w io.Writer, m *tilemap.Map, opts ...Option) error {
	config := newConfig(opts)
	if err := checkVersion(m.Version.OTBM); err != nil {
		return err
	}

	e := &encoder{
		w:       nodetree.NewWriter(w, identifier),
		version: m.Version.OTBM,
	}

	e.w.StartNode(nodeRoot)
	e.w.U32(m.Version.OTBM)
	e.w.U16(m.Width)
	e.w.U16(m.Height)
	e.w.U32(m.Version.ItemsMajor)
	e.w.U32(m.Version.ItemsMinor)

	e.w.StartNode(nodeMapData)
	for _, description := range m.Descriptions {
		e.w.U8(attrDescription)
		if err := e.lenString(description); err != nil {
			return fmt.Errorf("description: %w", err)
		}
	}
	if err := e.stringAttr(attrSpawnFile, m.SpawnFile); err != nil {
		return fmt.Errorf("spawn file: %w", err)
	}
	if err := e.stringAttr(attrHouseFile, m.HouseFile); err != nil {
		return fmt.Errorf("house file: %w", err)
	}

	config.Logger.Debug("otbm: writing tiles", slog.Int("tiles", m.TileCount()))
	tiles := 0
	areaOpen := false
	var area tile.Position
	for t := range m.Tiles() {
		if !hasContent(t) {
			continue
		}
		pos := t.Position()
		if base := (tile.Position{X: pos.X & areaMask, Y: pos.Y & areaMask, Z: pos.Z}); !areaOpen || base != area {
			if areaOpen {
				e.w.EndNode()
			}
			area = base
			areaOpen = true
			e.w.StartNode(nodeTileArea)
			e.position(area)
		}
		if err := e.tile(t); err != nil {
			return fmt.Errorf("tile %v: %w", pos, err)
		}
		tiles++
		config.Progress(tiles)
	}
	if areaOpen {
		e.w.EndNode()
	}

	e.w.StartNode(nodeTowns)
	for _, town := range m.Towns() {
		e.w.StartNode(nodeTown)
		e.w.U32(town.ID)
		if err := e.lenString(town.Name); err != nil {
			return fmt.Errorf("town %d: %w", town.ID, err)
		}
		e.position(town.TemplePos)
		e.w.EndNode()
	}
	e.w.EndNode()

	if waypoints := m.Waypoints(); len(waypoints) > 0 {
		e.w.StartNode(nodeWaypoints)
		for _, waypoint := range waypoints {
			e.w.StartNode(nodeWaypoint)
			if err := e.lenString(waypoint.Name); err != nil {
				return fmt.Errorf("waypoint %q: %w", waypoint.Name, err)
			}
			e.position(waypoint.Pos)
			e.w.EndNode()
		}
		e.w.EndNode()
	}

	e.w.EndNode() // map data
	e.w.EndNode() // root
	if err := e.w.Close(); err != nil {
		return err
	}

	config.Logger.Debug("otbm: done!", slog.Int("tiles", tiles))
	return nil
}

// MarshalTile encodes a single tile as a standalone node tree in the current
// revision. The tile position is only kept modulo the tile area size.
func MarshalTile(t *tile.Tile) ([]byte, error) {
	var buffer bytes.Buffer
	e := &encoder{
		w:       nodetree.NewWriter(&buffer, nodetree.Identifier{}),
		version: CurrentVersion,
	}
	if err := e.tile(t); err != nil {
		return nil, err
	}
	if err := e.w.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func hasContent(t *tile.Tile) bool {
	return !t.Empty() || t.Flags() != 0 || t.HouseID() != 0
}

type encoder struct {
	w       *nodetree.Writer
	version uint32
}

func (e *encoder) tile(t *tile.Tile) error {
	pos := t.Position()
	if t.HouseID() != 0 {
		e.w.StartNode(nodeHouseTile)
		e.w.U8(uint8(pos.X))
		e.w.U8(uint8(pos.Y))
		e.w.U32(t.HouseID())
	} else {
		e.w.StartNode(nodeTile)
		e.w.U8(uint8(pos.X))
		e.w.U8(uint8(pos.Y))
	}

	if t.Flags() != 0 {
		e.w.U8(attrTileFlags)
		e.w.U32(uint32(t.Flags()))
	}

	ground := t.Ground()
	if ground != nil && e.compactGround(ground) {
		e.w.U8(attrItem)
		e.w.U16(ground.ID())
	} else if ground != nil {
		if err := e.item(ground); err != nil {
			return err
		}
	}
	for _, it := range t.Items() {
		if err := e.item(it); err != nil {
			return err
		}
	}

	e.w.EndNode()
	return e.w.Err()
}

func (e *encoder) compactGround(ground *tile.Item) bool {
	if ground.HasAttributes() || len(ground.Contents()) > 0 || ground.Subtype() != 0 {
		return false
	}
	return !(e.version == tilemap.OTBMVersion1 && ground.Type().HasSubtype())
}

func (e *encoder) item(it *tile.Item) error {
	e.w.StartNode(nodeItem)
	e.w.U16(it.ID())

	subtype := it.Subtype()
	if e.version == tilemap.OTBMVersion1 && it.Type().HasSubtype() {
		if subtype > math.MaxUint8 {
			return fmt.Errorf("item %d: subtype %d does not fit", it.ID(), subtype)
		}
		e.w.U8(uint8(subtype))
	} else if subtype != 0 {
		if subtype > math.MaxUint8 {
			return fmt.Errorf("item %d: subtype %d does not fit", it.ID(), subtype)
		}
		e.w.U8(attrCount)
		e.w.U8(uint8(subtype))
	}

	if it.HasAttributes() {
		if err := e.attributes(it.Attributes()); err != nil {
			return fmt.Errorf("item %d: %w", it.ID(), err)
		}
	}

	for _, content := range it.Contents() {
		if err := e.item(content); err != nil {
			return err
		}
	}

	e.w.EndNode()
	return e.w.Err()
}

func (e *encoder) attributes(a tile.Attributes) error {
	if a.ActionID != 0 {
		e.w.U8(attrActionID)
		e.w.U16(a.ActionID)
	}
	if a.UniqueID != 0 {
		e.w.U8(attrUniqueID)
		e.w.U16(a.UniqueID)
	}
	if err := e.stringAttr(attrText, a.Text); err != nil {
		return err
	}
	if err := e.stringAttr(attrDesc, a.Description); err != nil {
		return err
	}
	if a.TeleportDest != nil {
		e.w.U8(attrTeleDest)
		e.position(*a.TeleportDest)
	}
	if a.DepotID != 0 {
		e.w.U8(attrDepotID)
		e.w.U16(a.DepotID)
	}
	if a.HouseDoorID != 0 {
		e.w.U8(attrHouseDoorID)
		e.w.U8(a.HouseDoorID)
	}
	if a.Charges != 0 {
		e.w.U8(attrCharges)
		e.w.U16(a.Charges)
	}
	if a.Duration != 0 {
		e.w.U8(attrDuration)
		e.w.U32(a.Duration)
	}
	if a.DecayingState != 0 {
		e.w.U8(attrDecayingState)
		e.w.U8(a.DecayingState)
	}
	if a.WrittenDate != 0 {
		e.w.U8(attrWrittenDate)
		e.w.U32(a.WrittenDate)
	}
	if err := e.stringAttr(attrWrittenBy, a.WrittenBy); err != nil {
		return err
	}
	if a.SleeperGUID != 0 {
		e.w.U8(attrSleeperGUID)
		e.w.U32(a.SleeperGUID)
	}
	if a.SleepStart != 0 {
		e.w.U8(attrSleepStart)
		e.w.U32(a.SleepStart)
	}
	return nil
}

// stringAttr writes a string attribute unless s is empty.
func (e *encoder) stringAttr(attr uint8, s string) error {
	if s == "" {
		return nil
	}
	e.w.U8(attr)
	return e.lenString(s)
}

func (e *encoder) lenString(s string) error {
	data, err := latin1.Encode(s)
	if err != nil {
		return err
	}
	e.w.LenString(string(data))
	return e.w.Err()
}

func (e *encoder) position(pos tile.Position) {
	e.w.U16(pos.X)
	e.w.U16(pos.Y)
	e.w.U8(pos.Z)
}
