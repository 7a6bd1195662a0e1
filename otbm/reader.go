package otbm

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/eak1mov/go-tilemap/internal/latin1"
	"github.com/eak1mov/go-tilemap/nodetree"
	"github.com/eak1mov/go-tilemap/tile"
	"github.com/eak1mov/go-tilemap/tilemap"
)

// Load reads the map file at filePath. Items are created by factory, so the
// factory catalog must know every item id used by the map.
func Load(filePath string, factory *tile.Factory, opts ...Option) (*tilemap.Map, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	m, err := Read(data, factory, opts...)
	if err != nil {
		return nil, fmt.Errorf("otbm: load %s: %w", filePath, err)
	}
	return m, nil
}

// Read decodes a map held in memory. On error no map is returned and the
// items created so far are released.
func Read(data []byte, factory *tile.Factory, opts ...Option) (*tilemap.Map, error) {
	config := newConfig(opts)

	config.Logger.Debug("otbm: parse", slog.Int("bytes", len(data)))
	tree, err := nodetree.Parse(data)
	if err != nil {
		return nil, err
	}
	if tree.Identifier != identifier && tree.Identifier != (nodetree.Identifier{}) {
		return nil, fmt.Errorf("%w: identifier %x", ErrInvalidHeader, tree.Identifier)
	}

	m := tilemap.New()
	d := &decoder{
		factory:  factory,
		logger:   config.Logger,
		progress: config.Progress,
		m:        m,
	}
	if err := d.readRoot(tree.Root); err != nil {
		for t := range m.Tiles() {
			releaseTile(factory, t)
		}
		return nil, err
	}

	config.Logger.Debug("otbm: done!", slog.Int("tiles", m.TileCount()))
	return m, nil
}

// UnmarshalTile decodes a tile encoded by MarshalTile and places it at pos.
func UnmarshalTile(data []byte, pos tile.Position, factory *tile.Factory) (*tile.Tile, error) {
	tree, err := nodetree.Parse(data)
	if err != nil {
		return nil, err
	}
	d := &decoder{
		factory: factory,
		version: CurrentVersion,
		logger:  slog.New(slog.DiscardHandler),
	}
	base := tile.Position{X: pos.X & areaMask, Y: pos.Y & areaMask, Z: pos.Z}
	t, err := d.readTile(tree.Root, base)
	if err != nil {
		return nil, err
	}
	if t.Position() != pos {
		releaseTile(factory, t)
		return nil, fmt.Errorf("%w: tile encodes position %v, want %v", nodetree.ErrInvalidFormat, t.Position(), pos)
	}
	return t, nil
}

type decoder struct {
	factory  *tile.Factory
	version  uint32
	logger   *slog.Logger
	progress func(int)
	m        *tilemap.Map
	tiles    int
}

func (d *decoder) readRoot(root *nodetree.Node) error {
	if root.Type != nodeRoot {
		return fmt.Errorf("%w: root node type %d", ErrInvalidHeader, root.Type)
	}

	props := root.Properties()
	version := props.U32()
	width := props.U16()
	height := props.U16()
	itemsMajor := props.U32()
	itemsMinor := props.U32()
	if err := props.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if err := checkVersion(version); err != nil {
		return err
	}

	d.version = version
	d.m.Version = tilemap.Version{OTBM: version, ItemsMajor: itemsMajor, ItemsMinor: itemsMinor}
	d.m.Width = width
	d.m.Height = height
	d.logger.Debug("otbm: header",
		slog.Uint64("version", uint64(version)+1),
		slog.Int("width", int(width)),
		slog.Int("height", int(height)))

	if len(root.Children) == 0 || root.Children[0].Type != nodeMapData {
		return fmt.Errorf("%w: missing map data node", nodetree.ErrInvalidFormat)
	}
	return d.readMapData(root.Children[0])
}

func (d *decoder) readMapData(node *nodetree.Node) error {
	props := node.Properties()
	for props.Len() > 0 && props.Err() == nil {
		attr := props.U8()
		switch attr {
		case attrDescription:
			d.m.Descriptions = append(d.m.Descriptions, readString(props))
		case attrSpawnFile:
			d.m.SpawnFile = readString(props)
		case attrHouseFile:
			d.m.HouseFile = readString(props)
		default:
			// Attribute lengths are implicit, nothing after an unknown one can be read.
			d.logger.Warn("otbm: unknown map attribute", slog.Int("attr", int(attr)))
			props.Skip(props.Len())
		}
	}
	if err := props.Err(); err != nil {
		return fmt.Errorf("map data: %w", err)
	}

	for _, child := range node.Children {
		var err error
		switch child.Type {
		case nodeTileArea:
			err = d.readTileArea(child)
		case nodeTowns:
			err = d.readTowns(child)
		case nodeWaypoints:
			err = d.readWaypoints(child)
		case nodeSpawns:
			d.logger.Debug("otbm: skipping spawns node")
		default:
			d.logger.Warn("otbm: skipping unknown node", slog.Int("type", int(child.Type)))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) readTileArea(node *nodetree.Node) error {
	props := node.Properties()
	base := readPosition(props)
	if err := props.Err(); err != nil {
		return fmt.Errorf("tile area: %w", err)
	}
	if !base.Valid() {
		return fmt.Errorf("%w: tile area at invalid position %v", nodetree.ErrInvalidFormat, base)
	}

	for _, child := range node.Children {
		t, err := d.readTile(child, base)
		if err != nil {
			return fmt.Errorf("tile area %v: %w", base, err)
		}
		if old := d.m.ReplaceTile(t); old != nil {
			d.logger.Warn("otbm: duplicate tile", slog.String("pos", old.Position().String()))
			releaseTile(d.factory, old)
		}
		d.tiles++
		d.progress(d.tiles)
	}
	return nil
}

func (d *decoder) readTile(node *nodetree.Node, base tile.Position) (*tile.Tile, error) {
	if node.Type != nodeTile && node.Type != nodeHouseTile {
		return nil, fmt.Errorf("%w: unexpected node type %d in tile area", nodetree.ErrInvalidFormat, node.Type)
	}

	props := node.Properties()
	dx := props.U8()
	dy := props.U8()
	var houseID uint32
	if node.Type == nodeHouseTile {
		houseID = props.U32()
	}
	if err := props.Err(); err != nil {
		return nil, err
	}
	x, y := int(base.X)+int(dx), int(base.Y)+int(dy)
	if x > 0xFFFF || y > 0xFFFF {
		return nil, fmt.Errorf("%w: tile offset (%d,%d) out of range", nodetree.ErrInvalidFormat, dx, dy)
	}

	t := tile.New(tile.Position{X: uint16(x), Y: uint16(y), Z: base.Z})
	t.SetHouseID(houseID)
	if err := d.fillTile(t, node, props); err != nil {
		releaseTile(d.factory, t)
		return nil, fmt.Errorf("tile %v: %w", t.Position(), err)
	}
	return t, nil
}

func (d *decoder) fillTile(t *tile.Tile, node *nodetree.Node, props *nodetree.PropertyReader) error {
	for props.Len() > 0 && props.Err() == nil {
		switch attr := props.U8(); attr {
		case attrTileFlags:
			t.SetFlags(tile.TileFlags(props.U32()))
		case attrItem:
			id := props.U16()
			if props.Err() != nil {
				continue
			}
			it, err := d.factory.New(id, 0)
			if err != nil {
				return err
			}
			d.addItem(t, it)
		default:
			return fmt.Errorf("%w: unknown tile attribute %d", nodetree.ErrInvalidFormat, attr)
		}
	}
	if err := props.Err(); err != nil {
		return err
	}

	for _, child := range node.Children {
		if child.Type != nodeItem {
			return fmt.Errorf("%w: unexpected node type %d in tile", nodetree.ErrInvalidFormat, child.Type)
		}
		it, err := d.readItem(child)
		if err != nil {
			return err
		}
		d.addItem(t, it)
	}
	return nil
}

func (d *decoder) addItem(t *tile.Tile, it *tile.Item) {
	if displaced := t.AddItem(it); displaced != nil {
		d.logger.Debug("otbm: item displaced on load",
			slog.String("pos", t.Position().String()),
			slog.Int("id", int(displaced.ID())))
		d.factory.Release(displaced)
	}
}

func (d *decoder) readItem(node *nodetree.Node) (*tile.Item, error) {
	props := node.Properties()
	id := props.U16()
	if err := props.Err(); err != nil {
		return nil, err
	}
	it, err := d.factory.New(id, 0)
	if err != nil {
		return nil, err
	}
	if err := d.fillItem(it, node, props); err != nil {
		d.factory.Release(it)
		return nil, fmt.Errorf("item %d: %w", id, err)
	}
	return it, nil
}

func (d *decoder) fillItem(it *tile.Item, node *nodetree.Node, props *nodetree.PropertyReader) error {
	if d.version == tilemap.OTBMVersion1 && it.Type().HasSubtype() {
		it.SetSubtype(uint16(props.U8()))
	}

	var attrs tile.Attributes
	for props.Len() > 0 && props.Err() == nil {
		switch attr := props.U8(); attr {
		case attrCount, attrRuneCharges:
			it.SetSubtype(uint16(props.U8()))
		case attrCharges:
			attrs.Charges = props.U16()
		case attrActionID:
			attrs.ActionID = props.U16()
		case attrUniqueID:
			attrs.UniqueID = props.U16()
		case attrText:
			attrs.Text = readString(props)
		case attrDesc:
			attrs.Description = readString(props)
		case attrTeleDest:
			dest := readPosition(props)
			attrs.TeleportDest = &dest
		case attrDepotID:
			attrs.DepotID = props.U16()
		case attrHouseDoorID:
			attrs.HouseDoorID = props.U8()
		case attrDuration:
			attrs.Duration = props.U32()
		case attrDecayingState:
			attrs.DecayingState = props.U8()
		case attrWrittenDate:
			attrs.WrittenDate = props.U32()
		case attrWrittenBy:
			attrs.WrittenBy = readString(props)
		case attrSleeperGUID:
			attrs.SleeperGUID = props.U32()
		case attrSleepStart:
			attrs.SleepStart = props.U32()
		default:
			return fmt.Errorf("%w: unknown item attribute %d", nodetree.ErrInvalidFormat, attr)
		}
	}
	if err := props.Err(); err != nil {
		return err
	}
	it.SetAttributes(attrs)

	for _, child := range node.Children {
		if child.Type != nodeItem {
			return fmt.Errorf("%w: unexpected node type %d in item", nodetree.ErrInvalidFormat, child.Type)
		}
		content, err := d.readItem(child)
		if err != nil {
			return err
		}
		if err := it.AddContent(content); err != nil {
			d.factory.Release(content)
			return fmt.Errorf("%w: %w", nodetree.ErrInvalidFormat, err)
		}
	}
	return nil
}

func (d *decoder) readTowns(node *nodetree.Node) error {
	for _, child := range node.Children {
		if child.Type != nodeTown {
			return fmt.Errorf("%w: unexpected node type %d in towns", nodetree.ErrInvalidFormat, child.Type)
		}
		props := child.Properties()
		var town tilemap.Town
		town.ID = props.U32()
		town.Name = readString(props)
		town.TemplePos = readPosition(props)
		if err := props.Err(); err != nil {
			return fmt.Errorf("town: %w", err)
		}
		if err := d.m.AddTown(town); err != nil {
			return fmt.Errorf("%w: %w", nodetree.ErrInvalidFormat, err)
		}
	}
	return nil
}

func (d *decoder) readWaypoints(node *nodetree.Node) error {
	for _, child := range node.Children {
		if child.Type != nodeWaypoint {
			return fmt.Errorf("%w: unexpected node type %d in waypoints", nodetree.ErrInvalidFormat, child.Type)
		}
		props := child.Properties()
		var waypoint tilemap.Waypoint
		waypoint.Name = readString(props)
		waypoint.Pos = readPosition(props)
		if err := props.Err(); err != nil {
			return fmt.Errorf("waypoint: %w", err)
		}
		if err := d.m.AddWaypoint(waypoint); err != nil {
			return fmt.Errorf("%w: %w", nodetree.ErrInvalidFormat, err)
		}
	}
	return nil
}

func readString(r *nodetree.PropertyReader) string {
	n := r.U16()
	return latin1.Decode(r.Bytes(int(n)))
}

func readPosition(r *nodetree.PropertyReader) tile.Position {
	x := r.U16()
	y := r.U16()
	z := r.U8()
	return tile.Position{X: x, Y: y, Z: z}
}

func releaseTile(factory *tile.Factory, t *tile.Tile) {
	factory.Release(t.Ground())
	for _, it := range t.Items() {
		factory.Release(it)
	}
}
