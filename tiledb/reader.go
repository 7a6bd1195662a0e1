// Package tiledb stores tile maps as SQLite snapshot files.
//
// Each tile is a row holding its position, Hilbert tile code, flags, house id
// and the tile content encoded with otbm.MarshalTile and compressed.
//
// Note: User must properly initialize the sqlite3 library generic driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this package.
package tiledb

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eak1mov/go-tilemap/otbm"
	"github.com/eak1mov/go-tilemap/tile"
	"github.com/eak1mov/go-tilemap/tilemap"
)

// Reader reads tiles from a snapshot file.
type Reader struct {
	db          *sql.DB
	stmt        *sql.Stmt
	factory     *tile.Factory
	compression Compression
}

// NewReader opens the snapshot at filePath. Items of the decoded tiles are
// created by factory.
//
// The returned Reader must be closed after use to release database resources.
func NewReader(filePath string, factory *tile.Factory) (*Reader, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	r := &Reader{db: db, factory: factory}
	if err := r.init(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) init() error {
	var name string
	err := r.db.QueryRow("SELECT value FROM metadata WHERE name = ?", metadataCompression).Scan(&name)
	if err != nil {
		return fmt.Errorf("tiledb: read compression: %w", err)
	}
	if r.compression, err = ParseCompression(name); err != nil {
		return fmt.Errorf("tiledb: %w", err)
	}

	r.stmt, err = r.db.Prepare("SELECT flags, house_id, tile_data FROM tiles WHERE z = ? AND x = ? AND y = ?")
	return err
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

func (r *Reader) Compression() Compression {
	return r.compression
}

func (r *Reader) ReadMetadata() (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metadata, nil
}

// ReadTile returns the tile at pos, or nil if the snapshot has none.
func (r *Reader) ReadTile(pos tile.Position) (*tile.Tile, error) {
	var flags, houseID uint32
	var tileData []byte
	if err := r.stmt.QueryRow(pos.Z, pos.X, pos.Y).Scan(&flags, &houseID, &tileData); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.decodeTile(pos, flags, houseID, tileData)
}

func (r *Reader) decodeTile(pos tile.Position, flags, houseID uint32, tileData []byte) (*tile.Tile, error) {
	data, err := Decompress(tileData, r.compression)
	if err != nil {
		return nil, fmt.Errorf("tiledb: tile %v: %w", pos, err)
	}
	t, err := otbm.UnmarshalTile(data, pos, r.factory)
	if err != nil {
		return nil, fmt.Errorf("tiledb: tile %v: %w", pos, err)
	}
	if t.Flags() != tile.TileFlags(flags) || t.HouseID() != houseID {
		return nil, fmt.Errorf("tiledb: tile %v: row columns disagree with tile data", pos)
	}
	return t, nil
}

// VisitTiles calls visitor for every stored tile, floor by floor in tile code
// order. The visitor owns the tiles it receives.
func (r *Reader) VisitTiles(visitor func(*tile.Tile) error) error {
	rows, err := r.db.Query("SELECT z, x, y, flags, house_id, tile_data FROM tiles ORDER BY z, tile_code")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var pos tile.Position
		var flags, houseID uint32
		var tileData []byte

		if err := rows.Scan(&pos.Z, &pos.X, &pos.Y, &flags, &houseID, &tileData); err != nil {
			return err
		}

		t, err := r.decodeTile(pos, flags, houseID, tileData)
		if err != nil {
			return err
		}
		if err := visitor(t); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return err
	}

	return nil
}

func (r *Reader) ReadTowns() ([]tilemap.Town, error) {
	rows, err := r.db.Query("SELECT id, name, x, y, z FROM towns ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var towns []tilemap.Town
	for rows.Next() {
		var town tilemap.Town
		pos := &town.TemplePos
		if err := rows.Scan(&town.ID, &town.Name, &pos.X, &pos.Y, &pos.Z); err != nil {
			return nil, err
		}
		towns = append(towns, town)
	}
	return towns, rows.Err()
}

func (r *Reader) ReadWaypoints() ([]tilemap.Waypoint, error) {
	rows, err := r.db.Query("SELECT name, x, y, z FROM waypoints ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waypoints []tilemap.Waypoint
	for rows.Next() {
		var waypoint tilemap.Waypoint
		pos := &waypoint.Pos
		if err := rows.Scan(&waypoint.Name, &pos.X, &pos.Y, &pos.Z); err != nil {
			return nil, err
		}
		waypoints = append(waypoints, waypoint)
	}
	return waypoints, rows.Err()
}

type readerConfig struct {
	Logger   *slog.Logger
	Progress func(tiles int)
}

type ReaderOption func(*readerConfig)

func WithReaderLogger(logger *slog.Logger) ReaderOption {
	return func(c *readerConfig) { c.Logger = logger }
}

// WithReaderProgress registers a callback invoked by Import after each tile.
func WithReaderProgress(progress func(tiles int)) ReaderOption {
	return func(c *readerConfig) { c.Progress = progress }
}

// Import reads a whole snapshot into a new map. On error no map is returned
// and the items created so far are released.
func Import(filePath string, factory *tile.Factory, opts ...ReaderOption) (m *tilemap.Map, err error) {
	config := readerConfig{
		Logger:   slog.New(slog.DiscardHandler),
		Progress: func(int) {},
	}
	for _, opt := range opts {
		opt(&config)
	}

	r, err := NewReader(filePath, factory)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, r.Close())
		if err != nil && m != nil {
			for t := range m.Tiles() {
				releaseTile(factory, t)
			}
			m = nil
		}
	}()

	metadata, err := r.ReadMetadata()
	if err != nil {
		return nil, err
	}
	m = tilemap.New()
	if err := applyMetadata(m, metadata); err != nil {
		return m, err
	}

	config.Logger.Debug("tiledb: reading tiles", slog.String("compression", r.Compression().String()))
	tiles := 0
	err = r.VisitTiles(func(t *tile.Tile) error {
		if old := m.ReplaceTile(t); old != nil {
			releaseTile(factory, old)
		}
		tiles++
		config.Progress(tiles)
		return nil
	})
	if err != nil {
		return m, err
	}

	towns, err := r.ReadTowns()
	if err != nil {
		return m, err
	}
	for _, town := range towns {
		if err := m.AddTown(town); err != nil {
			return m, err
		}
	}
	waypoints, err := r.ReadWaypoints()
	if err != nil {
		return m, err
	}
	for _, waypoint := range waypoints {
		if err := m.AddWaypoint(waypoint); err != nil {
			return m, err
		}
	}

	config.Logger.Debug("tiledb: done!", slog.Int("tiles", tiles))
	return m, nil
}

func releaseTile(factory *tile.Factory, t *tile.Tile) {
	factory.Release(t.Ground())
	for _, it := range t.Items() {
		factory.Release(it)
	}
}
