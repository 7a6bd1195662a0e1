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

// Metadata key holding the compression of the tile blobs.
const metadataCompression = "compression"

// Writer stores tiles in a new SQLite snapshot file.
//
// All rows are written in a single transaction committed by Finalize.
type Writer struct {
	db          *sql.DB
	tx          *sql.Tx
	stmt        *sql.Stmt
	compression Compression
	logger      *slog.Logger
}

type writerConfig struct {
	Metadata    map[string]string
	Compression Compression
	Logger      *slog.Logger
	Progress    func(tiles int)
}

type WriterOption func(*writerConfig)

func WithMetadata(metadata map[string]string) WriterOption {
	return func(c *writerConfig) { c.Metadata = metadata }
}

func WithCompression(compression Compression) WriterOption {
	return func(c *writerConfig) { c.Compression = compression }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// WithProgress registers a callback invoked by Export after each tile.
func WithProgress(progress func(tiles int)) WriterOption {
	return func(c *writerConfig) { c.Progress = progress }
}

func newWriterConfig(opts []WriterOption) writerConfig {
	config := writerConfig{
		Compression: CompressionZstd,
		Logger:      slog.New(slog.DiscardHandler),
		Progress:    func(int) {},
	}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// NewWriter creates a snapshot file at filePath.
// It applies given options and initializes the database for writing tiles.
func NewWriter(filePath string, opts ...WriterOption) (*Writer, error) {
	config := newWriterConfig(opts)
	if _, ok := compressionNames[config.Compression]; !ok {
		return nil, fmt.Errorf("compression not supported (%v)", config.Compression)
	}

	var err error
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	_, err = db.Exec(`
		CREATE TABLE metadata (name TEXT, value TEXT);
		CREATE TABLE tiles (
			z INTEGER,
			x INTEGER,
			y INTEGER,
			tile_code INTEGER,
			flags INTEGER,
			house_id INTEGER,
			tile_data BLOB
		);
		CREATE TABLE towns (id INTEGER PRIMARY KEY, name TEXT, x INTEGER, y INTEGER, z INTEGER);
		CREATE TABLE waypoints (name TEXT PRIMARY KEY, x INTEGER, y INTEGER, z INTEGER);
	`)
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	metadata := map[string]string{metadataCompression: config.Compression.String()}
	for k, v := range config.Metadata {
		metadata[k] = v
	}
	for k, v := range metadata {
		_, err = tx.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", k, v)
		if err != nil {
			return nil, err
		}
	}

	stmt, err := tx.Prepare("INSERT INTO tiles (z, x, y, tile_code, flags, house_id, tile_data) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}

	return &Writer{db, tx, stmt, config.Compression, config.Logger}, nil
}

// Close releases the database. Rows not committed by Finalize are discarded.
func (w *Writer) Close() error {
	var errs []error
	errs = append(errs, w.stmt.Close())
	if w.tx != nil {
		errs = append(errs, w.tx.Rollback())
	}
	errs = append(errs, w.db.Close())
	return errors.Join(errs...)
}

func (w *Writer) WriteTile(t *tile.Tile) error {
	if w.tx == nil {
		return errors.New("tiledb: write after finalize")
	}
	data, err := otbm.MarshalTile(t)
	if err != nil {
		return err
	}
	data, err = Compress(data, w.compression)
	if err != nil {
		return err
	}
	pos := t.Position()
	_, err = w.stmt.Exec(pos.Z, pos.X, pos.Y, EncodeTileCode(pos.X, pos.Y), uint32(t.Flags()), t.HouseID(), data)
	return err
}

func (w *Writer) WriteTown(town tilemap.Town) error {
	if w.tx == nil {
		return errors.New("tiledb: write after finalize")
	}
	pos := town.TemplePos
	_, err := w.tx.Exec("INSERT INTO towns (id, name, x, y, z) VALUES (?, ?, ?, ?, ?)", town.ID, town.Name, pos.X, pos.Y, pos.Z)
	return err
}

func (w *Writer) WriteWaypoint(waypoint tilemap.Waypoint) error {
	if w.tx == nil {
		return errors.New("tiledb: write after finalize")
	}
	pos := waypoint.Pos
	_, err := w.tx.Exec("INSERT INTO waypoints (name, x, y, z) VALUES (?, ?, ?, ?)", waypoint.Name, pos.X, pos.Y, pos.Z)
	return err
}

// Finalize commits the written rows and creates the tile indexes.
func (w *Writer) Finalize() error {
	if w.tx == nil {
		return errors.New("tiledb: already finalized")
	}
	w.logger.Debug("tiledb: commit")
	err := w.tx.Commit()
	w.tx = nil
	if err != nil {
		return err
	}

	w.logger.Debug("tiledb: creating index")
	_, err = w.db.Exec(`
		CREATE UNIQUE INDEX tile_index ON tiles (z, x, y);
		CREATE INDEX tile_code_index ON tiles (z, tile_code);
	`)

	// TODO(eak1mov): run VACUUM?

	w.logger.Debug("tiledb: done!")
	return err
}

// Export writes the tiles with content, towns, waypoints and metadata of m
// to a new snapshot file.
func Export(filePath string, m *tilemap.Map, opts ...WriterOption) (err error) {
	config := newWriterConfig(opts)
	metadata := mapMetadata(m)
	for k, v := range config.Metadata {
		metadata[k] = v
	}
	opts = append(opts, WithMetadata(metadata))

	w, err := NewWriter(filePath, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()

	tiles := 0
	for t := range m.Tiles() {
		if t.Empty() && t.Flags() == 0 && t.HouseID() == 0 {
			continue
		}
		if err := w.WriteTile(t); err != nil {
			return fmt.Errorf("tiledb: tile %v: %w", t.Position(), err)
		}
		tiles++
		config.Progress(tiles)
	}
	for _, town := range m.Towns() {
		if err := w.WriteTown(town); err != nil {
			return fmt.Errorf("tiledb: town %d: %w", town.ID, err)
		}
	}
	for _, waypoint := range m.Waypoints() {
		if err := w.WriteWaypoint(waypoint); err != nil {
			return fmt.Errorf("tiledb: waypoint %q: %w", waypoint.Name, err)
		}
	}

	config.Logger.Debug("tiledb: exported", slog.Int("tiles", tiles))
	return w.Finalize()
}
