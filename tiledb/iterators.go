package tiledb

import (
	"errors"
	"iter"

	"github.com/eak1mov/go-tilemap/tile"
)

var errVisitCancelled = errors.New("visit cancelled")

// Tiles returns an iterator over all stored tiles in VisitTiles order.
// A failure is yielded once as a nil tile with the error, ending iteration.
func (r *Reader) Tiles() iter.Seq2[*tile.Tile, error] {
	return func(yield func(*tile.Tile, error) bool) {
		err := r.VisitTiles(func(t *tile.Tile) error {
			if !yield(t, nil) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && !errors.Is(err, errVisitCancelled) {
			yield(nil, err)
		}
	}
}
