package tiledb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eak1mov/go-tilemap/tilemap"
)

const (
	metadataOTBMVersion = "otbm_version"
	metadataItemsMajor  = "items_major"
	metadataItemsMinor  = "items_minor"
	metadataWidth       = "width"
	metadataHeight      = "height"
	metadataDescription = "description"
	metadataSpawnFile   = "spawn_file"
	metadataHouseFile   = "house_file"
)

func mapMetadata(m *tilemap.Map) map[string]string {
	metadata := map[string]string{
		metadataOTBMVersion: strconv.FormatUint(uint64(m.Version.OTBM), 10),
		metadataItemsMajor:  strconv.FormatUint(uint64(m.Version.ItemsMajor), 10),
		metadataItemsMinor:  strconv.FormatUint(uint64(m.Version.ItemsMinor), 10),
		metadataWidth:       strconv.FormatUint(uint64(m.Width), 10),
		metadataHeight:      strconv.FormatUint(uint64(m.Height), 10),
		metadataSpawnFile:   m.SpawnFile,
		metadataHouseFile:   m.HouseFile,
	}
	if len(m.Descriptions) > 0 {
		metadata[metadataDescription] = strings.Join(m.Descriptions, "\n")
	}
	return metadata
}

// applyMetadata restores the map header fields. Missing keys keep the
// defaults of tilemap.New.
func applyMetadata(m *tilemap.Map, metadata map[string]string) error {
	parse := func(key string, bitSize int, set func(uint64)) error {
		value, ok := metadata[key]
		if !ok {
			return nil
		}
		n, err := strconv.ParseUint(value, 10, bitSize)
		if err != nil {
			return fmt.Errorf("tiledb: metadata %s: %w", key, err)
		}
		set(n)
		return nil
	}

	for _, err := range []error{
		parse(metadataOTBMVersion, 32, func(n uint64) { m.Version.OTBM = uint32(n) }),
		parse(metadataItemsMajor, 32, func(n uint64) { m.Version.ItemsMajor = uint32(n) }),
		parse(metadataItemsMinor, 32, func(n uint64) { m.Version.ItemsMinor = uint32(n) }),
		parse(metadataWidth, 16, func(n uint64) { m.Width = uint16(n) }),
		parse(metadataHeight, 16, func(n uint64) { m.Height = uint16(n) }),
	} {
		if err != nil {
			return err
		}
	}

	if description, ok := metadata[metadataDescription]; ok {
		m.Descriptions = strings.Split(description, "\n")
	}
	m.SpawnFile = metadata[metadataSpawnFile]
	m.HouseFile = metadata[metadataHouseFile]
	return nil
}
