// Package otb reads and writes the item-type definition file (items.otb).
package otb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/eak1mov/go-tilemap/internal/latin1"
	"github.com/eak1mov/go-tilemap/nodetree"
	"github.com/eak1mov/go-tilemap/tile"
)

var ErrInvalidHeader = fmt.Errorf("%w: invalid item definition header", nodetree.ErrInvalidFormat)

const (
	rootAttrVersion = 0x01

	versionDataLength = 4 + 4 + 4 + csdLength
	csdLength         = 128
	spriteHashLength  = 16
)

const (
	attrServerID     = 0x10
	attrClientID     = 0x11
	attrName         = 0x12
	attrSpeed        = 0x14
	attrSpriteHash   = 0x20
	attrMinimapColor = 0x21
	attrLight        = 0x2A
	attrTopOrder     = 0x2B
	attrMaxTextLen   = 0x2C
	attrWareID       = 0x2D
)

// Load reads an item definition file.
func Load(filePath string) (*tile.Catalog, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	catalog, err := Read(data)
	if err != nil {
		return nil, fmt.Errorf("otb: load %s: %w", filePath, err)
	}
	return catalog, nil
}

// Read decodes an item definition file held in memory.
func Read(data []byte) (*tile.Catalog, error) {
	tree, err := nodetree.Parse(data)
	if err != nil {
		return nil, err
	}
	if tree.Identifier != (nodetree.Identifier{}) {
		return nil, fmt.Errorf("%w: identifier %x", ErrInvalidHeader, tree.Identifier)
	}

	catalog := tile.NewCatalog()
	if err := readRoot(tree.Root, catalog); err != nil {
		return nil, err
	}

	for i, node := range tree.Root.Children {
		t, err := readItemType(node)
		if err != nil {
			return nil, fmt.Errorf("item node %d: %w", i, err)
		}
		if err := catalog.Add(t); err != nil {
			return nil, fmt.Errorf("%w: %w", nodetree.ErrInvalidFormat, err)
		}
	}

	return catalog, nil
}

func readRoot(root *nodetree.Node, catalog *tile.Catalog) error {
	props := root.Properties()
	props.U32() // flags, unused
	if props.Len() == 0 {
		return props.Err()
	}
	if attr := props.U8(); attr != rootAttrVersion {
		return fmt.Errorf("%w: unexpected root attribute 0x%02X", ErrInvalidHeader, attr)
	}
	if length := props.U16(); length != versionDataLength {
		return fmt.Errorf("%w: version data length %d", ErrInvalidHeader, length)
	}
	catalog.MajorVersion = props.U32()
	catalog.MinorVersion = props.U32()
	catalog.BuildNumber = props.U32()
	csd := props.Bytes(csdLength)
	if err := props.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if n := bytes.IndexByte(csd, 0); n >= 0 {
		csd = csd[:n]
	}
	catalog.CSDVersion = latin1.Decode(csd)
	return nil
}

func readItemType(node *nodetree.Node) (*tile.ItemType, error) {
	t := &tile.ItemType{Group: tile.Group(node.Type)}
	props := node.Properties()
	t.Flags = tile.Flags(props.U32())

	hasServerID := false
	for props.Len() > 0 && props.Err() == nil {
		attr := props.U8()
		length := int(props.U16())
		data := nodetree.NewPropertyReader(props.Bytes(length))
		if props.Err() != nil {
			break
		}

		switch attr {
		case attrServerID:
			t.ServerID = data.U16()
			hasServerID = true
		case attrClientID:
			t.ClientID = data.U16()
		case attrName:
			t.Name = latin1.Decode(data.Bytes(length))
		case attrSpeed:
			t.Speed = data.U16()
		case attrSpriteHash:
			t.SpriteHash = bytes.Clone(data.Bytes(spriteHashLength))
		case attrMinimapColor:
			t.MinimapColor = data.U16()
		case attrLight:
			t.LightLevel = data.U16()
			t.LightColor = data.U16()
		case attrTopOrder:
			t.TopOrder = data.U8()
		case attrMaxTextLen:
			t.MaxTextLen = data.U16()
		case attrWareID:
			t.WareID = data.U16()
		}
		if err := data.Err(); err != nil {
			return nil, fmt.Errorf("attribute 0x%02X: %w", attr, err)
		}
	}
	if err := props.Err(); err != nil {
		return nil, err
	}
	if !hasServerID {
		return nil, fmt.Errorf("%w: item type without server id", nodetree.ErrInvalidFormat)
	}

	t.Border = t.AlwaysOnTop() && t.TopOrder == 1
	return t, nil
}

// Save writes the catalog to filePath.
func Save(filePath string, catalog *tile.Catalog) (err error) {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()
	if err := Write(file, catalog); err != nil {
		return fmt.Errorf("otb: save %s: %w", filePath, err)
	}
	return nil
}

// Write encodes the catalog, item types ordered by server id.
func Write(w io.Writer, catalog *tile.Catalog) error {
	csd, err := latin1.Encode(catalog.CSDVersion)
	if err != nil {
		return err
	}
	if len(csd) > csdLength {
		return fmt.Errorf("otb: CSD version too long (%d bytes)", len(csd))
	}

	writer := nodetree.NewWriter(w, nodetree.Identifier{})
	writer.StartNode(0)
	writer.U32(0)
	writer.U8(rootAttrVersion)
	writer.U16(versionDataLength)
	writer.U32(catalog.MajorVersion)
	writer.U32(catalog.MinorVersion)
	writer.U32(catalog.BuildNumber)
	writer.Bytes(append(csd, make([]byte, csdLength-len(csd))...))

	for t := range catalog.All() {
		if err := writeItemType(writer, t); err != nil {
			return fmt.Errorf("item type %d: %w", t.ServerID, err)
		}
	}

	writer.EndNode()
	return writer.Close()
}

func writeItemType(w *nodetree.Writer, t *tile.ItemType) error {
	w.StartNode(uint8(t.Group))
	w.U32(uint32(t.Flags))

	attrU16 := func(attr uint8, v uint16) {
		w.U8(attr)
		w.U16(2)
		w.U16(v)
	}

	attrU16(attrServerID, t.ServerID)
	attrU16(attrClientID, t.ClientID)
	if t.Name != "" {
		name, err := latin1.Encode(t.Name)
		if err != nil {
			return err
		}
		if len(name) > 0xFFFF {
			return fmt.Errorf("otb: name too long (%d bytes)", len(name))
		}
		w.U8(attrName)
		w.U16(uint16(len(name)))
		w.Bytes(name)
	}
	if t.Speed != 0 {
		attrU16(attrSpeed, t.Speed)
	}
	if len(t.SpriteHash) > 0 {
		if len(t.SpriteHash) != spriteHashLength {
			return fmt.Errorf("otb: sprite hash length %d", len(t.SpriteHash))
		}
		w.U8(attrSpriteHash)
		w.U16(spriteHashLength)
		w.Bytes(t.SpriteHash)
	}
	if t.MinimapColor != 0 {
		attrU16(attrMinimapColor, t.MinimapColor)
	}
	if t.LightLevel != 0 || t.LightColor != 0 {
		w.U8(attrLight)
		w.U16(4)
		w.U16(t.LightLevel)
		w.U16(t.LightColor)
	}
	if t.TopOrder != 0 {
		w.U8(attrTopOrder)
		w.U16(1)
		w.U8(t.TopOrder)
	}
	if t.MaxTextLen != 0 {
		attrU16(attrMaxTextLen, t.MaxTextLen)
	}
	if t.WareID != 0 {
		attrU16(attrWareID, t.WareID)
	}

	w.EndNode()
	return w.Err()
}
