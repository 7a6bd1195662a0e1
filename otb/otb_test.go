package otb_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-tilemap/nodetree"
	"github.com/eak1mov/go-tilemap/otb"
	"github.com/eak1mov/go-tilemap/tile"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *tile.Catalog {
	t.Helper()
	catalog := tile.NewCatalog()
	catalog.MajorVersion = 3
	catalog.MinorVersion = 57
	catalog.BuildNumber = 62
	catalog.CSDVersion = "OTB 3.57.62-10.98"

	types := []*tile.ItemType{
		{ServerID: 100, ClientID: 4526, Group: tile.GroupGround, Name: "grass", Speed: 150, MinimapColor: 24},
		{
			ServerID: 200, ClientID: 4541, Name: "grass border",
			Flags: tile.FlagAlwaysOnTop, TopOrder: 1, Border: true,
			SpriteHash: bytes.Repeat([]byte{0xFE}, 16),
		},
		{ServerID: 300, ClientID: 1025, Name: "stone wall", Flags: tile.FlagBlockSolid | tile.FlagAlwaysOnTop, TopOrder: 2},
		{ServerID: 1987, ClientID: 1987, Group: tile.GroupContainer, Name: "bag", WareID: 1987},
		{ServerID: 2050, ClientID: 2050, Name: "torch", LightLevel: 6, LightColor: 206},
		{ServerID: 2597, ClientID: 2597, Name: "letter", Flags: tile.FlagReadable, MaxTextLen: 512},
		{ServerID: 3031, ClientID: 3031, Name: "gold coin", Flags: tile.FlagStackable},
		{ServerID: 4000, Name: "pärchment"},
	}
	for _, it := range types {
		require.NoError(t, catalog.Add(it))
	}
	return catalog
}

func catalogTypes(c *tile.Catalog) []*tile.ItemType {
	var types []*tile.ItemType
	for t := range c.All() {
		types = append(types, t)
	}
	return types
}

func TestRoundTrip(t *testing.T) {
	catalog := testCatalog(t)

	var buffer bytes.Buffer
	if err := otb.Write(&buffer, catalog); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	require.Equal(t, []byte{0, 0, 0, 0}, buffer.Bytes()[:4])

	got, err := otb.Read(buffer.Bytes())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	require.Equal(t, catalog.MajorVersion, got.MajorVersion)
	require.Equal(t, catalog.MinorVersion, got.MinorVersion)
	require.Equal(t, catalog.BuildNumber, got.BuildNumber)
	require.Equal(t, catalog.CSDVersion, got.CSDVersion)
	if diff := cmp.Diff(catalogTypes(catalog), catalogTypes(got)); diff != "" {
		t.Errorf("Read(Write(catalog)) mismatch (-want+got):\n%v", diff)
	}
}

func TestGroundBorderFromTopOrder(t *testing.T) {
	catalog := testCatalog(t)
	var buffer bytes.Buffer
	require.NoError(t, otb.Write(&buffer, catalog))

	got, err := otb.Read(buffer.Bytes())
	require.NoError(t, err)

	border, ok := got.Get(200)
	require.True(t, ok)
	require.True(t, border.IsGroundBorder())

	wall, ok := got.Get(300)
	require.True(t, ok)
	require.True(t, wall.AlwaysOnTop())
	require.False(t, wall.IsGroundBorder())
}

// rawCatalog encodes a catalog header followed by item nodes written by fn.
func rawCatalog(t *testing.T, fn func(w *nodetree.Writer)) []byte {
	t.Helper()
	var buffer bytes.Buffer
	w := nodetree.NewWriter(&buffer, nodetree.Identifier{})
	w.StartNode(0)
	w.U32(0)
	w.U8(0x01)
	w.U16(140)
	w.U32(1)
	w.U32(2)
	w.U32(3)
	w.Bytes(make([]byte, 128))
	fn(w)
	w.EndNode()
	require.NoError(t, w.Close())
	return buffer.Bytes()
}

func TestSkipsUnknownAttributes(t *testing.T) {
	data := rawCatalog(t, func(w *nodetree.Writer) {
		w.StartNode(uint8(tile.GroupNone))
		w.U32(0)
		w.U8(0x10) // server id
		w.U16(2)
		w.U16(7)
		w.U8(0x7E) // unknown, skipped by length
		w.U16(3)
		w.Bytes([]byte{0xFD, 0xFE, 0xFF})
		w.U8(0x11) // client id
		w.U16(2)
		w.U16(8)
		w.EndNode()
	})

	catalog, err := otb.Read(data)
	require.NoError(t, err)
	require.Equal(t, uint32(1), catalog.MajorVersion)
	require.Equal(t, uint32(3), catalog.BuildNumber)
	require.Equal(t, "", catalog.CSDVersion)
	require.Equal(t, 1, catalog.Len())
	it, ok := catalog.Get(7)
	require.True(t, ok)
	require.Equal(t, uint16(8), it.ClientID)
}

func TestReadErrors(t *testing.T) {
	catalog := testCatalog(t)
	var buffer bytes.Buffer
	require.NoError(t, otb.Write(&buffer, catalog))
	valid := buffer.Bytes()

	badIdentifier := bytes.Clone(valid)
	copy(badIdentifier, "OTBI")
	_, err := otb.Read(badIdentifier)
	require.ErrorIs(t, err, otb.ErrInvalidHeader)

	_, err = otb.Read(valid[:len(valid)-1])
	require.ErrorIs(t, err, nodetree.ErrInvalidFormat)

	itemWithID := func(w *nodetree.Writer) {
		w.StartNode(0)
		w.U32(0)
		w.U8(0x10)
		w.U16(2)
		w.U16(1)
		w.EndNode()
	}
	_, err = otb.Read(rawCatalog(t, func(w *nodetree.Writer) {
		itemWithID(w)
		itemWithID(w)
	}))
	require.ErrorIs(t, err, nodetree.ErrInvalidFormat, "duplicate server id")

	_, err = otb.Read(rawCatalog(t, func(w *nodetree.Writer) {
		w.StartNode(0)
		w.U32(0)
		w.U8(0x11)
		w.U16(2)
		w.U16(1)
		w.EndNode()
	}))
	require.ErrorIs(t, err, nodetree.ErrInvalidFormat, "missing server id")

	_, err = otb.Read(rawCatalog(t, func(w *nodetree.Writer) {
		w.StartNode(0)
		w.U32(0)
		w.U8(0x10)
		w.U16(40)
		w.U16(1)
		w.EndNode()
	}))
	require.ErrorIs(t, err, nodetree.ErrUnexpectedEnd, "attribute longer than node")
}

func TestLoadSave(t *testing.T) {
	catalog := testCatalog(t)
	filePath := filepath.Join(t.TempDir(), "items.otb")

	if err := otb.Save(filePath, catalog); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := otb.Load(filePath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	require.Equal(t, catalog.Len(), got.Len())

	_, err = otb.Load(filepath.Join(t.TempDir(), "missing.otb"))
	require.Error(t, err)
}

func TestWriteRejectsNonLatin1(t *testing.T) {
	catalog := tile.NewCatalog()
	require.NoError(t, catalog.Add(&tile.ItemType{ServerID: 1, Name: "剣"}))
	var buffer bytes.Buffer
	require.Error(t, otb.Write(&buffer, catalog))
}
