package tiledb_test

import (
	"bytes"
	"testing"

	"github.com/eak1mov/go-tilemap/tiledb"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCompression(t *testing.T) {
	dataCases := []struct {
		Name string
		Data []byte
	}{
		{Name: "Repeat", Data: bytes.Repeat([]byte{42}, 100500)},
		{Name: "Foobar", Data: []byte("foobar")},
		{Name: "Empty", Data: []byte{}},
	}
	compressionCases := []struct {
		Name        string
		Compression tiledb.Compression
	}{
		{Name: "None", Compression: tiledb.CompressionNone},
		{Name: "Gzip", Compression: tiledb.CompressionGzip},
		{Name: "Zstd", Compression: tiledb.CompressionZstd},
	}
	for _, dc := range dataCases {
		for _, cc := range compressionCases {
			t.Run(dc.Name+cc.Name, func(t *testing.T) {
				compressed, err := tiledb.Compress(dc.Data, cc.Compression)
				if err != nil {
					t.Fatalf("Compress failed: %v", err)
				}
				decompressed, err := tiledb.Decompress(compressed, cc.Compression)
				if err != nil {
					t.Fatalf("Decompress failed: %v", err)
				}
				if !cmp.Equal(dc.Data, decompressed, cmp.Comparer(bytes.Equal)) {
					t.Errorf("Decompress(Compress(input)) != input")
				}
			})
		}
	}
}

func TestCompressionUnsupported(t *testing.T) {
	_, err := tiledb.Compress([]byte("x"), tiledb.CompressionUnknown)
	require.Error(t, err)
	_, err = tiledb.Decompress([]byte("x"), tiledb.Compression(42))
	require.Error(t, err)
	_, err = tiledb.Decompress([]byte("not gzip"), tiledb.CompressionGzip)
	require.Error(t, err)
	_, err = tiledb.Decompress([]byte("not zstd"), tiledb.CompressionZstd)
	require.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []tiledb.Compression{tiledb.CompressionNone, tiledb.CompressionGzip, tiledb.CompressionZstd} {
		got, err := tiledb.ParseCompression(c.String())
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
	_, err := tiledb.ParseCompression("brotli")
	require.Error(t, err)
	require.Equal(t, "unknown(42)", tiledb.Compression(42).String())
}
