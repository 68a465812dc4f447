package ctiformat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cti/ctierr"
)

func TestHeader_RoundTrip(t *testing.T) {
	h := Header{
		Version:     Version,
		Flags:       FlagRCT,
		Width:       1920,
		Height:      1080,
		TileSize:    256,
		TilesX:      8,
		TilesY:      5,
		ColorType:   RGB8,
		Compression: CompZstd,
		Quality:     70,
	}
	buf := h.Encode()
	require.Len(t, buf, HeaderSize)

	got, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, *got)
	assert.True(t, got.RCTApplied())
}

func TestDecodeHeader_BadMagic(t *testing.T) {
	buf := make([]byte, HeaderSize)
	copy(buf, "XXXX")
	_, err := DecodeHeader(buf)
	assert.True(t, errors.Is(err, ctierr.ErrBadMagic))
}

func TestDecodeHeader_Truncated(t *testing.T) {
	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	assert.True(t, errors.Is(err, ctierr.ErrMalformedHeader))
}

func TestDecodeHeader_UnsupportedVersion(t *testing.T) {
	h := Header{Version: Version, Width: 1, Height: 1, TileSize: 1, TilesX: 1, TilesY: 1, ColorType: L8}
	buf := h.Encode()
	buf[4] = 0xFF
	buf[5] = 0xFF
	_, err := DecodeHeader(buf)
	assert.True(t, errors.Is(err, ctierr.ErrUnsupportedVersion))
}

func TestTileIndexEntry_RoundTrip(t *testing.T) {
	e := TileIndexEntry{Offset: 123456789, CompressedSize: 4096, OriginalSize: 8192, CRC32: 0xDEADBEEF}
	buf := e.Encode()
	require.Len(t, buf, IndexEntrySize)
	assert.Equal(t, e, DecodeTileIndexEntry(buf))
}

func TestDecodeIndex_Truncated(t *testing.T) {
	e := TileIndexEntry{Offset: 1, CompressedSize: 1, OriginalSize: 1}
	buf := e.Encode()
	_, err := DecodeIndex(buf, 2)
	assert.True(t, errors.Is(err, ctierr.ErrTruncatedIndex))
}

func TestTileGrid(t *testing.T) {
	tests := []struct {
		w, h, tile   uint32
		wantX, wantY uint32
	}{
		{256, 256, 256, 1, 1},
		{257, 256, 256, 2, 1},
		{1920, 1080, 256, 8, 5},
		{1, 1, 256, 1, 1},
	}
	for _, tt := range tests {
		x, y := TileGrid(tt.w, tt.h, tt.tile)
		assert.Equal(t, tt.wantX, x)
		assert.Equal(t, tt.wantY, y)
	}
}

func TestUnpaddedTileRect_ClipsLastRowAndColumn(t *testing.T) {
	x0, y0, w, h := UnpaddedTileRect(1, 1, 100, 150, 150)
	assert.Equal(t, uint32(100), x0)
	assert.Equal(t, uint32(100), y0)
	assert.Equal(t, uint32(50), w)
	assert.Equal(t, uint32(50), h)
}

func TestUnpaddedTileRect_FullTile(t *testing.T) {
	x0, y0, w, h := UnpaddedTileRect(0, 0, 64, 256, 256)
	assert.Equal(t, uint32(0), x0)
	assert.Equal(t, uint32(0), y0)
	assert.Equal(t, uint32(64), w)
	assert.Equal(t, uint32(64), h)
}
