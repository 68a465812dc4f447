package ctiformat

import (
	"encoding/binary"
	"fmt"

	"cti/ctierr"
)

const (
	// Magic is the fixed 4-byte file signature.
	Magic = "CTI1"
	// Version is the only wire version this implementation writes or reads.
	Version uint16 = 1
	// HeaderSize is the fixed on-disk size of the header, in bytes.
	HeaderSize = 64
	// IndexEntrySize is the fixed on-disk size of one TileIndexEntry.
	IndexEntrySize = 20

	// FlagRCT is header.Flags bit 0: the reversible color transform was
	// applied to every tile at encode time.
	FlagRCT uint16 = 1 << 0
)

// Header is the 64-byte CTI file header.
type Header struct {
	Version     uint16
	Flags       uint16
	Width       uint32
	Height      uint32
	TileSize    uint32
	TilesX      uint32
	TilesY      uint32
	ColorType   ColorType
	Compression CompressionKind
	Quality     uint8
}

// RCTApplied reports whether FlagRCT is set.
func (h *Header) RCTApplied() bool { return h.Flags&FlagRCT != 0 }

// Encode writes h's 64-byte on-disk representation.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint32(buf[8:12], h.Width)
	binary.LittleEndian.PutUint32(buf[12:16], h.Height)
	binary.LittleEndian.PutUint32(buf[16:20], h.TileSize)
	binary.LittleEndian.PutUint32(buf[20:24], h.TilesX)
	binary.LittleEndian.PutUint32(buf[24:28], h.TilesY)
	buf[28] = uint8(h.ColorType)
	buf[29] = uint8(h.Compression)
	buf[30] = h.Quality
	// buf[31:64] (reserved) left zero.
	return buf
}

// DecodeHeader parses a 64-byte header. It checks only the length, the
// magic and the version; it does not validate semantic bounds (e.g. tile
// grid vs width/height).
func DecodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ctierr.ErrMalformedHeader, HeaderSize, len(buf))
	}
	if string(buf[0:4]) != Magic {
		return nil, fmt.Errorf("%w: got %q", ctierr.ErrBadMagic, buf[0:4])
	}
	h := &Header{
		Version:     binary.LittleEndian.Uint16(buf[4:6]),
		Flags:       binary.LittleEndian.Uint16(buf[6:8]),
		Width:       binary.LittleEndian.Uint32(buf[8:12]),
		Height:      binary.LittleEndian.Uint32(buf[12:16]),
		TileSize:    binary.LittleEndian.Uint32(buf[16:20]),
		TilesX:      binary.LittleEndian.Uint32(buf[20:24]),
		TilesY:      binary.LittleEndian.Uint32(buf[24:28]),
		ColorType:   ColorType(buf[28]),
		Compression: CompressionKind(buf[29]),
		Quality:     buf[30],
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ctierr.ErrUnsupportedVersion, h.Version, Version)
	}
	return h, nil
}

// TileIndexEntry is the 20-byte fixed-width per-tile record.
type TileIndexEntry struct {
	Offset         uint64
	CompressedSize uint32
	OriginalSize   uint32
	CRC32          uint32
}

// Encode writes e's 20-byte on-disk representation.
func (e *TileIndexEntry) Encode() []byte {
	buf := make([]byte, IndexEntrySize)
	binary.LittleEndian.PutUint64(buf[0:8], e.Offset)
	binary.LittleEndian.PutUint32(buf[8:12], e.CompressedSize)
	binary.LittleEndian.PutUint32(buf[12:16], e.OriginalSize)
	binary.LittleEndian.PutUint32(buf[16:20], e.CRC32)
	return buf
}

// DecodeTileIndexEntry parses one 20-byte index entry.
func DecodeTileIndexEntry(buf []byte) TileIndexEntry {
	return TileIndexEntry{
		Offset:         binary.LittleEndian.Uint64(buf[0:8]),
		CompressedSize: binary.LittleEndian.Uint32(buf[8:12]),
		OriginalSize:   binary.LittleEndian.Uint32(buf[12:16]),
		CRC32:          binary.LittleEndian.Uint32(buf[16:20]),
	}
}

// DecodeIndex parses count consecutive TileIndexEntry records from buf.
func DecodeIndex(buf []byte, count int) ([]TileIndexEntry, error) {
	need := count * IndexEntrySize
	if len(buf) < need {
		return nil, fmt.Errorf("%w: need %d bytes for %d tiles, got %d", ctierr.ErrTruncatedIndex, need, count, len(buf))
	}
	entries := make([]TileIndexEntry, count)
	for i := range entries {
		entries[i] = DecodeTileIndexEntry(buf[i*IndexEntrySize:])
	}
	return entries, nil
}

// TileGrid returns tiles_x, tiles_y for an image of the given dimensions
// and tile size.
func TileGrid(width, height, tileSize uint32) (tilesX, tilesY uint32) {
	tilesX = (width + tileSize - 1) / tileSize
	tilesY = (height + tileSize - 1) / tileSize
	return
}

// UnpaddedTileRect returns the pixel rectangle tile (tx,ty) occupies in an
// image of the given dimensions and tile size, clipped to the image bounds.
func UnpaddedTileRect(tx, ty, tileSize, width, height uint32) (x0, y0, w, h uint32) {
	x0 = tx * tileSize
	y0 = ty * tileSize
	endX := x0 + tileSize
	if endX > width {
		endX = width
	}
	endY := y0 + tileSize
	if endY > height {
		endY = height
	}
	return x0, y0, endX - x0, endY - y0
}
