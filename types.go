package cti

import (
	"fmt"

	"cti/internal/ctiformat"
)

// ColorType identifies the sample layout of an Image's pixel buffer.
// It is an alias of ctiformat.ColorType so the root package and the
// internal codec pipeline share one definition without an import cycle.
type ColorType = ctiformat.ColorType

const (
	L8    = ctiformat.L8
	L16   = ctiformat.L16
	RGB8  = ctiformat.RGB8
	RGBA8 = ctiformat.RGBA8
	RGB16 = ctiformat.RGB16
)

// CompressionKind identifies a tile's compressor, both in memory and on the wire.
type CompressionKind = ctiformat.CompressionKind

const (
	CompNone          = ctiformat.CompNone
	CompRLE           = ctiformat.CompRLE
	CompLZ77          = ctiformat.CompLZ77
	CompDeltaRLE      = ctiformat.CompDeltaRLE
	CompPredictiveRLE = ctiformat.CompPredictiveRLE
	CompZstd          = ctiformat.CompZstd
	CompLZ4           = ctiformat.CompLZ4
)

// Image is a raster image owned by the caller: row-major, top-to-bottom,
// left-to-right, with samples in channel order (R,G,B[,A]) and 16-bit
// samples little-endian.
type Image struct {
	Width     uint32
	Height    uint32
	ColorType ColorType
	Pixels    []byte
}

// Validate checks that Pixels has exactly the length implied by Width,
// Height and ColorType.
func (img *Image) Validate() error {
	bpp, err := img.ColorType.BytesPerPixel()
	if err != nil {
		return err
	}
	want := uint64(img.Width) * uint64(img.Height) * uint64(bpp)
	if uint64(len(img.Pixels)) != want {
		return fmt.Errorf("cti: pixel buffer has %d bytes, want %d (%dx%d %s)",
			len(img.Pixels), want, img.Width, img.Height, img.ColorType)
	}
	return nil
}

// DPI is a pair of horizontal/vertical resolution values in dots per inch,
// carried opaquely in the RES section.
type DPI struct {
	X, Y float32
}

// EncodeParams controls Encode's behavior. The zero value is invalid;
// construct via DefaultEncodeParams and override fields as needed.
type EncodeParams struct {
	TileSize    uint32
	Compression CompressionKind
	Quality     uint8
	RCTEnabled  bool
	DPI         *DPI
	ICC         []byte

	// Workers overrides the tile-pipeline worker-pool size; zero means
	// runtime.NumCPU(). Exposed for deterministic tests of the
	// cancel-on-first-error path, not part of the wire format.
	Workers int
}

// DefaultEncodeParams returns the baseline parameter set: 256px tiles, no
// compression, quality 0, RCT disabled, no sections.
func DefaultEncodeParams() EncodeParams {
	return EncodeParams{
		TileSize:    256,
		Compression: CompNone,
		Quality:     0,
	}
}

// NDKPreset returns the "NDK archival" preset: Zstd compression at quality
// 70, RCT enabled, 512px tiles.
func NDKPreset() EncodeParams {
	return EncodeParams{
		TileSize:    512,
		Compression: CompZstd,
		Quality:     70,
		RCTEnabled:  true,
	}
}

// Validate checks EncodeParams for usage errors before Encode does any work.
func (p *EncodeParams) Validate() error {
	if p.TileSize < 1 || p.TileSize > 65536 {
		return fmt.Errorf("cti: tile_size must be in [1,65536], got %d", p.TileSize)
	}
	switch p.Compression {
	case CompNone, CompRLE, CompLZ77, CompDeltaRLE, CompPredictiveRLE, CompZstd, CompLZ4:
	default:
		return fmt.Errorf("cti: unknown compression id %d", uint8(p.Compression))
	}
	return nil
}

// SectionTOCEntry describes one section's location for Metadata.
type SectionTOCEntry struct {
	Type   uint32
	Offset uint64
	Size   uint64
}

// IndexSummary aggregates the per-tile index without decompressing tiles.
type IndexSummary struct {
	TileCount      int
	MinCompressed  uint32
	AvgCompressed  float64
	MaxCompressed  uint32
}

// Metadata is the result of Info: header fields, derived index statistics,
// and the section TOC, all obtainable without decompressing any tile.
type Metadata struct {
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
	RCTApplied  bool

	Index    IndexSummary
	Sections []SectionTOCEntry
}

// DecodeResult is the return value of Decode: the reconstructed image plus
// whatever section metadata was carried in the trailer.
type DecodeResult struct {
	Image Image
	DPI   *DPI
	ICC   []byte
}
