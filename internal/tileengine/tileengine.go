// Package tileengine partitions an image buffer into tiles, runs the
// per-tile transform/compress/CRC pipeline in parallel, and reassembles a
// decoded image from tile payloads. It knows nothing about the container
// format (header, index, sections) — that's ctiformat's and the root
// package's job; tileengine only ever sees raw pixel buffers and tile
// geometry.
package tileengine

import (
	"context"
	"fmt"
	"hash/crc32"
	"runtime"

	"golang.org/x/sync/errgroup"

	"cti/internal/compressor"
	"cti/internal/ctiformat"
	"cti/internal/rct"
	"cti/ctierr"
)

// Params describes the geometry and codec settings shared by every tile in
// one encode or decode pass.
type Params struct {
	Width, Height uint32
	ColorType     ctiformat.ColorType
	TileSize      uint32
	Compression   ctiformat.CompressionKind
	Quality       uint8
	RCT           bool

	// Workers overrides the pool size; zero means runtime.NumCPU().
	Workers int
}

// EncodedTile is one tile's encode-pipeline output, ready for index and
// payload-region assembly.
type EncodedTile struct {
	CompressedSize uint32
	OriginalSize   uint32
	CRC32          uint32
	Payload        []byte
}

// EncodeTiles runs the encode pipeline (extract -> CRC -> RCT -> compress)
// over every tile in the grid implied by Params, in parallel, and returns
// results in row-major tile order.
func EncodeTiles(ctx context.Context, pixels []byte, p Params) ([]EncodedTile, error) {
	tilesX, tilesY := ctiformat.TileGrid(p.Width, p.Height, p.TileSize)
	n := int(tilesX) * int(tilesY)

	bpp, err := p.ColorType.BytesPerPixel()
	if err != nil {
		return nil, err
	}
	channels, _ := p.ColorType.Channels()
	sampleWidth, _ := p.ColorType.SampleWidth()

	comp, err := compressor.For(p.Compression, p.Quality)
	if err != nil {
		return nil, err
	}

	out := make([]EncodedTile, n)
	errs := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(p.Workers, n))

	for idx := 0; idx < n; idx++ {
		idx := idx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tx, ty := uint32(idx)%tilesX, uint32(idx)/tilesX
			x0, y0, w, h := ctiformat.UnpaddedTileRect(tx, ty, p.TileSize, p.Width, p.Height)
			buf := extractTile(pixels, p.Width, x0, y0, w, h, bpp)

			crc := crc32.ChecksumIEEE(buf)
			if p.RCT && p.ColorType.SupportsRCT() {
				forwardRCT(p.ColorType, buf)
			}

			shape := compressor.Shape{Width: int(w), Height: int(h), Channels: channels, SampleWidth: sampleWidth}
			compressed, err := comp.Compress(buf, shape)
			if err != nil {
				errs[idx] = fmt.Errorf("tile %d: %w", idx, err)
				return errs[idx]
			}
			out[idx] = EncodedTile{
				CompressedSize: uint32(len(compressed)),
				OriginalSize:   uint32(len(buf)),
				CRC32:          crc,
				Payload:        compressed,
			}
			return nil
		})
	}

	waitErr := g.Wait()
	if err := firstError(errs); err != nil {
		return nil, err
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return out, nil
}

// TileSource is one tile's on-disk record, as read by the caller from the
// index and payload region, ready to decode.
type TileSource struct {
	Payload      []byte
	OriginalSize uint32
	ExpectedCRC  uint32
}

// DecodeTiles runs the decode pipeline (decompress -> inverse RCT -> CRC
// verify -> blit) over every tile, in parallel, and returns the
// reassembled image pixel buffer.
func DecodeTiles(ctx context.Context, tiles []TileSource, p Params) ([]byte, error) {
	tilesX, tilesY := ctiformat.TileGrid(p.Width, p.Height, p.TileSize)
	n := int(tilesX) * int(tilesY)
	if len(tiles) != n {
		return nil, fmt.Errorf("%w: got %d tile sources, want %d", ctierr.ErrTruncatedIndex, len(tiles), n)
	}

	bpp, err := p.ColorType.BytesPerPixel()
	if err != nil {
		return nil, err
	}
	channels, _ := p.ColorType.Channels()
	sampleWidth, _ := p.ColorType.SampleWidth()

	comp, err := compressor.For(p.Compression, p.Quality)
	if err != nil {
		return nil, err
	}

	out := make([]byte, int(p.Width)*int(p.Height)*bpp)
	errs := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(p.Workers, n))

	for idx := range tiles {
		idx := idx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tx, ty := uint32(idx)%tilesX, uint32(idx)/tilesX
			x0, y0, w, h := ctiformat.UnpaddedTileRect(tx, ty, p.TileSize, p.Width, p.Height)

			shape := compressor.Shape{Width: int(w), Height: int(h), Channels: channels, SampleWidth: sampleWidth}
			raw, err := comp.Decompress(tiles[idx].Payload, int(tiles[idx].OriginalSize), shape)
			if err != nil {
				errs[idx] = fmt.Errorf("tile %d: %w", idx, err)
				return errs[idx]
			}
			if p.RCT && p.ColorType.SupportsRCT() {
				inverseRCT(p.ColorType, raw)
			}
			actual := crc32.ChecksumIEEE(raw)
			if actual != tiles[idx].ExpectedCRC {
				errs[idx] = &ctierr.TileCorruptedError{Index: idx, ExpectedCRC: tiles[idx].ExpectedCRC, ActualCRC: actual}
				return errs[idx]
			}
			blitTile(out, p.Width, x0, y0, w, h, bpp, raw)
			return nil
		})
	}

	waitErr := g.Wait()
	if err := firstError(errs); err != nil {
		return nil, err
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return out, nil
}

// firstError returns the first non-nil error in index order, so a tile
// that fails later in wall-clock time but earlier in the grid still wins
// over one that failed sooner but later in the grid.
func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func workerCount(override, n int) int {
	w := override
	if w == 0 {
		w = runtime.NumCPU()
	}
	return max(1, min(w, n))
}

func forwardRCT(ct ctiformat.ColorType, buf []byte) {
	switch ct {
	case ctiformat.RGB8:
		rct.ForwardRGB8(buf)
	case ctiformat.RGB16:
		rct.ForwardRGB16(buf)
	}
}

func inverseRCT(ct ctiformat.ColorType, buf []byte) {
	switch ct {
	case ctiformat.RGB8:
		rct.InverseRGB8(buf)
	case ctiformat.RGB16:
		rct.InverseRGB16(buf)
	}
}

func extractTile(pixels []byte, fullWidth, x0, y0, w, h uint32, bpp int) []byte {
	stride := int(fullWidth) * bpp
	rowBytes := int(w) * bpp
	buf := make([]byte, int(h)*rowBytes)
	for row := uint32(0); row < h; row++ {
		srcOff := int(y0+row)*stride + int(x0)*bpp
		dstOff := int(row) * rowBytes
		copy(buf[dstOff:dstOff+rowBytes], pixels[srcOff:srcOff+rowBytes])
	}
	return buf
}

func blitTile(dst []byte, fullWidth, x0, y0, w, h uint32, bpp int, tile []byte) {
	stride := int(fullWidth) * bpp
	rowBytes := int(w) * bpp
	for row := uint32(0); row < h; row++ {
		dstOff := int(y0+row)*stride + int(x0)*bpp
		srcOff := int(row) * rowBytes
		copy(dst[dstOff:dstOff+rowBytes], tile[srcOff:srcOff+rowBytes])
	}
}
