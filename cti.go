package cti

import (
	"context"
	"fmt"

	"cti/ctierr"
	"cti/internal/ctiformat"
	"cti/internal/tileengine"
)

// Encode runs the full encode pipeline over image and returns a complete
// CTI byte stream: header, tile index, tile payloads, and an optional
// section trailer (RES before ICC). It is deterministic for a given
// (image, params) up to the internal determinism of the selected
// compressor.
func Encode(image Image, params EncodeParams) ([]byte, error) {
	return EncodeContext(context.Background(), image, params)
}

// EncodeContext is Encode with caller-supplied cancellation: cancelling ctx
// stops outstanding tile workers and the first resulting error is returned.
func EncodeContext(ctx context.Context, image Image, params EncodeParams) ([]byte, error) {
	if err := image.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ctierr.ErrUsage, err)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ctierr.ErrUsage, err)
	}

	rctApplied := params.RCTEnabled && image.ColorType.SupportsRCT()
	tilesX, tilesY := ctiformat.TileGrid(image.Width, image.Height, params.TileSize)

	tiles, err := tileengine.EncodeTiles(ctx, image.Pixels, tileengine.Params{
		Width:       image.Width,
		Height:      image.Height,
		ColorType:   image.ColorType,
		TileSize:    params.TileSize,
		Compression: params.Compression,
		Quality:     params.Quality,
		RCT:         rctApplied,
		Workers:     params.Workers,
	})
	if err != nil {
		return nil, err
	}

	var flags uint16
	if rctApplied {
		flags |= ctiformat.FlagRCT
	}
	hdr := ctiformat.Header{
		Version:     ctiformat.Version,
		Flags:       flags,
		Width:       image.Width,
		Height:      image.Height,
		TileSize:    params.TileSize,
		TilesX:      tilesX,
		TilesY:      tilesY,
		ColorType:   image.ColorType,
		Compression: params.Compression,
		Quality:     params.Quality,
	}

	indexSize := uint64(len(tiles)) * ctiformat.IndexEntrySize
	payloadStart := uint64(ctiformat.HeaderSize) + indexSize

	entries := make([]ctiformat.TileIndexEntry, len(tiles))
	offset := payloadStart
	for i, t := range tiles {
		entries[i] = ctiformat.TileIndexEntry{
			Offset:         offset,
			CompressedSize: t.CompressedSize,
			OriginalSize:   t.OriginalSize,
			CRC32:          t.CRC32,
		}
		offset += uint64(t.CompressedSize)
	}

	sections := buildSections(params)
	trailer := ctiformat.EncodeSections(sections, offset)

	out := make([]byte, 0, offset+uint64(len(trailer)))
	out = append(out, hdr.Encode()...)
	for _, e := range entries {
		out = append(out, e.Encode()...)
	}
	for _, t := range tiles {
		out = append(out, t.Payload...)
	}
	out = append(out, trailer...)
	return out, nil
}

func buildSections(params EncodeParams) []ctiformat.Section {
	var sections []ctiformat.Section
	if params.DPI != nil {
		sections = append(sections, ctiformat.Section{
			Type:    ctiformat.SectionTypeRES,
			Payload: ctiformat.EncodeDPI(params.DPI.X, params.DPI.Y),
		})
	}
	if params.ICC != nil {
		sections = append(sections, ctiformat.Section{
			Type:    ctiformat.SectionTypeICC,
			Payload: params.ICC,
		})
	}
	return sections
}

// Decode parses a complete CTI byte stream and reconstructs the image,
// verifying every tile's CRC32. It never writes to data.
func Decode(data []byte) (DecodeResult, error) {
	return DecodeContext(context.Background(), data)
}

// DecodeContext is Decode with caller-supplied cancellation.
func DecodeContext(ctx context.Context, data []byte) (DecodeResult, error) {
	hdr, entries, payloadStart, err := parseHeaderAndIndex(data)
	if err != nil {
		return DecodeResult{}, err
	}
	if err := validateTileIndex(entries, uint64(payloadStart)); err != nil {
		return DecodeResult{}, err
	}

	sources := make([]tileengine.TileSource, len(entries))
	for i, e := range entries {
		end := e.Offset + uint64(e.CompressedSize)
		if end > uint64(len(data)) {
			return DecodeResult{}, fmt.Errorf("%w: tile %d payload [%d,%d) exceeds file length %d",
				ctierr.ErrTruncatedPayload, i, e.Offset, end, len(data))
		}
		sources[i] = tileengine.TileSource{
			Payload:      data[e.Offset:end],
			OriginalSize: e.OriginalSize,
			ExpectedCRC:  e.CRC32,
		}
	}

	pixels, err := tileengine.DecodeTiles(ctx, sources, tileengine.Params{
		Width:       hdr.Width,
		Height:      hdr.Height,
		ColorType:   hdr.ColorType,
		TileSize:    hdr.TileSize,
		Compression: hdr.Compression,
		Quality:     hdr.Quality,
		RCT:         hdr.RCTApplied(),
	})
	if err != nil {
		return DecodeResult{}, err
	}

	dpi, icc, err := parseSections(data, entries)
	if err != nil {
		return DecodeResult{}, err
	}

	return DecodeResult{
		Image: Image{
			Width:     hdr.Width,
			Height:    hdr.Height,
			ColorType: hdr.ColorType,
			Pixels:    pixels,
		},
		DPI: dpi,
		ICC: icc,
	}, nil
}

// Info parses only the header, index summary, and section TOC, without
// decompressing any tile.
func Info(data []byte) (Metadata, error) {
	hdr, entries, _, err := parseHeaderAndIndex(data)
	if err != nil {
		return Metadata{}, err
	}

	summary := IndexSummary{TileCount: len(entries)}
	if len(entries) > 0 {
		var total uint64
		summary.MinCompressed = entries[0].CompressedSize
		summary.MaxCompressed = entries[0].CompressedSize
		for _, e := range entries {
			total += uint64(e.CompressedSize)
			if e.CompressedSize < summary.MinCompressed {
				summary.MinCompressed = e.CompressedSize
			}
			if e.CompressedSize > summary.MaxCompressed {
				summary.MaxCompressed = e.CompressedSize
			}
		}
		summary.AvgCompressed = float64(total) / float64(len(entries))
	}

	trailerOff := trailerStart(entries)
	var sectionTOC []SectionTOCEntry
	if trailerOff < uint64(len(data)) {
		_, secs, _, err := ctiformat.DecodeSectionTOC(data[trailerOff:])
		if err != nil {
			return Metadata{}, err
		}
		sectionTOC = make([]SectionTOCEntry, len(secs))
		for i, s := range secs {
			sectionTOC[i] = SectionTOCEntry{Type: s.Type, Offset: s.Offset, Size: s.Size}
		}
	}

	return Metadata{
		Version:     hdr.Version,
		Flags:       hdr.Flags,
		Width:       hdr.Width,
		Height:      hdr.Height,
		TileSize:    hdr.TileSize,
		TilesX:      hdr.TilesX,
		TilesY:      hdr.TilesY,
		ColorType:   hdr.ColorType,
		Compression: hdr.Compression,
		Quality:     hdr.Quality,
		RCTApplied:  hdr.RCTApplied(),
		Index:       summary,
		Sections:    sectionTOC,
	}, nil
}

func parseHeaderAndIndex(data []byte) (*ctiformat.Header, []ctiformat.TileIndexEntry, int, error) {
	hdr, err := ctiformat.DecodeHeader(data)
	if err != nil {
		return nil, nil, 0, err
	}
	count := int(hdr.TilesX) * int(hdr.TilesY)
	entries, err := ctiformat.DecodeIndex(data[ctiformat.HeaderSize:], count)
	if err != nil {
		return nil, nil, 0, err
	}
	return hdr, entries, ctiformat.HeaderSize + count*ctiformat.IndexEntrySize, nil
}

// validateTileIndex enforces the index invariants from the data model:
// offsets start at payloadStart, are strictly increasing in tile order,
// and no two payloads overlap.
func validateTileIndex(entries []ctiformat.TileIndexEntry, payloadStart uint64) error {
	next := payloadStart
	for i, e := range entries {
		if e.Offset < next {
			return &ctierr.TileOutOfBoundsError{Index: i, Detail: fmt.Sprintf("offset %d overlaps preceding payload (expected >= %d)", e.Offset, next)}
		}
		next = e.Offset + uint64(e.CompressedSize)
	}
	return nil
}

// trailerStart implements the "trailer iff bytes remain after the last
// tile payload" detection rule from the format's section-trailer design.
func trailerStart(entries []ctiformat.TileIndexEntry) uint64 {
	var max uint64
	for _, e := range entries {
		if end := e.Offset + uint64(e.CompressedSize); end > max {
			max = end
		}
	}
	return max
}

func parseSections(data []byte, entries []ctiformat.TileIndexEntry) (*DPI, []byte, error) {
	off := trailerStart(entries)
	if off >= uint64(len(data)) {
		return nil, nil, nil
	}
	_, toc, _, err := ctiformat.DecodeSectionTOC(data[off:])
	if err != nil {
		return nil, nil, err
	}

	var dpi *DPI
	var icc []byte
	for _, s := range toc {
		end := s.Offset + s.Size
		if end > uint64(len(data)) {
			return nil, nil, fmt.Errorf("%w: section payload [%d,%d) exceeds file length %d", ctierr.ErrBadSectionTOC, s.Offset, end, len(data))
		}
		payload := data[s.Offset:end]
		switch s.Type {
		case ctiformat.SectionTypeRES:
			x, y, err := ctiformat.DecodeDPI(payload)
			if err != nil {
				return nil, nil, err
			}
			dpi = &DPI{X: x, Y: y}
		case ctiformat.SectionTypeICC:
			icc = append([]byte(nil), payload...)
		default:
			// Unknown section types are skipped silently.
		}
	}
	return dpi, icc, nil
}
