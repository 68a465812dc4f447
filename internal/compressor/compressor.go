// Package compressor implements the CTI built-in tile compressors (None,
// RLE, LZ77, Delta+RLE, Predictive+RLE) and the Zstd/LZ4 adapter shims,
// dispatched by ctiformat.CompressionKind through a single registry.
package compressor

import (
	"fmt"

	"cti/internal/ctiformat"
)

// Shape describes a tile's geometry, needed by the predictor-backed
// compressors (Delta+RLE, Predictive+RLE) to plane-split the buffer; the
// other compressors ignore it.
type Shape struct {
	Width       int
	Height      int
	Channels    int
	SampleWidth int
}

// Compressor compresses and decompresses a single tile's bytes.
// Decompress must fail rather than return a buffer of the wrong length:
// expectedSize is authoritative.
type Compressor interface {
	Compress(data []byte, shape Shape) ([]byte, error)
	Decompress(data []byte, expectedSize int, shape Shape) ([]byte, error)
}

// For resolves the Compressor implementing kind. quality only affects
// CompZstd (mapped through ctiformat.ZstdLevel); every other kind ignores it.
func For(kind ctiformat.CompressionKind, quality uint8) (Compressor, error) {
	switch kind {
	case ctiformat.CompNone:
		return noneCompressor{}, nil
	case ctiformat.CompRLE:
		return rleCompressor{}, nil
	case ctiformat.CompLZ77:
		return lz77Compressor{}, nil
	case ctiformat.CompDeltaRLE:
		return deltaRLECompressor{}, nil
	case ctiformat.CompPredictiveRLE:
		return predictiveRLECompressor{}, nil
	case ctiformat.CompZstd:
		return newZstdCompressor(quality), nil
	case ctiformat.CompLZ4:
		return lz4Compressor{}, nil
	default:
		return nil, fmt.Errorf("compressor: unknown compression kind %d", kind)
	}
}
