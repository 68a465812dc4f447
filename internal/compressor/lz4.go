package compressor

import (
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"cti/ctierr"
)

// lz4Compressor wraps github.com/pierrec/lz4/v4's block API. It isn't used
// by anything in the pack; it's adopted straight from the upstream LZ4
// project because the block-framed, no-container shape of its API is the
// only thing that fits a single already-length-known tile buffer.
//
// Output is framed as a one-byte store flag (0 = raw, 1 = lz4 block)
// followed by the payload, so an incompressible tile never expands by more
// than one byte.
type lz4Compressor struct{}

var lz4EncPool = sync.Pool{
	New: func() any { return new(lz4.Compressor) },
}

func (lz4Compressor) Compress(data []byte, _ Shape) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, 1+lz4.CompressBlockBound(len(data)))
	c := lz4EncPool.Get().(*lz4.Compressor)
	n, err := c.CompressBlock(data, dst[1:])
	lz4EncPool.Put(c)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ctierr.ErrCompression, err)
	}
	if n == 0 || n >= len(data) {
		out := make([]byte, 1+len(data))
		out[0] = 0
		copy(out[1:], data)
		return out, nil
	}
	dst[0] = 1
	return dst[:1+n], nil
}

func (lz4Compressor) Decompress(data []byte, expectedSize int, _ Shape) ([]byte, error) {
	if expectedSize == 0 {
		return nil, nil
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: lz4 stream empty, want %d bytes", ctierr.ErrCompression, expectedSize)
	}
	flag, payload := data[0], data[1:]
	switch flag {
	case 0:
		if len(payload) != expectedSize {
			return nil, fmt.Errorf("%w: lz4 raw block is %d bytes, want %d", ctierr.ErrCompression, len(payload), expectedSize)
		}
		out := make([]byte, expectedSize)
		copy(out, payload)
		return out, nil
	case 1:
		out := make([]byte, expectedSize)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ctierr.ErrCompression, err)
		}
		if n != expectedSize {
			return nil, fmt.Errorf("%w: lz4 produced %d bytes, want %d", ctierr.ErrCompression, n, expectedSize)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: lz4 stream has unknown store flag %d", ctierr.ErrCompression, flag)
	}
}
