package compressor

import (
	"fmt"

	"cti/ctierr"
)

type noneCompressor struct{}

func (noneCompressor) Compress(data []byte, _ Shape) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (noneCompressor) Decompress(data []byte, expectedSize int, _ Shape) ([]byte, error) {
	if len(data) != expectedSize {
		return nil, fmt.Errorf("%w: none: got %d bytes, want %d", ctierr.ErrCompression, len(data), expectedSize)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
