package compressor

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"cti/ctierr"
	"cti/internal/ctiformat"
)

// zstdCompressor wraps github.com/klauspost/compress/zstd behind the
// Compressor interface, pooling encoders/decoders per quality level
// instead of allocating a fresh pair on every call.
type zstdCompressor struct {
	level zstd.EncoderLevel
	encs  *sync.Pool
	decs  *sync.Pool
}

func newZstdCompressor(quality uint8) *zstdCompressor {
	level := zstd.EncoderLevelFromZstd(ctiformat.ZstdLevel(quality))
	c := &zstdCompressor{level: level}
	c.encs = &sync.Pool{New: func() any { return mustNewZstdEncoder(level) }}
	c.decs = &sync.Pool{New: func() any { return mustNewZstdDecoder() }}
	return c
}

func mustNewZstdEncoder(level zstd.EncoderLevel) *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(level),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

func (c *zstdCompressor) Compress(data []byte, _ Shape) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	enc := c.encs.Get().(*zstd.Encoder)
	out := enc.EncodeAll(data, nil)
	c.encs.Put(enc)
	return out, nil
}

func (c *zstdCompressor) Decompress(data []byte, expectedSize int, _ Shape) ([]byte, error) {
	if expectedSize == 0 {
		return nil, nil
	}
	dec := c.decs.Get().(*zstd.Decoder)
	out, err := dec.DecodeAll(data, make([]byte, 0, expectedSize))
	c.decs.Put(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ctierr.ErrCompression, err)
	}
	if len(out) != expectedSize {
		return nil, fmt.Errorf("%w: zstd produced %d bytes, want %d", ctierr.ErrCompression, len(out), expectedSize)
	}
	return out, nil
}
