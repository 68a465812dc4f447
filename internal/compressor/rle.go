package compressor

import (
	"fmt"

	"cti/ctierr"
)

// rleCompressor implements the CTI byte-oriented, literal-biased RLE: a
// signed control byte n, n>=0 copies n+1 literal bytes, n<0 repeats the
// next byte (-n)+1 times. Max run/literal length is 128, grounded on the
// PackBits-style run/literal split used for DICOM RLE in the pack
// (github.com/jpfielding/dicos.go pkg/compress/rle), minus that encoder's
// 0xFF escape byte, which CTI's simpler control-byte-only framing doesn't need.
type rleCompressor struct{}

func (rleCompressor) Compress(data []byte, _ Shape) ([]byte, error) {
	return rleEncode(data), nil
}

func (rleCompressor) Decompress(data []byte, expectedSize int, _ Shape) ([]byte, error) {
	return rleDecode(data, expectedSize)
}

func rleEncode(data []byte) []byte {
	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		runLen := 1
		for i+runLen < len(data) && runLen < 128 && data[i+runLen] == data[i] {
			runLen++
		}
		if runLen >= 3 {
			out = append(out, byte(int8(-(runLen - 1))))
			out = append(out, data[i])
			i += runLen
			continue
		}

		litStart := i
		litLen := 1
		for i+litLen < len(data) && litLen < 128 {
			if i+litLen+2 < len(data) && data[i+litLen] == data[i+litLen+1] && data[i+litLen] == data[i+litLen+2] {
				break
			}
			litLen++
		}
		out = append(out, byte(int8(litLen-1)))
		out = append(out, data[litStart:litStart+litLen]...)
		i += litLen
	}
	return out
}

func rleDecode(data []byte, expectedSize int) ([]byte, error) {
	out := make([]byte, 0, expectedSize)
	i := 0
	for i < len(data) {
		n := int8(data[i])
		i++
		if n >= 0 {
			count := int(n) + 1
			if i+count > len(data) {
				return nil, fmt.Errorf("%w: rle literal run truncated", ctierr.ErrCompression)
			}
			out = append(out, data[i:i+count]...)
			i += count
		} else {
			if i >= len(data) {
				return nil, fmt.Errorf("%w: rle repeat run truncated", ctierr.ErrCompression)
			}
			count := int(-n) + 1
			val := data[i]
			i++
			for k := 0; k < count; k++ {
				out = append(out, val)
			}
		}
	}
	if len(out) != expectedSize {
		return nil, fmt.Errorf("%w: rle produced %d bytes, want %d", ctierr.ErrCompression, len(out), expectedSize)
	}
	return out, nil
}
