package compressor

import (
	"fmt"

	"cti/ctierr"
	"cti/internal/predictor"
)

// deltaRLECompressor and predictiveRLECompressor chain a scanline predictor
// (applied per-channel plane, per internal/predictor) with the same RLE
// entropy stage rleCompressor uses, the way PNG chains a filter with
// DEFLATE: prediction turns smooth gradients into small, repetitive
// residuals that RLE then collapses into runs.
type deltaRLECompressor struct{}
type predictiveRLECompressor struct{}

func (deltaRLECompressor) Compress(data []byte, shape Shape) ([]byte, error) {
	return predictorRLECompress(predictor.Delta, data, shape)
}

func (deltaRLECompressor) Decompress(data []byte, expectedSize int, shape Shape) ([]byte, error) {
	return predictorRLEDecompress(predictor.Delta, data, expectedSize, shape)
}

func (predictiveRLECompressor) Compress(data []byte, shape Shape) ([]byte, error) {
	return predictorRLECompress(predictor.Predictive, data, shape)
}

func (predictiveRLECompressor) Decompress(data []byte, expectedSize int, shape Shape) ([]byte, error) {
	return predictorRLEDecompress(predictor.Predictive, data, expectedSize, shape)
}

func predictorRLECompress(kind predictor.Kind, data []byte, shape Shape) ([]byte, error) {
	if err := validateShape(data, shape); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	residual := predictor.Apply(kind, data, shape.Width, shape.Height, shape.Channels, shape.SampleWidth)
	return rleEncode(residual), nil
}

func predictorRLEDecompress(kind predictor.Kind, data []byte, expectedSize int, shape Shape) ([]byte, error) {
	if expectedSize == 0 {
		return nil, nil
	}
	residual, err := rleDecode(data, expectedSize)
	if err != nil {
		return nil, err
	}
	if err := validateShape(residual, shape); err != nil {
		return nil, err
	}
	return predictor.Unapply(kind, residual, shape.Width, shape.Height, shape.Channels, shape.SampleWidth), nil
}

func validateShape(data []byte, shape Shape) error {
	want := shape.Width * shape.Height * shape.Channels * shape.SampleWidth
	if len(data) != want {
		return fmt.Errorf("%w: predictor stage got %d bytes, shape implies %d", ctierr.ErrCompression, len(data), want)
	}
	return nil
}
