// Package predictor implements the CTI scanline predictors (delta and
// 2nd-order) applied planar-per-channel to a tile buffer before RLE
// entropy coding.
package predictor

// DeltaForward applies the 1-D delta predictor to a single-channel,
// single-sample-width plane of w x h samples (row-major): d(x,y) =
// p(x,y)-p(x-1,y) for x>0, d(0,y) = p(0,y)-p(0,y-1) for y>0, d(0,0)=p(0,0).
// sampleWidth is 1 or 2 bytes; arithmetic wraps modulo the sample width.
func DeltaForward(plane []byte, w, h, sampleWidth int) []byte {
	out := make([]byte, len(plane))
	forEachSample(w, h, sampleWidth, func(x, y, off int) {
		cur := readSample(plane, off, sampleWidth)
		var pred uint32
		switch {
		case x > 0:
			pred = readSample(plane, off-sampleWidth, sampleWidth)
		case y > 0:
			pred = readSample(plane, off-w*sampleWidth, sampleWidth)
		default:
			pred = 0
		}
		writeSample(out, off, sampleWidth, cur-pred)
	})
	return out
}

// DeltaInverse is the exact inverse of DeltaForward.
func DeltaInverse(plane []byte, w, h, sampleWidth int) []byte {
	out := make([]byte, len(plane))
	forEachSample(w, h, sampleWidth, func(x, y, off int) {
		d := readSample(plane, off, sampleWidth)
		var pred uint32
		switch {
		case x > 0:
			pred = readSample(out, off-sampleWidth, sampleWidth)
		case y > 0:
			pred = readSample(out, off-w*sampleWidth, sampleWidth)
		default:
			pred = 0
		}
		writeSample(out, off, sampleWidth, pred+d)
	})
	return out
}

// PredictiveForward applies the 2nd-order predictor: P =
// clamp(a+b-c, sampleMin, sampleMax), residual = p - P. Missing neighbors
// (first row/column) are treated as 0.
func PredictiveForward(plane []byte, w, h, sampleWidth int) []byte {
	out := make([]byte, len(plane))
	maxVal := sampleMax(sampleWidth)
	forEachSample(w, h, sampleWidth, func(x, y, off int) {
		cur := readSample(plane, off, sampleWidth)
		p := predict(plane, x, y, w, sampleWidth, maxVal, readSample)
		writeSample(out, off, sampleWidth, cur-p)
	})
	return out
}

// PredictiveInverse is the exact inverse of PredictiveForward.
func PredictiveInverse(plane []byte, w, h, sampleWidth int) []byte {
	out := make([]byte, len(plane))
	maxVal := sampleMax(sampleWidth)
	forEachSample(w, h, sampleWidth, func(x, y, off int) {
		resid := readSample(plane, off, sampleWidth)
		p := predict(out, x, y, w, sampleWidth, maxVal, readSample)
		writeSample(out, off, sampleWidth, p+resid)
	})
	return out
}

func predict(buf []byte, x, y, w, sampleWidth int, maxVal uint32, read func([]byte, int, int) uint32) uint32 {
	var a, b, c int64
	if x > 0 {
		a = int64(read(buf, (y*w+x-1)*sampleWidth, sampleWidth))
	}
	if y > 0 {
		b = int64(read(buf, ((y-1)*w+x)*sampleWidth, sampleWidth))
	}
	if x > 0 && y > 0 {
		c = int64(read(buf, ((y-1)*w+x-1)*sampleWidth, sampleWidth))
	}
	p := a + b - c
	if p < 0 {
		p = 0
	}
	if p > int64(maxVal) {
		p = int64(maxVal)
	}
	return uint32(p)
}

func forEachSample(w, h, sampleWidth int, fn func(x, y, off int)) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fn(x, y, (y*w+x)*sampleWidth)
		}
	}
}

func readSample(buf []byte, off, sampleWidth int) uint32 {
	if sampleWidth == 1 {
		return uint32(buf[off])
	}
	return uint32(buf[off]) | uint32(buf[off+1])<<8
}

func writeSample(buf []byte, off, sampleWidth int, v uint32) {
	if sampleWidth == 1 {
		buf[off] = byte(v)
		return
	}
	buf[off] = byte(v)
	buf[off+1] = byte(v >> 8)
}

func sampleMax(sampleWidth int) uint32 {
	if sampleWidth == 1 {
		return 0xFF
	}
	return 0xFFFF
}

// Kind selects which predictor Apply/Unapply runs.
type Kind int

const (
	Delta Kind = iota
	Predictive
)

// Apply runs the given predictor over an interleaved multi-channel tile
// buffer: the buffer is de-interleaved into one plane per channel, each
// plane is predicted independently, and the residual planes are
// re-interleaved back into a buffer the same size as the input.
func Apply(kind Kind, buf []byte, w, h, channels, sampleWidth int) []byte {
	planes := planarize(buf, w, h, channels, sampleWidth)
	for c := range planes {
		switch kind {
		case Delta:
			planes[c] = DeltaForward(planes[c], w, h, sampleWidth)
		case Predictive:
			planes[c] = PredictiveForward(planes[c], w, h, sampleWidth)
		}
	}
	return interleave(planes, w, h, channels, sampleWidth)
}

// Unapply is the exact inverse of Apply.
func Unapply(kind Kind, buf []byte, w, h, channels, sampleWidth int) []byte {
	planes := planarize(buf, w, h, channels, sampleWidth)
	for c := range planes {
		switch kind {
		case Delta:
			planes[c] = DeltaInverse(planes[c], w, h, sampleWidth)
		case Predictive:
			planes[c] = PredictiveInverse(planes[c], w, h, sampleWidth)
		}
	}
	return interleave(planes, w, h, channels, sampleWidth)
}

func planarize(buf []byte, w, h, channels, sampleWidth int) [][]byte {
	planeLen := w * h * sampleWidth
	planes := make([][]byte, channels)
	for c := range planes {
		planes[c] = make([]byte, planeLen)
	}
	pixelStride := channels * sampleWidth
	for i := 0; i < w*h; i++ {
		src := buf[i*pixelStride : i*pixelStride+pixelStride]
		for c := 0; c < channels; c++ {
			copy(planes[c][i*sampleWidth:(i+1)*sampleWidth], src[c*sampleWidth:(c+1)*sampleWidth])
		}
	}
	return planes
}

func interleave(planes [][]byte, w, h, channels, sampleWidth int) []byte {
	pixelStride := channels * sampleWidth
	out := make([]byte, w*h*pixelStride)
	for i := 0; i < w*h; i++ {
		dst := out[i*pixelStride : i*pixelStride+pixelStride]
		for c := 0; c < channels; c++ {
			copy(dst[c*sampleWidth:(c+1)*sampleWidth], planes[c][i*sampleWidth:(i+1)*sampleWidth])
		}
	}
	return out
}
