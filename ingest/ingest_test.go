package ingest

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"cti"
)

func TestFromImage_Gray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			src.SetGray(x, y, color.Gray{Y: uint8(x + y*4)})
		}
	}

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, cti.L8, img.ColorType)
	assert.Equal(t, uint32(4), img.Width)
	assert.Equal(t, uint32(3), img.Height)
	for i := 0; i < 12; i++ {
		assert.Equal(t, byte(i), img.Pixels[i])
	}
}

func TestFromImage_Gray16_ByteOrder(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 2, 1))
	src.SetGray16(0, 0, color.Gray16{Y: 0x1234})
	src.SetGray16(1, 0, color.Gray16{Y: 0xABCD})

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, cti.L16, img.ColorType)
	// CTI L16 samples are little-endian.
	assert.Equal(t, []byte{0x34, 0x12, 0xCD, 0xAB}, img.Pixels)
}

func TestFromImage_NRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	src.SetNRGBA(1, 0, color.NRGBA{R: 5, G: 6, B: 7, A: 8})

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, cti.RGBA8, img.ColorType)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, img.Pixels[:8])
}

func TestFromImage_GenericFallback(t *testing.T) {
	// An *image.RGBA with any non-opaque pixel falls through to the
	// generic draw.Draw-based conversion to NRGBA; only (0,0) is set here,
	// so the rest of the image stays at alpha 0.
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, cti.RGBA8, img.ColorType)
	assert.Equal(t, byte(200), img.Pixels[0])
	assert.Equal(t, byte(100), img.Pixels[1])
	assert.Equal(t, byte(50), img.Pixels[2])
	assert.Equal(t, byte(255), img.Pixels[3])
}

func TestFromImage_OpaqueRGBA_IsRGB8(t *testing.T) {
	// golang.org/x/image/tiff decodes a plain RGB TIFF into *image.RGBA
	// with every pixel opaque; that case has its own fast path to RGB8
	// rather than falling through to the lossy RGBA8 generic conversion.
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetRGBA(1, 0, color.RGBA{R: 40, G: 50, B: 60, A: 255})

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, cti.RGB8, img.ColorType)
	assert.Equal(t, []byte{10, 20, 30, 40, 50, 60}, img.Pixels)
}

func TestFromImage_OpaqueRGBA64_IsRGB16(t *testing.T) {
	src := image.NewRGBA64(image.Rect(0, 0, 2, 1))
	src.SetRGBA64(0, 0, color.RGBA64{R: 0x1234, G: 0x5678, B: 0x9abc, A: 0xffff})
	src.SetRGBA64(1, 0, color.RGBA64{R: 0x1111, G: 0x2222, B: 0x3333, A: 0xffff})

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, cti.RGB16, img.ColorType)
	assert.Equal(t, []byte{
		0x34, 0x12, 0x78, 0x56, 0xbc, 0x9a,
		0x11, 0x11, 0x22, 0x22, 0x33, 0x33,
	}, img.Pixels)
}

func TestFromImage_NonOpaqueRGBA64_FallsBack(t *testing.T) {
	src := image.NewRGBA64(image.Rect(0, 0, 1, 1))
	src.SetRGBA64(0, 0, color.RGBA64{R: 0x1234, G: 0x5678, B: 0x9abc, A: 0x8000})

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, cti.RGBA8, img.ColorType)
}

func TestFromTIFF(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 8, 6))
	for i := range src.Pix {
		src.Pix[i] = byte(i)
	}

	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, src, nil))

	img, dpi, icc, err := FromTIFF(&buf)
	require.NoError(t, err)
	// golang.org/x/image/tiff may return the grayscale source as its own
	// concrete *image.Gray (L8 fast path) or via the generic decode path
	// (RGBA8); either is a correct conversion, so only the dimensions and
	// the nil DPI/ICC returns are asserted here, not the ColorType or the
	// pixel bytes.
	assert.Equal(t, uint32(8), img.Width)
	assert.Equal(t, uint32(6), img.Height)
	assert.Nil(t, dpi)
	assert.Nil(t, icc)
}
