// Package ingest converts stdlib image.Image values (as decoded from TIFF
// or any other format the standard library and golang.org/x/image support)
// into cti.Image buffers ready for Encode.
package ingest

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"io"

	"golang.org/x/image/tiff"

	"cti"
	"cti/ctierr"
)

// FromTIFF decodes a TIFF stream into a cti.Image, picking the narrowest
// ColorType the source supports. golang.org/x/image/tiff's decoder does not
// expose the source IFD's resolution or ICC tags, so the DPI and ICC return
// values are always nil; callers that need them must supply their own.
func FromTIFF(r io.Reader) (cti.Image, *cti.DPI, []byte, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return cti.Image{}, nil, nil, fmt.Errorf("%w: decode tiff: %v", ctierr.ErrIO, err)
	}
	out, err := FromImage(img)
	if err != nil {
		return cti.Image{}, nil, nil, err
	}
	return out, nil, nil, nil
}

// FromImage converts any image.Image into a cti.Image. It takes a fast path
// for the concrete stdlib types that already match a CTI ColorType's byte
// layout, and falls back to a generic RGBA8 conversion (via At/RGBA, as
// image/draw would) for everything else.
func FromImage(img image.Image) (cti.Image, error) {
	b := img.Bounds()
	width, height := uint32(b.Dx()), uint32(b.Dy())

	switch src := img.(type) {
	case *image.Gray:
		return cti.Image{
			Width:     width,
			Height:    height,
			ColorType: cti.L8,
			Pixels:    extractPlane(src.Pix, src.Stride, b, 1),
		}, nil

	case *image.Gray16:
		return cti.Image{
			Width:     width,
			Height:    height,
			ColorType: cti.L16,
			Pixels:    gray16ToLE(src, b),
		}, nil

	case *image.NRGBA:
		return cti.Image{
			Width:     width,
			Height:    height,
			ColorType: cti.RGBA8,
			Pixels:    extractPlane(src.Pix, src.Stride, b, 4),
		}, nil

	case *image.RGBA:
		// golang.org/x/image/tiff decodes a plain 3-channel RGB TIFF into
		// this type with every pixel fully opaque. Premultiplied and
		// non-premultiplied bytes coincide at alpha=255, so the alpha
		// channel can simply be dropped rather than routed through the
		// lossy generic fallback.
		if isOpaque8(src.Pix, src.Stride, b) {
			return cti.Image{
				Width:     width,
				Height:    height,
				ColorType: cti.RGB8,
				Pixels:    dropAlpha8(src.Pix, src.Stride, b),
			}, nil
		}
		return genericToRGBA8(img, b, width, height), nil

	case *image.RGBA64:
		// Same reasoning as *image.RGBA, one sample width up: a 16-bit RGB
		// TIFF decodes here opaque, and dropping alpha keeps the full
		// 16-bit precision instead of falling through to 8-bit RGBA8.
		if isOpaque16(src.Pix, src.Stride, b) {
			return cti.Image{
				Width:     width,
				Height:    height,
				ColorType: cti.RGB16,
				Pixels:    dropAlpha16LE(src.Pix, src.Stride, b),
			}, nil
		}
		return genericToRGBA8(img, b, width, height), nil

	default:
		return genericToRGBA8(img, b, width, height), nil
	}
}

// isOpaque8 reports whether every pixel in an RGBA/NRGBA-style 8-bit-per-
// channel plane has alpha 255.
func isOpaque8(pix []byte, stride int, b image.Rectangle) bool {
	width, height := b.Dx(), b.Dy()
	for y := 0; y < height; y++ {
		row := pix[y*stride : y*stride+width*4]
		for x := 0; x < width; x++ {
			if row[x*4+3] != 0xff {
				return false
			}
		}
	}
	return true
}

// dropAlpha8 strips the alpha byte out of an interleaved 8-bit RGBA plane,
// producing tightly packed RGB8.
func dropAlpha8(pix []byte, stride int, b image.Rectangle) []byte {
	width, height := b.Dx(), b.Dy()
	out := make([]byte, width*height*3)
	i := 0
	for y := 0; y < height; y++ {
		row := pix[y*stride : y*stride+width*4]
		for x := 0; x < width; x++ {
			copy(out[i:i+3], row[x*4:x*4+3])
			i += 3
		}
	}
	return out
}

// isOpaque16 reports whether every pixel in an RGBA64-style big-endian
// 16-bit-per-channel plane has alpha 0xFFFF.
func isOpaque16(pix []byte, stride int, b image.Rectangle) bool {
	width, height := b.Dx(), b.Dy()
	for y := 0; y < height; y++ {
		row := pix[y*stride : y*stride+width*8]
		for x := 0; x < width; x++ {
			if binary.BigEndian.Uint16(row[x*8+6:x*8+8]) != 0xffff {
				return false
			}
		}
	}
	return true
}

// dropAlpha16LE strips the alpha sample out of an interleaved big-endian
// 16-bit RGBA64 plane, producing tightly packed little-endian RGB16.
func dropAlpha16LE(pix []byte, stride int, b image.Rectangle) []byte {
	width, height := b.Dx(), b.Dy()
	out := make([]byte, width*height*6)
	i := 0
	for y := 0; y < height; y++ {
		row := pix[y*stride : y*stride+width*8]
		for x := 0; x < width; x++ {
			for c := 0; c < 3; c++ {
				v := binary.BigEndian.Uint16(row[x*8+c*2 : x*8+c*2+2])
				binary.LittleEndian.PutUint16(out[i:i+2], v)
				i += 2
			}
		}
	}
	return out
}

// extractPlane copies a tightly packed, bytesPerPixel*width-wide region out
// of a stdlib image's Pix/Stride buffer, dropping any stride padding the
// source image carried.
func extractPlane(pix []byte, stride int, b image.Rectangle, bytesPerPixel int) []byte {
	width, height := b.Dx(), b.Dy()
	rowBytes := width * bytesPerPixel
	out := make([]byte, rowBytes*height)
	for y := 0; y < height; y++ {
		row := pix[y*stride : y*stride+rowBytes]
		copy(out[y*rowBytes:(y+1)*rowBytes], row)
	}
	return out
}

// gray16ToLE copies an *image.Gray16 (big-endian Pix storage, per the
// standard library's convention) into CTI's little-endian L16 sample order.
func gray16ToLE(src *image.Gray16, b image.Rectangle) []byte {
	width, height := b.Dx(), b.Dy()
	out := make([]byte, width*height*2)
	i := 0
	for y := 0; y < height; y++ {
		rowOff := y * src.Stride
		for x := 0; x < width; x++ {
			v := binary.BigEndian.Uint16(src.Pix[rowOff+x*2 : rowOff+x*2+2])
			binary.LittleEndian.PutUint16(out[i:i+2], v)
			i += 2
		}
	}
	return out
}

// genericToRGBA8 converts an arbitrary image.Image to non-premultiplied
// RGBA8, the same way image/draw.Draw would when compositing onto an
// *image.NRGBA: unpremultiply every source pixel through its color.Model.
func genericToRGBA8(img image.Image, b image.Rectangle, width, height uint32) cti.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return cti.Image{
		Width:     width,
		Height:    height,
		ColorType: cti.RGBA8,
		Pixels:    extractPlane(dst.Pix, dst.Stride, dst.Bounds(), 4),
	}
}
