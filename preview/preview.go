// Package preview renders a decoded cti.Image as a standard PNG, for quick
// visual inspection of a CTI file's contents.
package preview

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"

	"cti"
	"cti/ctierr"
)

// WritePNG downcasts img to the nearest stdlib image.Image and encodes it
// as PNG. RGB8/RGB16 have no direct stdlib equivalent without an alpha
// channel, so they are expanded to RGBA with full opacity.
func WritePNG(w io.Writer, img cti.Image) error {
	stdImg, err := toStdImage(img)
	if err != nil {
		return err
	}
	if err := png.Encode(w, stdImg); err != nil {
		return fmt.Errorf("%w: encode png: %v", ctierr.ErrIO, err)
	}
	return nil
}

func toStdImage(img cti.Image) (image.Image, error) {
	width, height := int(img.Width), int(img.Height)
	rect := image.Rect(0, 0, width, height)

	switch img.ColorType {
	case cti.L8:
		dst := image.NewGray(rect)
		copy(dst.Pix, img.Pixels)
		return dst, nil

	case cti.L16:
		dst := image.NewGray16(rect)
		leToBE16Plane(dst.Pix, img.Pixels)
		return dst, nil

	case cti.RGBA8:
		dst := image.NewNRGBA(rect)
		copy(dst.Pix, img.Pixels)
		return dst, nil

	case cti.RGB8:
		dst := image.NewNRGBA(rect)
		rgbToNRGBA8(dst.Pix, img.Pixels)
		return dst, nil

	case cti.RGB16:
		return rgb16ToNRGBA64(img.Pixels, rect), nil

	default:
		return nil, fmt.Errorf("cti: preview: unsupported color type %s", img.ColorType)
	}
}

// leToBE16Plane copies a little-endian 16-bit sample plane (CTI's wire
// order) into a stdlib Gray16/RGBA64 Pix buffer, which is always
// big-endian regardless of host byte order.
func leToBE16Plane(dst, src []byte) {
	for i := 0; i+1 < len(src); i += 2 {
		v := binary.LittleEndian.Uint16(src[i : i+2])
		binary.BigEndian.PutUint16(dst[i:i+2], v)
	}
}

func rgbToNRGBA8(dst, src []byte) {
	n := len(src) / 3
	for i := 0; i < n; i++ {
		dst[i*4+0] = src[i*3+0]
		dst[i*4+1] = src[i*3+1]
		dst[i*4+2] = src[i*3+2]
		dst[i*4+3] = 0xff
	}
}

func rgb16ToNRGBA64(src []byte, rect image.Rectangle) image.Image {
	dst := image.NewNRGBA64(rect)
	n := len(src) / 6
	for i := 0; i < n; i++ {
		r := binary.LittleEndian.Uint16(src[i*6+0 : i*6+2])
		g := binary.LittleEndian.Uint16(src[i*6+2 : i*6+4])
		b := binary.LittleEndian.Uint16(src[i*6+4 : i*6+6])
		binary.BigEndian.PutUint16(dst.Pix[i*8+0:i*8+2], r)
		binary.BigEndian.PutUint16(dst.Pix[i*8+2:i*8+4], g)
		binary.BigEndian.PutUint16(dst.Pix[i*8+4:i*8+6], b)
		binary.BigEndian.PutUint16(dst.Pix[i*8+6:i*8+8], 0xffff)
	}
	return dst
}
