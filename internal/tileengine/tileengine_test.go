package tileengine

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cti/internal/ctiformat"
	"cti/ctierr"
)

func randomPixels(n int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	buf := make([]byte, n)
	rng.Read(buf)
	return buf
}

// chromaBoundedRGB8 generates low-chroma RGB8 pixels: R and B stay within
// 40 of G, so RCT's Cb/Cr values stay within the signed-byte range.
func chromaBoundedRGB8(n int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	buf := make([]byte, n*3)
	clamp := func(v int) byte {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return byte(v)
	}
	for i := 0; i < n; i++ {
		g := rng.Intn(256)
		buf[i*3+0] = clamp(g + rng.Intn(81) - 40)
		buf[i*3+1] = byte(g)
		buf[i*3+2] = clamp(g + rng.Intn(81) - 40)
	}
	return buf
}

func TestEncodeDecodeTiles_RoundTrip(t *testing.T) {
	width, height := uint32(37), uint32(29)
	pixels := randomPixels(int(width)*int(height)*3, 1)
	rctPixels := chromaBoundedRGB8(int(width)*int(height), 1)

	for _, tc := range []struct {
		name   string
		p      Params
		pixels []byte
	}{
		{"none_small_tiles", Params{Width: width, Height: height, ColorType: ctiformat.RGB8, TileSize: 8, Compression: ctiformat.CompNone}, pixels},
		{"rle_oversize_tile", Params{Width: width, Height: height, ColorType: ctiformat.RGB8, TileSize: 64, Compression: ctiformat.CompRLE}, pixels},
		{"rct_deltarle", Params{Width: width, Height: height, ColorType: ctiformat.RGB8, TileSize: 16, Compression: ctiformat.CompDeltaRLE, RCT: true}, rctPixels},
		{"zstd", Params{Width: width, Height: height, ColorType: ctiformat.RGB8, TileSize: 16, Compression: ctiformat.CompZstd, Quality: 50}, pixels},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tiles, err := EncodeTiles(context.Background(), tc.pixels, tc.p)
			require.NoError(t, err)

			sources := make([]TileSource, len(tiles))
			for i, et := range tiles {
				sources[i] = TileSource{Payload: et.Payload, OriginalSize: et.OriginalSize, ExpectedCRC: et.CRC32}
			}

			out, err := DecodeTiles(context.Background(), sources, tc.p)
			require.NoError(t, err)
			assert.Equal(t, tc.pixels, out)
		})
	}
}

func TestDecodeTiles_CorruptedCRC(t *testing.T) {
	width, height := uint32(16), uint32(16)
	pixels := randomPixels(int(width)*int(height), 2)
	p := Params{Width: width, Height: height, ColorType: ctiformat.L8, TileSize: 8, Compression: ctiformat.CompNone}

	tiles, err := EncodeTiles(context.Background(), pixels, p)
	require.NoError(t, err)

	sources := make([]TileSource, len(tiles))
	for i, et := range tiles {
		sources[i] = TileSource{Payload: et.Payload, OriginalSize: et.OriginalSize, ExpectedCRC: et.CRC32}
	}
	sources[0].ExpectedCRC ^= 0xFFFFFFFF

	_, err = DecodeTiles(context.Background(), sources, p)
	require.Error(t, err)
	var corrupted *ctierr.TileCorruptedError
	require.True(t, errors.As(err, &corrupted))
	assert.Equal(t, 0, corrupted.Index)
}

func TestDecodeTiles_FirstErrorWinsInIndexOrder(t *testing.T) {
	width, height := uint32(64), uint32(64)
	pixels := randomPixels(int(width)*int(height), 5)
	p := Params{Width: width, Height: height, ColorType: ctiformat.L8, TileSize: 8, Compression: ctiformat.CompNone}

	tiles, err := EncodeTiles(context.Background(), pixels, p)
	require.NoError(t, err)
	require.Greater(t, len(tiles), 10)

	// Corrupt several tiles out of index order; whichever goroutine happens
	// to fail first in wall-clock time must not determine the reported
	// error — the lowest corrupted index always wins.
	for run := 0; run < 5; run++ {
		sources := make([]TileSource, len(tiles))
		for i, et := range tiles {
			sources[i] = TileSource{Payload: et.Payload, OriginalSize: et.OriginalSize, ExpectedCRC: et.CRC32}
		}
		sources[7].ExpectedCRC ^= 0xFFFFFFFF
		sources[3].ExpectedCRC ^= 0xFFFFFFFF
		sources[9].ExpectedCRC ^= 0xFFFFFFFF

		_, err := DecodeTiles(context.Background(), sources, p)
		require.Error(t, err)
		var corrupted *ctierr.TileCorruptedError
		require.True(t, errors.As(err, &corrupted))
		assert.Equal(t, 3, corrupted.Index)
	}
}

func TestEncodeTiles_UnknownCompressionFails(t *testing.T) {
	// An unknown compression kind is rejected when the compressor is
	// resolved, before any tile is encoded.
	width, height := uint32(64), uint32(64)
	pixels := randomPixels(int(width)*int(height), 3)
	p := Params{Width: width, Height: height, ColorType: ctiformat.L8, TileSize: 8, Compression: ctiformat.CompressionKind(200)}

	_, err := EncodeTiles(context.Background(), pixels, p)
	require.Error(t, err)
}

func TestWorkerCount(t *testing.T) {
	assert.Equal(t, 1, workerCount(0, 0))
	assert.Equal(t, 4, workerCount(4, 10))
	assert.Equal(t, 3, workerCount(10, 3))
	assert.Equal(t, 1, workerCount(-5, 10))
}

func TestEncodeTiles_NonDivisibleDimensions(t *testing.T) {
	width, height := uint32(10), uint32(10)
	pixels := randomPixels(int(width)*int(height)*4, 4)
	p := Params{Width: width, Height: height, ColorType: ctiformat.RGBA8, TileSize: 7, Compression: ctiformat.CompPredictiveRLE}

	tiles, err := EncodeTiles(context.Background(), pixels, p)
	require.NoError(t, err)
	// 10/7 rounds up to 2 tiles per axis: the last row/column of tiles is
	// partial and must carry only the pixels actually present, unpadded.
	require.Len(t, tiles, 4)

	sources := make([]TileSource, len(tiles))
	for i, et := range tiles {
		sources[i] = TileSource{Payload: et.Payload, OriginalSize: et.OriginalSize, ExpectedCRC: et.CRC32}
	}
	out, err := DecodeTiles(context.Background(), sources, p)
	require.NoError(t, err)
	assert.Equal(t, pixels, out)
}
