package ctiformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorType_BytesPerPixel(t *testing.T) {
	tests := []struct {
		ct   ColorType
		want int
	}{
		{L8, 1}, {L16, 2}, {RGB8, 3}, {RGBA8, 4}, {RGB16, 6},
	}
	for _, tt := range tests {
		got, err := tt.ct.BytesPerPixel()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestColorType_BytesPerPixel_Unknown(t *testing.T) {
	_, err := ColorType(99).BytesPerPixel()
	assert.Error(t, err)
}

func TestColorType_Channels(t *testing.T) {
	tests := []struct {
		ct   ColorType
		want int
	}{
		{L8, 1}, {L16, 1}, {RGB8, 3}, {RGB16, 3}, {RGBA8, 4},
	}
	for _, tt := range tests {
		got, err := tt.ct.Channels()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestColorType_SupportsRCT(t *testing.T) {
	assert.True(t, RGB8.SupportsRCT())
	assert.True(t, RGB16.SupportsRCT())
	assert.False(t, L8.SupportsRCT())
	assert.False(t, RGBA8.SupportsRCT())
}

func TestColorType_String(t *testing.T) {
	assert.Equal(t, "RGB8", RGB8.String())
	assert.Contains(t, ColorType(200).String(), "200")
}

func TestCompressionKind_IsValid(t *testing.T) {
	assert.True(t, CompZstd.IsValid())
	assert.False(t, CompressionKind(200).IsValid())
}

func TestZstdLevel_Monotonic(t *testing.T) {
	prev := ZstdLevel(0)
	for q := 1; q <= 100; q++ {
		lvl := ZstdLevel(uint8(q))
		assert.GreaterOrEqual(t, lvl, prev)
		assert.GreaterOrEqual(t, lvl, 1)
		assert.LessOrEqual(t, lvl, 22)
		prev = lvl
	}
}

func TestZstdLevel_ClampsAboveMax(t *testing.T) {
	assert.Equal(t, ZstdLevel(100), ZstdLevel(255))
}
