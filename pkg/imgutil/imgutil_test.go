package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func decode(t *testing.T, b []byte) image.Image {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return img
}

func TestBand(t *testing.T) {
	out, err := Band(testPNG(t, 1600, 4000), 0, 0.35, 800, 70)
	require.NoError(t, err)

	b := decode(t, out).Bounds()
	assert.Equal(t, 800, b.Dx())
	assert.Equal(t, 700, b.Dy())
}

func TestBandInvalidFractionsKeepWholeImage(t *testing.T) {
	out, err := Band(testPNG(t, 400, 300), -1, 5, 800, 70)
	require.NoError(t, err)

	b := decode(t, out).Bounds()
	assert.Equal(t, 400, b.Dx())
	assert.Equal(t, 300, b.Dy())
}

func TestCompress(t *testing.T) {
	tests := []struct {
		name         string
		w, h, maxDim int
		wantW, wantH int
	}{
		{name: "tall page", w: 1366, h: 5464, maxDim: 1024, wantW: 256, wantH: 1024},
		{name: "wide", w: 2048, h: 1024, maxDim: 1024, wantW: 1024, wantH: 512},
		{name: "already small", w: 300, h: 200, maxDim: 1024, wantW: 300, wantH: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Compress(testPNG(t, tt.w, tt.h), tt.maxDim, 60)
			require.NoError(t, err)
			b := decode(t, out).Bounds()
			assert.Equal(t, tt.wantW, b.Dx())
			assert.Equal(t, tt.wantH, b.Dy())
			assert.Equal(t, []byte{0xFF, 0xD8}, out[:2], "jpeg magic")
		})
	}
}

func TestCompressRejectsGarbage(t *testing.T) {
	_, err := Compress([]byte("not an image"), 1024, 60)
	assert.Error(t, err)
}
