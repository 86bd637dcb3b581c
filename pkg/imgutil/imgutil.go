// Package imgutil holds the screenshot transforms used by capture and
// extraction.
package imgutil

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Band crops the horizontal band between top and bottom (fractions of
// the image height) and scales it to width, keeping the aspect ratio.
func Band(src []byte, top, bottom float64, width, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if top < 0 {
		top = 0
	}
	if bottom <= top || bottom > 1 {
		bottom = 1
	}

	b := img.Bounds()
	y0 := b.Min.Y + int(float64(b.Dy())*top)
	y1 := b.Min.Y + int(float64(b.Dy())*bottom)
	if y1 <= y0 {
		y1 = y0 + 1
	}
	out := imaging.Crop(img, image.Rect(b.Min.X, y0, b.Max.X, y1))
	if width > 0 && out.Bounds().Dx() > width {
		out = imaging.Resize(out, width, 0, imaging.Lanczos)
	}
	return encodeJPEG(out, quality)
}

// Compress fits the image into a maxDim square and re-encodes it as JPEG.
// Images already within bounds are only re-encoded.
func Compress(src []byte, maxDim, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if maxDim > 0 {
		b := img.Bounds()
		if b.Dx() > maxDim || b.Dy() > maxDim {
			img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}
	}
	return encodeJPEG(img, quality)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
