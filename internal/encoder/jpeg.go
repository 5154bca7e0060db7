package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// JPEGEncoder encodes images to JPEG using Go's standard library.
// Transparent pixels are composited onto white first: JPEG has no alpha.
type JPEGEncoder struct{}

func (e *JPEGEncoder) Format() Format  { return FormatJPEG }
func (e *JPEGEncoder) Available() bool { return true }

func (e *JPEGEncoder) Encode(img image.Image, opts Options) ([]byte, error) {
	if HasAlpha(img) {
		img = flatten(img, color.White)
	}

	var buf bytes.Buffer
	buf.Grow(256 * 1024) // typical photo output

	err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: clampQuality(opts.Quality)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flatten draws img over a solid background into a new opaque image.
func flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}
