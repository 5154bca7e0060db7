package encoder

import (
	"errors"
	"fmt"
	"image"
)

// DefaultQuality matches the browser canvas default (0.92).
const DefaultQuality = 92

// MinQuality is the lowest quality any lossy encoder accepts.
const MinQuality = 1

var (
	ErrEmptyImage        = errors.New("image has zero width or height")
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// Options controls a single encode.
type Options struct {
	// Quality is 1-100; out of range falls back to DefaultQuality.
	// Ignored by lossless formats.
	Quality int
	// Lossless selects the lossless mode of formats that have both.
	Lossless bool
}

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the output format.
	Format() Format

	// Encode converts the image to bytes. Implementations never modify img.
	Encode(img image.Image, opts Options) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// External encoders (avifenc) may not be installed.
	Available() bool
}

// EncodeError reports a codec rejecting an image or its parameters.
type EncodeError struct {
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("encode: %v", e.Err)
	}
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

func clampQuality(q int) int {
	if q < MinQuality || q > 100 {
		return DefaultQuality
	}
	return q
}

// HasAlpha reports whether any pixel of img is not fully opaque.
func HasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
