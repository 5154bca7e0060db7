package encoder

import (
	"bytes"
	"image"

	"github.com/chai2010/webp"
)

// WebPEncoder encodes images to WebP in-process through libwebp.
// Supports both lossy and lossless modes; alpha is kept in both.
type WebPEncoder struct{}

func (e *WebPEncoder) Format() Format  { return FormatWebP }
func (e *WebPEncoder) Available() bool { return true }

func (e *WebPEncoder) Encode(img image.Image, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(128 * 1024)

	err := webp.Encode(&buf, img, &webp.Options{
		Lossless: opts.Lossless,
		Quality:  float32(clampQuality(opts.Quality)),
		Exact:    opts.Lossless, // keep RGB under fully transparent pixels
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
