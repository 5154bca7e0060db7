package encoder

import (
	"bytes"
	"image"
	"image/gif"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// GIFEncoder re-encodes GIF sources (first frame only, 256-color palette).
type GIFEncoder struct{}

func (e *GIFEncoder) Format() Format  { return FormatGIF }
func (e *GIFEncoder) Available() bool { return true }

func (e *GIFEncoder) Encode(img image.Image, _ Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, &gif.Options{NumColors: 256}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BMPEncoder re-encodes BMP sources.
type BMPEncoder struct{}

func (e *BMPEncoder) Format() Format  { return FormatBMP }
func (e *BMPEncoder) Available() bool { return true }

func (e *BMPEncoder) Encode(img image.Image, _ Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TIFFEncoder re-encodes TIFF sources with deflate compression.
type TIFFEncoder struct{}

func (e *TIFFEncoder) Format() Format  { return FormatTIFF }
func (e *TIFFEncoder) Available() bool { return true }

func (e *TIFFEncoder) Encode(img image.Image, _ Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
