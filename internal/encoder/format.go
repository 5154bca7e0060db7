package encoder

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an output container.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

type formatInfo struct {
	mime  string
	lossy bool
	alpha bool
}

var formats = map[Format]formatInfo{
	FormatPNG:  {mime: "image/png", lossy: false, alpha: true},
	FormatJPEG: {mime: "image/jpeg", lossy: true, alpha: false},
	FormatWebP: {mime: "image/webp", lossy: true, alpha: true},
	FormatAVIF: {mime: "image/avif", lossy: true, alpha: true},
	FormatGIF:  {mime: "image/gif", lossy: false, alpha: true},
	FormatBMP:  {mime: "image/bmp", lossy: false, alpha: false},
	FormatTIFF: {mime: "image/tiff", lossy: false, alpha: true},
}

// ConversionTargets lists the formats offered for conversion, in display order.
var ConversionTargets = []Format{FormatPNG, FormatJPEG, FormatWebP, FormatAVIF}

// ParseFormat accepts a format name, extension or MIME type.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, ".")
	s = strings.TrimPrefix(s, "image/")
	switch s {
	case "jpg":
		s = "jpeg"
	case "tif":
		s = "tiff"
	case "x-ms-bmp":
		s = "bmp"
	}
	f := Format(s)
	if _, ok := formats[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return f, nil
}

// MIMEType returns the canonical MIME type, e.g. "image/png".
func (f Format) MIMEType() string { return formats[f].mime }

// Extension returns the canonical extension without dot.
func (f Format) Extension() string { return string(f) }

// Lossy reports whether the format's default mode discards detail.
func (f Format) Lossy() bool { return formats[f].lossy }

// KeepsAlpha reports whether the container can carry transparency.
func (f Format) KeepsAlpha() bool { return formats[f].alpha }

func (f Format) String() string { return string(f) }

// Rename swaps the extension of name for the format's canonical one.
// A name without extension gets one appended.
func (f Format) Rename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "image"
	}
	return base + "." + f.Extension()
}
