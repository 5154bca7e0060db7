// Package decoder turns raw file bytes into an immutable bitmap plus the
// metadata the rest of the pipeline reads.
package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"sync/atomic"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/AnyUserName/pixbatch/internal/encoder"
	"github.com/AnyUserName/pixbatch/internal/hasher"
)

// MaxPixels caps the decoded bitmap; the whole image is held in memory.
const MaxPixels = 100_000_000

var (
	ErrEmpty       = errors.New("empty input")
	ErrUnsupported = errors.New("unsupported image format")
	ErrTooLarge    = errors.New("image exceeds pixel limit")
	ErrReleased    = errors.New("bitmap already released")
)

// DecodeError reports bytes that could not be read as a supported raster image.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Asset is a decoded source image. Metadata never changes after Decode;
// the bitmap is read by every transform and written by none.
type Asset struct {
	Name        string
	MIMEType    string
	Format      encoder.Format
	ByteSize    int64
	Width       int
	Height      int
	HasAlpha    bool
	Fingerprint string // xxhash of the original bytes

	bitmap *image.NRGBA
}

// Bitmap returns the decoded pixels, or nil once released.
func (a *Asset) Bitmap() image.Image {
	if a.bitmap == nil {
		return nil
	}
	return a.bitmap
}

// Release drops the bitmap so its memory can be reclaimed.
func (a *Asset) Release() {
	a.bitmap = nil
}

// Released reports whether Release was called.
func (a *Asset) Released() bool {
	return a.bitmap == nil
}

// AspectRatio is width / height.
func (a *Asset) AspectRatio() float64 {
	if a.Height == 0 {
		return 0
	}
	return float64(a.Width) / float64(a.Height)
}

// FromImage wraps an in-memory image as an asset, e.g. a generated
// bitmap. ByteSize and Fingerprint are derived from the PNG encoding of
// img when data is nil.
func FromImage(name string, img image.Image, format encoder.Format, data []byte) (*Asset, error) {
	bitmap := imaging.Clone(img)
	if data == nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, bitmap); err != nil {
			return nil, &DecodeError{Name: name, Err: err}
		}
		data = buf.Bytes()
	}
	return &Asset{
		Name:        name,
		MIMEType:    format.MIMEType(),
		Format:      format,
		ByteSize:    int64(len(data)),
		Width:       bitmap.Bounds().Dx(),
		Height:      bitmap.Bounds().Dy(),
		HasAlpha:    encoder.HasAlpha(bitmap),
		Fingerprint: hasher.Fingerprint(data),
		bitmap:      bitmap,
	}, nil
}

// openHandles counts source handles not yet released.
var openHandles atomic.Int64

// OpenHandles reports source handles currently held by in-flight decodes.
func OpenHandles() int64 {
	return openHandles.Load()
}

// handle is the scoped reader over the source bytes.
type handle struct {
	*bytes.Reader
	closed bool
}

func acquire(data []byte) *handle {
	openHandles.Add(1)
	return &handle{Reader: bytes.NewReader(data)}
}

func (h *handle) Close() error {
	if !h.closed {
		h.closed = true
		openHandles.Add(-1)
	}
	return nil
}

// Decode reads data as a raster image. EXIF orientation is applied, so
// Width/Height describe the image as displayed.
func Decode(name string, data []byte) (*Asset, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Name: name, Err: ErrEmpty}
	}

	h := acquire(data)
	defer h.Close()

	cfg, format, err := image.DecodeConfig(h)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			err = ErrUnsupported
		}
		return nil, &DecodeError{Name: name, Err: err}
	}
	f, err := encoder.ParseFormat(format)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: fmt.Errorf("%w: %s", ErrUnsupported, format)}
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, &DecodeError{Name: name, Err: fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)}
	}

	if _, err := h.Seek(0, io.SeekStart); err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	img, err := imaging.Decode(h, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}

	bitmap := imaging.Clone(img)
	b := bitmap.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{Name: name, Err: fmt.Errorf("zero dimensions %dx%d", b.Dx(), b.Dy())}
	}

	return &Asset{
		Name:        name,
		MIMEType:    f.MIMEType(),
		Format:      f,
		ByteSize:    int64(len(data)),
		Width:       b.Dx(),
		Height:      b.Dy(),
		HasAlpha:    encoder.HasAlpha(bitmap),
		Fingerprint: hasher.Fingerprint(data),
		bitmap:      bitmap,
	}, nil
}
