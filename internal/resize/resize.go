// Package resize scales an asset to new dimensions and re-encodes it in
// the asset's original format.
package resize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/pixbatch/internal/decoder"
	"github.com/AnyUserName/pixbatch/internal/encoder"
	"github.com/AnyUserName/pixbatch/internal/profile"
)

var ErrInvalidDimensions = errors.New("invalid dimensions")

// Request holds the requested box and the aspect-ratio lock.
type Request struct {
	Width           int
	Height          int
	LockAspectRatio bool
}

// Result is one resized output.
type Result struct {
	Data           []byte
	Name           string
	MIMEType       string
	Format         encoder.Format
	OriginalWidth  int
	OriginalHeight int
	NewWidth       int
	NewHeight      int
	Size           int64
	OutputSizeKB   int64
}

// Dimensions computes the output size. With lock set, the binding side of
// the requested box keeps its value and the other side follows the
// original aspect ratio; without it the request is used as-is.
func Dimensions(origW, origH, targetW, targetH int, lock bool) (int, int, error) {
	if origW <= 0 || origH <= 0 {
		return 0, 0, fmt.Errorf("%w: original %dx%d", ErrInvalidDimensions, origW, origH)
	}
	if targetW <= 0 || targetH <= 0 {
		return 0, 0, fmt.Errorf("%w: requested %dx%d", ErrInvalidDimensions, targetW, targetH)
	}
	if !lock {
		return targetW, targetH, nil
	}

	r := float64(origW) / float64(origH)
	w, h := float64(targetW), float64(targetH)
	if w/h > r {
		w = h * r // height binds
	} else {
		h = w / r // width binds
	}

	nw, nh := int(math.Round(w)), int(math.Round(h))
	if nw <= 0 || nh <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d would become %dx%d", ErrInvalidDimensions, targetW, targetH, nw, nh)
	}
	return nw, nh, nil
}

// Resizer scales and re-encodes assets.
type Resizer struct {
	registry *encoder.Registry
	cache    *encoder.Cache
	logger   *slog.Logger
}

// New creates a resizer. cache and logger may be nil.
func New(registry *encoder.Registry, cache *encoder.Cache, logger *slog.Logger) *Resizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resizer{registry: registry, cache: cache, logger: logger}
}

// Resize scales the asset with a Lanczos filter and encodes the result in
// the asset's own format at the default quality.
func (r *Resizer) Resize(ctx context.Context, a *decoder.Asset, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h, err := Dimensions(a.Width, a.Height, req.Width, req.Height, req.LockAspectRatio)
	if err != nil {
		return nil, &encoder.EncodeError{Format: a.Format, Err: err}
	}
	bitmap := a.Bitmap()
	if bitmap == nil {
		return nil, &encoder.EncodeError{Format: a.Format, Err: decoder.ErrReleased}
	}

	opts := encoder.Options{Quality: encoder.DefaultQuality}
	key := encoder.Key(a.Fingerprint, a.Format, opts, w, h)

	scaled := bitmap
	if w != a.Width || h != a.Height {
		scaled = imaging.Resize(bitmap, w, h, imaging.Lanczos)
	}
	data, err := r.cache.Encode(r.registry, key, scaled, a.Format, opts)
	if err != nil {
		return nil, err
	}

	size := int64(len(data))
	r.logger.Debug("resized", "asset", a.Name,
		"from", fmt.Sprintf("%dx%d", a.Width, a.Height),
		"to", fmt.Sprintf("%dx%d", w, h), "bytes", size)

	return &Result{
		Data:           data,
		Name:           a.Name,
		MIMEType:       a.MIMEType,
		Format:         a.Format,
		OriginalWidth:  a.Width,
		OriginalHeight: a.Height,
		NewWidth:       w,
		NewHeight:      h,
		Size:           size,
		OutputSizeKB:   profile.SizeKB(size),
	}, nil
}
