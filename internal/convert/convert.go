// Package convert re-encodes an asset into another container format.
package convert

import (
	"context"
	"log/slog"

	"github.com/AnyUserName/pixbatch/internal/decoder"
	"github.com/AnyUserName/pixbatch/internal/encoder"
	"github.com/AnyUserName/pixbatch/internal/profile"
)

// Request selects the target container.
type Request struct {
	Format   encoder.Format
	Lossless bool // only meaningful for formats with both modes (webp, avif)
	Quality  int  // 0 = encoder.DefaultQuality
}

// Result is one converted output.
type Result struct {
	Data           []byte
	Name           string
	MIMEType       string
	Format         encoder.Format
	Width          int
	Height         int
	Size           int64
	OutputSizeKB   int64
	Quality        int
	PreservesAlpha bool
}

// Converter runs single-pass format conversions.
type Converter struct {
	registry *encoder.Registry
	cache    *encoder.Cache
	logger   *slog.Logger
}

// New creates a converter. cache and logger may be nil.
func New(registry *encoder.Registry, cache *encoder.Cache, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{registry: registry, cache: cache, logger: logger}
}

// Convert encodes the asset once into req.Format. Dimensions never change.
func (c *Converter) Convert(ctx context.Context, a *decoder.Asset, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := encoder.ParseFormat(string(req.Format))
	if err != nil {
		return nil, &encoder.EncodeError{Format: req.Format, Err: err}
	}
	bitmap := a.Bitmap()
	if bitmap == nil {
		return nil, &encoder.EncodeError{Format: f, Err: decoder.ErrReleased}
	}

	q := req.Quality
	if q <= 0 {
		q = encoder.DefaultQuality
	}
	opts := encoder.Options{Quality: q, Lossless: req.Lossless}
	key := encoder.Key(a.Fingerprint, f, opts, a.Width, a.Height)
	data, err := c.cache.Encode(c.registry, key, bitmap, f, opts)
	if err != nil {
		return nil, err
	}

	size := int64(len(data))
	c.logger.Debug("converted", "asset", a.Name, "from", a.Format, "to", f, "bytes", size)

	return &Result{
		Data:           data,
		Name:           f.Rename(a.Name),
		MIMEType:       f.MIMEType(),
		Format:         f,
		Width:          a.Width,
		Height:         a.Height,
		Size:           size,
		OutputSizeKB:   profile.SizeKB(size),
		Quality:        q,
		PreservesAlpha: a.HasAlpha && f.KeepsAlpha(),
	}, nil
}
