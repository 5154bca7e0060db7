// Package compress searches for a JPEG quality that brings an asset under
// a target byte size.
package compress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/AnyUserName/pixbatch/internal/decoder"
	"github.com/AnyUserName/pixbatch/internal/encoder"
	"github.com/AnyUserName/pixbatch/internal/profile"
)

const (
	// MaxAttempts caps encodes per search.
	MaxAttempts = 10
	// step is the quality decrement between attempts, in percent.
	step = 10
)

// Format is the lossy container used for target-size compression.
const Format = encoder.FormatJPEG

var ErrInvalidRequest = errors.New("invalid compress request")

// Request holds the parameters of one search.
type Request struct {
	TargetSizeKB   int
	InitialQuality float64 // 0 < q <= 1
}

// Attempt records one encode of the search.
type Attempt struct {
	Quality float64
	Bytes   int64
}

// Result is the accepted encoding. When Met is false the target was out
// of reach and Data is the last, lowest-quality attempt.
type Result struct {
	Data                    []byte
	Name                    string
	MIMEType                string
	Format                  encoder.Format
	Width                   int
	Height                  int
	OriginalSize            int64
	Size                    int64
	AchievedSizeKB          int64
	AchievedQuality         float64
	CompressionRatioPercent int
	Attempts                []Attempt
	Met                     bool
}

// Compressor runs target-size searches.
type Compressor struct {
	registry *encoder.Registry
	cache    *encoder.Cache
	logger   *slog.Logger
}

// New creates a compressor. cache and logger may be nil.
func New(registry *encoder.Registry, cache *encoder.Cache, logger *slog.Logger) *Compressor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compressor{registry: registry, cache: cache, logger: logger}
}

// Compress re-encodes the asset at decreasing quality until the output is
// at most TargetSizeKB KiB or MaxAttempts encodes were made. At least one
// encode always runs, even if the original is already under target.
func (c *Compressor) Compress(ctx context.Context, a *decoder.Asset, req Request) (*Result, error) {
	if req.TargetSizeKB <= 0 {
		return nil, &encoder.EncodeError{Format: Format,
			Err: fmt.Errorf("%w: target size %d KB", ErrInvalidRequest, req.TargetSizeKB)}
	}
	if req.InitialQuality <= 0 || req.InitialQuality > 1 {
		return nil, &encoder.EncodeError{Format: Format,
			Err: fmt.Errorf("%w: quality %.2f", ErrInvalidRequest, req.InitialQuality)}
	}
	bitmap := a.Bitmap()
	if bitmap == nil {
		return nil, &encoder.EncodeError{Format: Format, Err: decoder.ErrReleased}
	}

	target := int64(req.TargetSizeKB) * 1024
	q := int(math.Round(req.InitialQuality * 100))
	res := &Result{
		Name:         Format.Rename(a.Name),
		MIMEType:     Format.MIMEType(),
		Format:       Format,
		Width:        a.Width,
		Height:       a.Height,
		OriginalSize: a.ByteSize,
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		opts := encoder.Options{Quality: q}
		key := encoder.Key(a.Fingerprint, Format, opts, a.Width, a.Height)
		data, err := c.cache.Encode(c.registry, key, bitmap, Format, opts)
		if err != nil {
			return nil, err
		}

		size := int64(len(data))
		res.Attempts = append(res.Attempts, Attempt{Quality: float64(q) / 100, Bytes: size})
		res.Data = data
		res.AchievedQuality = float64(q) / 100

		c.logger.Debug("compress attempt",
			"asset", a.Name, "attempt", attempt, "quality", res.AchievedQuality,
			"bytes", size, "target", target)

		if size <= target || attempt >= MaxAttempts {
			break
		}
		next := max(q-step, encoder.MinQuality)
		if next == q {
			break // already at the format floor
		}
		q = next
	}

	res.Size = int64(len(res.Data))
	res.Met = res.Size <= target
	res.AchievedSizeKB = profile.SizeKB(res.Size)
	res.CompressionRatioPercent = profile.RatioPercent(a.ByteSize, res.Size)

	if !res.Met {
		c.logger.Info("target size not reached, returning best effort",
			"asset", a.Name, "target_kb", req.TargetSizeKB,
			"achieved_kb", res.AchievedSizeKB, "attempts", len(res.Attempts))
	}
	return res, nil
}
