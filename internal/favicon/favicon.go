// Package favicon renders an asset as a set of square PNG icons.
package favicon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/pixbatch/internal/bundle"
	"github.com/AnyUserName/pixbatch/internal/decoder"
	"github.com/AnyUserName/pixbatch/internal/encoder"
)

// DefaultSizes are the edge lengths generated when none are given.
var DefaultSizes = []int{16, 32, 48, 64}

// MaxSize caps a single icon edge.
const MaxSize = 1024

var ErrInvalidSize = errors.New("invalid favicon size")

// Generator renders favicon sets.
type Generator struct {
	registry *encoder.Registry
	logger   *slog.Logger
}

// New creates a generator. logger may be nil.
func New(registry *encoder.Registry, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{registry: registry, logger: logger}
}

// Name is the file name of the icon with edge size.
func Name(size int) string {
	return fmt.Sprintf("favicon-%dx%d.png", size, size)
}

// Generate returns one PNG per size. The source is stretched to the
// square; non-square sources are not cropped.
func (g *Generator) Generate(ctx context.Context, a *decoder.Asset, sizes []int) ([]bundle.File, error) {
	if len(sizes) == 0 {
		sizes = DefaultSizes
	}
	for _, s := range sizes {
		if s <= 0 || s > MaxSize {
			return nil, fmt.Errorf("%w: %d", ErrInvalidSize, s)
		}
	}
	img := a.Bitmap()
	if img == nil {
		return nil, &encoder.EncodeError{Format: encoder.FormatPNG, Err: decoder.ErrReleased}
	}

	files := make([]bundle.File, 0, len(sizes))
	for _, s := range sizes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		icon := imaging.Resize(img, s, s, imaging.Lanczos)
		data, err := g.registry.Encode(icon, encoder.FormatPNG, encoder.Options{Lossless: true})
		if err != nil {
			return nil, err
		}
		files = append(files, bundle.File{
			Name:     Name(s),
			MIMEType: encoder.FormatPNG.MIMEType(),
			Data:     data,
		})
		g.logger.Debug("favicon rendered", "asset", a.Name, "size", s, "bytes", len(data))
	}
	return files, nil
}

// Bundle generates the set and packages it: a single size yields the PNG
// itself, several a zip archive.
func (g *Generator) Bundle(ctx context.Context, a *decoder.Asset, sizes []int, archiveName string) (bundle.File, error) {
	files, err := g.Generate(ctx, a, sizes)
	if err != nil {
		return bundle.File{}, err
	}
	return bundle.Bundle(files, archiveName)
}
