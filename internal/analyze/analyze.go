// Package analyze reports descriptive facts about a decoded asset:
// sizes, geometry and its dominant colors.
package analyze

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/pixbatch/internal/decoder"
	"github.com/AnyUserName/pixbatch/internal/profile"
)

const (
	// DefaultSampleStep samples every 10th pixel.
	DefaultSampleStep = 10
	// DefaultColorLimit is the number of dominant colors reported.
	DefaultColorLimit = 10
	// minAlpha is the opacity a sampled pixel needs to be counted.
	minAlpha = 128
)

// Info describes one asset.
type Info struct {
	Name        string   `json:"name"`
	MIMEType    string   `json:"mime_type"`
	Size        int64    `json:"size"`
	SizeKB      int64    `json:"size_kb"`
	SizeMB      float64  `json:"size_mb"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	AspectRatio float64  `json:"aspect_ratio"`
	Megapixels  float64  `json:"megapixels"`
	HasAlpha    bool     `json:"has_alpha"`
	AvgColor    [3]uint8 `json:"avg_color"`
	Fingerprint string   `json:"fingerprint"`
}

// Describe collects the Info of an asset. The average color is left zero
// when the bitmap has been released.
func Describe(a *decoder.Asset) Info {
	info := Info{
		Name:        a.Name,
		MIMEType:    a.MIMEType,
		Size:        a.ByteSize,
		SizeKB:      profile.SizeKB(a.ByteSize),
		SizeMB:      round2(float64(a.ByteSize) / (1024 * 1024)),
		Width:       a.Width,
		Height:      a.Height,
		AspectRatio: round2(a.AspectRatio()),
		Megapixels:  round2(float64(a.Width*a.Height) / 1e6),
		HasAlpha:    a.HasAlpha,
		Fingerprint: a.Fingerprint,
	}
	if img := a.Bitmap(); img != nil {
		info.AvgColor = AverageColor(img)
	}
	return info
}

// AverageColor is the mean of the non-premultiplied channels over the
// pixels opaque enough to be seen. A fully transparent image averages to
// black.
func AverageColor(img image.Image) [3]uint8 {
	px := nrgba(img)
	var rSum, gSum, bSum, count uint64
	for i := 0; i+3 < len(px.Pix); i += 4 {
		if px.Pix[i+3] <= minAlpha {
			continue
		}
		rSum += uint64(px.Pix[i])
		gSum += uint64(px.Pix[i+1])
		bSum += uint64(px.Pix[i+2])
		count++
	}
	if count == 0 {
		return [3]uint8{}
	}
	return [3]uint8{
		uint8(rSum / count),
		uint8(gSum / count),
		uint8(bSum / count),
	}
}

// Color is one distinct sampled color and how often it was seen.
type Color struct {
	R     uint8 `json:"r"`
	G     uint8 `json:"g"`
	B     uint8 `json:"b"`
	Count int   `json:"count"`
}

// Hex formats the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette is the result of a color analysis.
type Palette struct {
	Colors        []Color `json:"colors"`
	TotalPixels   int     `json:"total_pixels"`
	SampledPixels int     `json:"sampled_pixels"`
}

// DominantColors samples every sampleStep-th pixel in row-major order,
// counts the colors of pixels with alpha above 128 and returns the limit
// most frequent ones. Ties keep the order in which colors were first seen.
func DominantColors(a *decoder.Asset, sampleStep, limit int) (*Palette, error) {
	img := a.Bitmap()
	if img == nil {
		return nil, fmt.Errorf("analyze %s: %w", a.Name, decoder.ErrReleased)
	}
	if sampleStep <= 0 {
		sampleStep = DefaultSampleStep
	}
	if limit <= 0 {
		limit = DefaultColorLimit
	}

	px := nrgba(img)
	total := len(px.Pix) / 4
	if total == 0 {
		return nil, errors.New("analyze: empty image")
	}

	index := map[[3]uint8]int{}
	var colors []Color
	for i := 0; i < len(px.Pix); i += 4 * sampleStep {
		if px.Pix[i+3] <= minAlpha {
			continue
		}
		key := [3]uint8{px.Pix[i], px.Pix[i+1], px.Pix[i+2]}
		if n, ok := index[key]; ok {
			colors[n].Count++
			continue
		}
		index[key] = len(colors)
		colors = append(colors, Color{R: key[0], G: key[1], B: key[2], Count: 1})
	}

	sort.SliceStable(colors, func(i, j int) bool { return colors[i].Count > colors[j].Count })
	if len(colors) > limit {
		colors = colors[:limit]
	}
	return &Palette{
		Colors:        colors,
		TotalPixels:   total,
		SampledPixels: total / sampleStep,
	}, nil
}

// nrgba returns img as a tightly packed NRGBA image.
func nrgba(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Stride == 4*n.Rect.Dx() {
		return n
	}
	return imaging.Clone(img)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
