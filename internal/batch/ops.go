package batch

import (
	"context"

	"github.com/AnyUserName/pixbatch/internal/compress"
	"github.com/AnyUserName/pixbatch/internal/convert"
	"github.com/AnyUserName/pixbatch/internal/decoder"
	"github.com/AnyUserName/pixbatch/internal/encoder"
	"github.com/AnyUserName/pixbatch/internal/profile"
	"github.com/AnyUserName/pixbatch/internal/resize"
)

// Operation names.
const (
	OpCompress = "compress"
	OpConvert  = "convert"
	OpResize   = "resize"

	// OpDecode labels the failure of an upload that never decoded.
	OpDecode = "decode"
)

// Operation is a single-asset transform. Apply must not modify the asset.
type Operation interface {
	Name() string
	Apply(ctx context.Context, a *decoder.Asset) (*Output, error)
}

// OperationFunc adapts a function to Operation.
type OperationFunc struct {
	Op string
	Fn func(ctx context.Context, a *decoder.Asset) (*Output, error)
}

func (o OperationFunc) Name() string { return o.Op }

func (o OperationFunc) Apply(ctx context.Context, a *decoder.Asset) (*Output, error) {
	return o.Fn(ctx, a)
}

// CompressOp runs a target-size search with fixed parameters.
func CompressOp(c *compress.Compressor, req compress.Request) Operation {
	return OperationFunc{Op: OpCompress, Fn: func(ctx context.Context, a *decoder.Asset) (*Output, error) {
		res, err := c.Compress(ctx, a, req)
		if err != nil {
			return nil, err
		}
		return &Output{
			Operation:    OpCompress,
			Name:         res.Name,
			MIMEType:     res.MIMEType,
			Format:       res.Format,
			Data:         res.Data,
			Size:         res.Size,
			SizeKB:       res.AchievedSizeKB,
			Width:        res.Width,
			Height:       res.Height,
			Quality:      res.AchievedQuality,
			RatioPercent: res.CompressionRatioPercent,
			Attempts:     len(res.Attempts),
			TargetMet:    res.Met,
		}, nil
	}}
}

// ConvertOp converts into a fixed format.
func ConvertOp(c *convert.Converter, req convert.Request) Operation {
	return OperationFunc{Op: OpConvert, Fn: func(ctx context.Context, a *decoder.Asset) (*Output, error) {
		res, err := c.Convert(ctx, a, req)
		if err != nil {
			return nil, err
		}
		return &Output{
			Operation:      OpConvert,
			Name:           res.Name,
			MIMEType:       res.MIMEType,
			Format:         res.Format,
			Data:           res.Data,
			Size:           res.Size,
			SizeKB:         res.OutputSizeKB,
			Width:          res.Width,
			Height:         res.Height,
			Quality:        float64(res.Quality) / 100,
			RatioPercent:   profile.RatioPercent(a.ByteSize, res.Size),
			PreservesAlpha: res.PreservesAlpha,
		}, nil
	}}
}

// ResizeOp scales to a fixed box.
func ResizeOp(r *resize.Resizer, req resize.Request) Operation {
	return OperationFunc{Op: OpResize, Fn: func(ctx context.Context, a *decoder.Asset) (*Output, error) {
		res, err := r.Resize(ctx, a, req)
		if err != nil {
			return nil, err
		}
		return &Output{
			Operation:      OpResize,
			Name:           res.Name,
			MIMEType:       res.MIMEType,
			Format:         res.Format,
			Data:           res.Data,
			Size:           res.Size,
			SizeKB:         res.OutputSizeKB,
			Width:          res.NewWidth,
			Height:         res.NewHeight,
			Quality:        float64(encoder.DefaultQuality) / 100,
			RatioPercent:   profile.RatioPercent(a.ByteSize, res.Size),
			PreservesAlpha: a.HasAlpha && res.Format.KeepsAlpha(),
		}, nil
	}}
}

// Compress builds the compress operation from the current settings.
func (j *Job) Compress() Operation {
	p := j.Settings()
	return CompressOp(j.compressor, compress.Request{
		TargetSizeKB:   p.TargetSizeKB,
		InitialQuality: p.Quality,
	})
}

// Convert builds the convert operation from the current settings.
func (j *Job) Convert() Operation {
	p := j.Settings()
	return ConvertOp(j.converter, convert.Request{Format: p.Format, Lossless: p.Lossless})
}

// Resize builds the resize operation from the current settings.
func (j *Job) Resize() Operation {
	p := j.Settings()
	return ResizeOp(j.resizer, resize.Request{
		Width:           p.Width,
		Height:          p.Height,
		LockAspectRatio: p.LockAspect,
	})
}

// Operation returns the named operation built from the current settings.
func (j *Job) Operation(name string) (Operation, bool) {
	switch name {
	case OpCompress:
		return j.Compress(), true
	case OpConvert:
		return j.Convert(), true
	case OpResize:
		return j.Resize(), true
	}
	return nil, false
}
