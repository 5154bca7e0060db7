package encoder

import (
	"fmt"
	"image"
	"strings"
)

// Registry holds all available encoders keyed by format.
type Registry struct {
	encoders map[Format]Encoder
}

// NewRegistry creates a registry, probing all encoders for availability.
func NewRegistry() *Registry {
	r := &Registry{
		encoders: make(map[Format]Encoder),
	}

	// Register all encoders. Only available ones will be used.
	all := []Encoder{
		&PNGEncoder{},
		&JPEGEncoder{},
		&WebPEncoder{},
		&AVIFEncoder{},
		&GIFEncoder{},
		&BMPEncoder{},
		&TIFFEncoder{},
	}

	for _, enc := range all {
		if enc.Available() {
			r.encoders[enc.Format()] = enc
		}
	}

	return r
}

// Get returns an encoder for the given format, or nil if unavailable.
func (r *Registry) Get(format Format) Encoder {
	return r.encoders[format]
}

// Lookup returns the encoder for a MIME type such as "image/png".
func (r *Registry) Lookup(mimeType string) (Encoder, error) {
	f, err := ParseFormat(mimeType)
	if err != nil {
		return nil, err
	}
	enc := r.encoders[f]
	if enc == nil {
		return nil, fmt.Errorf("%w: %s encoder not available", ErrUnsupportedFormat, f)
	}
	return enc, nil
}

// Available returns the conversion targets that can be encoded right now.
func (r *Registry) Available() []Format {
	var result []Format
	for _, f := range ConversionTargets {
		if _, ok := r.encoders[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// Encode runs the encoder for format and wraps every failure in an
// *EncodeError. Empty images are rejected before reaching the codec.
func (r *Registry) Encode(img image.Image, format Format, opts Options) ([]byte, error) {
	enc := r.encoders[format]
	if enc == nil {
		return nil, &EncodeError{Format: format, Err: ErrUnsupportedFormat}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &EncodeError{Format: format, Err: ErrEmptyImage}
	}
	data, err := enc.Encode(img, opts)
	if err != nil {
		return nil, &EncodeError{Format: format, Err: err}
	}
	return data, nil
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	names := make([]string, len(avail))
	for i, f := range avail {
		names[i] = string(f)
	}
	return fmt.Sprintf("encoders: %s", strings.Join(names, ", "))
}
