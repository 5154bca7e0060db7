package decoder

import (
	"errors"
	"image"
	"testing"

	"github.com/AnyUserName/pixbatch/internal/encoder"
	"github.com/AnyUserName/pixbatch/internal/testimg"
)

func TestDecode_PNG(t *testing.T) {
	data := testimg.PNG(testimg.AlphaGradient(50, 40))
	a, err := Decode("logo.png", data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Width != 50 || a.Height != 40 {
		t.Errorf("dims: %dx%d", a.Width, a.Height)
	}
	if a.MIMEType != "image/png" || a.Format != encoder.FormatPNG {
		t.Errorf("type: %s %s", a.MIMEType, a.Format)
	}
	if !a.HasAlpha {
		t.Error("alpha not detected")
	}
	if a.ByteSize != int64(len(data)) {
		t.Errorf("size: %d", a.ByteSize)
	}
	if a.Fingerprint == "" {
		t.Error("missing fingerprint")
	}
	if OpenHandles() != 0 {
		t.Errorf("handles still open: %d", OpenHandles())
	}
}

func TestDecode_JPEG(t *testing.T) {
	a, err := Decode("photo.jpg", testimg.JPEG(testimg.Gradient(64, 32), 85))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Format != encoder.FormatJPEG || a.HasAlpha {
		t.Errorf("got %s alpha=%v", a.Format, a.HasAlpha)
	}
	if a.AspectRatio() != 2 {
		t.Errorf("aspect: %v", a.AspectRatio())
	}
}

func TestDecode_Corrupt(t *testing.T) {
	data := testimg.PNG(testimg.Gradient(20, 20))
	_, err := Decode("broken.png", data[:len(data)/2])
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("got %v, want *DecodeError", err)
	}
	if decErr.Name != "broken.png" {
		t.Errorf("name: %q", decErr.Name)
	}
	if OpenHandles() != 0 {
		t.Errorf("handle leaked after failure: %d", OpenHandles())
	}
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode("notes.txt", []byte("definitely not an image"))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
	if OpenHandles() != 0 {
		t.Errorf("handle leaked: %d", OpenHandles())
	}
}

func TestDecode_Empty(t *testing.T) {
	if _, err := Decode("empty.png", nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("got %v, want ErrEmpty", err)
	}
}

func TestAsset_Release(t *testing.T) {
	a, err := Decode("a.png", testimg.PNG(testimg.Gradient(4, 4)))
	if err != nil {
		t.Fatal(err)
	}
	if a.Bitmap() == nil {
		t.Fatal("bitmap missing")
	}
	a.Release()
	if !a.Released() || a.Bitmap() != nil {
		t.Error("bitmap not released")
	}
}

func TestFromImage(t *testing.T) {
	a, err := FromImage("gen.png", testimg.AlphaGradient(12, 8), encoder.FormatPNG, nil)
	if err != nil {
		t.Fatalf("from image: %v", err)
	}
	if a.Width != 12 || a.Height != 8 || !a.HasAlpha || a.ByteSize == 0 || a.Fingerprint == "" {
		t.Errorf("asset: %+v", a)
	}

	// Nothing to encode for a fingerprint: the error surfaces.
	_, err = FromImage("empty.png", image.NewNRGBA(image.Rect(0, 0, 0, 0)), encoder.FormatPNG, nil)
	var decErr *DecodeError
	if !errors.As(err, &decErr) || decErr.Name != "empty.png" {
		t.Errorf("got %v, want *DecodeError", err)
	}
}
