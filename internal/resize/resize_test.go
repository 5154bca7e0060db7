package resize

import (
	"bytes"
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/AnyUserName/pixbatch/internal/decoder"
	"github.com/AnyUserName/pixbatch/internal/encoder"
	"github.com/AnyUserName/pixbatch/internal/testimg"
)

func TestDimensions_Locked(t *testing.T) {
	cases := []struct {
		origW, origH, tw, th int
		wantW, wantH         int
	}{
		{3000, 2000, 1500, 1500, 1500, 1000}, // width binds
		{3000, 2000, 3000, 500, 750, 500},    // height binds
		{2000, 3000, 800, 800, 533, 800},
		{100, 100, 50, 80, 50, 50},
	}
	for _, c := range cases {
		w, h, err := Dimensions(c.origW, c.origH, c.tw, c.th, true)
		if err != nil {
			t.Errorf("%+v: %v", c, err)
			continue
		}
		if w != c.wantW || h != c.wantH {
			t.Errorf("%dx%d -> box %dx%d: got %dx%d, want %dx%d",
				c.origW, c.origH, c.tw, c.th, w, h, c.wantW, c.wantH)
		}
	}
}

func TestDimensions_LockedKeepsRatio(t *testing.T) {
	const origW, origH = 1920, 1080
	r := float64(origW) / float64(origH)
	for tw := 200; tw <= 2000; tw += 137 {
		for th := 200; th <= 2000; th += 151 {
			w, h, err := Dimensions(origW, origH, tw, th, true)
			if err != nil {
				t.Fatalf("%dx%d: %v", tw, th, err)
			}
			if w > tw || h > th {
				t.Errorf("%dx%d: result %dx%d exceeds box", tw, th, w, h)
			}
			// Rounding to whole pixels shifts the ratio by at most half a
			// pixel on the derived side.
			if diff := math.Abs(float64(w)/float64(h) - r); diff > 0.01 {
				t.Errorf("%dx%d: ratio %v off by %v", tw, th, float64(w)/float64(h), diff)
			}
		}
	}
}

func TestDimensions_Unlocked(t *testing.T) {
	w, h, err := Dimensions(300, 200, 50, 400, false)
	if err != nil || w != 50 || h != 400 {
		t.Errorf("got %dx%d %v", w, h, err)
	}
}

func TestDimensions_Invalid(t *testing.T) {
	for _, c := range [][4]int{{100, 100, 0, 10}, {100, 100, 10, -1}, {0, 100, 10, 10}} {
		if _, _, err := Dimensions(c[0], c[1], c[2], c[3], true); !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("%v: got %v", c, err)
		}
	}
	// Extreme panorama collapses the derived side to zero.
	if _, _, err := Dimensions(10000, 1, 1, 1, true); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("collapsed side: got %v", err)
	}
}

func TestResize_KeepsOriginalFormat(t *testing.T) {
	r := New(encoder.NewRegistry(), nil, nil)
	cases := []struct {
		name string
		data []byte
		mime string
	}{
		{"photo.jpg", testimg.JPEG(testimg.Gradient(300, 200), 90), "image/jpeg"},
		{"logo.png", testimg.PNG(testimg.AlphaGradient(300, 200)), "image/png"},
	}
	for _, c := range cases {
		a, err := decoder.Decode(c.name, c.data)
		if err != nil {
			t.Fatal(err)
		}
		res, err := r.Resize(context.Background(), a, Request{Width: 150, Height: 150, LockAspectRatio: true})
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if res.NewWidth != 150 || res.NewHeight != 100 {
			t.Errorf("%s: got %dx%d", c.name, res.NewWidth, res.NewHeight)
		}
		if res.MIMEType != c.mime || res.Name != c.name {
			t.Errorf("%s: %s %s", c.name, res.Name, res.MIMEType)
		}
		out, err := decoder.Decode(res.Name, res.Data)
		if err != nil {
			t.Fatal(err)
		}
		if out.Width != 150 || out.Height != 100 || out.MIMEType != c.mime {
			t.Errorf("%s: decoded %dx%d %s", c.name, out.Width, out.Height, out.MIMEType)
		}
	}
}

func TestResize_Distorts(t *testing.T) {
	a, err := decoder.Decode("a.png", testimg.PNG(testimg.Gradient(100, 100)))
	if err != nil {
		t.Fatal(err)
	}
	res, err := New(encoder.NewRegistry(), nil, nil).Resize(context.Background(), a, Request{Width: 40, Height: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.NewWidth != 40 || res.NewHeight != 10 {
		t.Errorf("got %dx%d", res.NewWidth, res.NewHeight)
	}
}

func TestResize_InvalidIsEncodeError(t *testing.T) {
	a, err := decoder.FromImage("a.png", testimg.Gradient(10, 10), encoder.FormatPNG, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = New(encoder.NewRegistry(), nil, nil).Resize(context.Background(), a, Request{Width: 0, Height: 10})
	var encErr *encoder.EncodeError
	if !errors.As(err, &encErr) || !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("got %v", err)
	}
}

func TestResize_DoesNotMutateSource(t *testing.T) {
	a, err := decoder.FromImage("a.png", testimg.Gradient(64, 64), encoder.FormatPNG, nil)
	if err != nil {
		t.Fatal(err)
	}
	src := a.Bitmap().(*image.NRGBA)
	before := append([]byte(nil), src.Pix...)

	if _, err := New(encoder.NewRegistry(), nil, nil).Resize(context.Background(), a, Request{Width: 16, Height: 16}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, src.Pix) {
		t.Error("resize modified the source bitmap")
	}
	if a.Width != 64 || a.Height != 64 {
		t.Errorf("asset metadata changed: %dx%d", a.Width, a.Height)
	}
}
