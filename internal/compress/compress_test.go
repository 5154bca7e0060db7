package compress

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"testing"

	"github.com/AnyUserName/pixbatch/internal/decoder"
	"github.com/AnyUserName/pixbatch/internal/encoder"
	"github.com/AnyUserName/pixbatch/internal/profile"
	"github.com/AnyUserName/pixbatch/internal/testimg"
)

func newCompressor() *Compressor {
	return New(encoder.NewRegistry(), nil, nil)
}

func decodeOrFatal(t *testing.T, name string, data []byte) *decoder.Asset {
	t.Helper()
	a, err := decoder.Decode(name, data)
	if err != nil {
		t.Fatalf("decode %s: %v", name, err)
	}
	return a
}

func checkAttempts(t *testing.T, res *Result) {
	t.Helper()
	if len(res.Attempts) == 0 || len(res.Attempts) > MaxAttempts {
		t.Fatalf("attempts: got %d, want 1..%d", len(res.Attempts), MaxAttempts)
	}
	for i := 1; i < len(res.Attempts); i++ {
		if res.Attempts[i].Quality > res.Attempts[i-1].Quality {
			t.Errorf("quality increased at attempt %d: %.2f -> %.2f",
				i+1, res.Attempts[i-1].Quality, res.Attempts[i].Quality)
		}
	}
	last := res.Attempts[len(res.Attempts)-1]
	if last.Quality != res.AchievedQuality || last.Bytes != res.Size {
		t.Errorf("result does not match last attempt: %+v vs q=%.2f size=%d", last, res.AchievedQuality, res.Size)
	}
}

func TestCompress_MeetsTarget(t *testing.T) {
	a := decodeOrFatal(t, "noise.png", testimg.PNG(testimg.Noise(256, 256, 1)))
	res, err := newCompressor().Compress(context.Background(), a, Request{TargetSizeKB: 40, InitialQuality: 0.8})
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	checkAttempts(t, res)
	if res.Met && res.Size > 40*1024 {
		t.Errorf("met but size %d > target", res.Size)
	}
	if !res.Met && len(res.Attempts) != MaxAttempts && res.AchievedQuality != 0.01 {
		t.Errorf("stopped early without meeting target: %+v", res.Attempts)
	}
	if res.Name != "noise.jpeg" || res.MIMEType != "image/jpeg" {
		t.Errorf("output: %s %s", res.Name, res.MIMEType)
	}
	if want := profile.RatioPercent(a.ByteSize, res.Size); res.CompressionRatioPercent != want {
		t.Errorf("ratio: got %d, want %d", res.CompressionRatioPercent, want)
	}
	if res.AchievedSizeKB != profile.SizeKB(res.Size) {
		t.Errorf("size kb: got %d", res.AchievedSizeKB)
	}
}

func TestCompress_UnreachableStopsAtCap(t *testing.T) {
	a := decodeOrFatal(t, "noise.png", testimg.PNG(testimg.Noise(256, 256, 2)))
	res, err := newCompressor().Compress(context.Background(), a, Request{TargetSizeKB: 1, InitialQuality: 1.0})
	if err != nil {
		t.Fatalf("best effort must not error: %v", err)
	}
	checkAttempts(t, res)
	if res.Met {
		t.Fatal("1 KB target on 256x256 noise reported as met")
	}
	if len(res.Attempts) != MaxAttempts {
		t.Errorf("attempts: got %d, want %d", len(res.Attempts), MaxAttempts)
	}
	if res.AchievedQuality != 0.1 {
		t.Errorf("last quality: got %.2f, want 0.10", res.AchievedQuality)
	}
}

func TestCompress_QualityFloor(t *testing.T) {
	a := decodeOrFatal(t, "noise.png", testimg.PNG(testimg.Noise(128, 128, 3)))
	res, err := newCompressor().Compress(context.Background(), a, Request{TargetSizeKB: 1, InitialQuality: 0.3})
	if err != nil {
		t.Fatal(err)
	}
	checkAttempts(t, res)
	// 0.3, 0.2, 0.1, 0.01 then the floor stops the search.
	if len(res.Attempts) != 4 {
		t.Errorf("attempts: got %d, want 4 (%+v)", len(res.Attempts), res.Attempts)
	}
	if res.AchievedQuality != 0.01 {
		t.Errorf("floor quality: got %.2f", res.AchievedQuality)
	}
}

func TestCompress_AlreadyUnderTarget(t *testing.T) {
	a := decodeOrFatal(t, "small.png", testimg.PNG(testimg.Gradient(32, 32)))
	res, err := newCompressor().Compress(context.Background(), a, Request{TargetSizeKB: 500, InitialQuality: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Attempts) != 1 {
		t.Errorf("attempts: got %d, want exactly 1", len(res.Attempts))
	}
	if res.AchievedQuality != 0.8 {
		t.Errorf("quality raised or changed: %.2f", res.AchievedQuality)
	}
	if !res.Met {
		t.Error("target not met")
	}
	img, err := jpeg.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("output not jpeg: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Errorf("dims changed: %v", img.Bounds())
	}
}

func TestCompress_InvalidRequest(t *testing.T) {
	a := decodeOrFatal(t, "a.png", testimg.PNG(testimg.Gradient(8, 8)))
	c := newCompressor()
	for _, req := range []Request{
		{TargetSizeKB: 0, InitialQuality: 0.8},
		{TargetSizeKB: 100, InitialQuality: 0},
		{TargetSizeKB: 100, InitialQuality: 1.5},
	} {
		_, err := c.Compress(context.Background(), a, req)
		var encErr *encoder.EncodeError
		if !errors.As(err, &encErr) || !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%+v: got %v", req, err)
		}
	}
}

func TestCompress_ZeroDimension(t *testing.T) {
	a, err := decoder.FromImage("empty.png", image.NewNRGBA(image.Rect(0, 0, 0, 0)), encoder.FormatPNG, []byte{1})
	if err != nil {
		t.Fatal(err)
	}
	_, err = newCompressor().Compress(context.Background(), a, Request{TargetSizeKB: 100, InitialQuality: 0.8})
	if !errors.Is(err, encoder.ErrEmptyImage) {
		t.Errorf("got %v, want ErrEmptyImage", err)
	}
}

func TestCompress_Released(t *testing.T) {
	a := decodeOrFatal(t, "a.png", testimg.PNG(testimg.Gradient(8, 8)))
	a.Release()
	_, err := newCompressor().Compress(context.Background(), a, Request{TargetSizeKB: 100, InitialQuality: 0.8})
	if !errors.Is(err, decoder.ErrReleased) {
		t.Errorf("got %v, want ErrReleased", err)
	}
}

func TestCompress_Canceled(t *testing.T) {
	a := decodeOrFatal(t, "a.png", testimg.PNG(testimg.Gradient(8, 8)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newCompressor().Compress(ctx, a, Request{TargetSizeKB: 100, InitialQuality: 0.8}); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestCompress_CacheReuse(t *testing.T) {
	cache, err := encoder.NewCache(16, nil)
	if err != nil {
		t.Fatal(err)
	}
	c := New(encoder.NewRegistry(), cache, nil)
	a := decodeOrFatal(t, "noise.png", testimg.PNG(testimg.Noise(64, 64, 4)))
	req := Request{TargetSizeKB: 2, InitialQuality: 0.5}

	first, err := c.Compress(context.Background(), a, req)
	if err != nil {
		t.Fatal(err)
	}
	n := cache.Len()
	second, err := c.Compress(context.Background(), a, req)
	if err != nil {
		t.Fatal(err)
	}
	if cache.Len() != n {
		t.Errorf("re-run added cache entries: %d -> %d", n, cache.Len())
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Error("re-run produced different bytes")
	}
}
