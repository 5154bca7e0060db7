package encoder

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
)

// Atomic counter for unique temp file names across goroutines.
var tempCounter atomic.Int64

// AVIFEncoder encodes images to AVIF by shelling out to avifenc.
// Install: brew install libavif / apt install libavif-bin
type AVIFEncoder struct {
	once        sync.Once
	available   bool
	avifencPath string
}

func (e *AVIFEncoder) Format() Format { return FormatAVIF }

func (e *AVIFEncoder) Available() bool {
	e.once.Do(func() {
		path, err := exec.LookPath("avifenc")
		if err == nil {
			e.available = true
			e.avifencPath = path
		}
	})
	return e.available
}

func (e *AVIFEncoder) Encode(img image.Image, opts Options) ([]byte, error) {
	if !e.Available() {
		return nil, fmt.Errorf("avifenc not found in PATH; install with: brew install libavif")
	}

	// avifenc quantizer: 0 is lossless-ish, 63 is worst.
	q := clampQuality(opts.Quality)
	avifQ := 63 - (q * 63 / 100)
	if opts.Lossless {
		avifQ = 0
	}

	id := tempCounter.Add(1)
	srcPath, dstPath, cleanup, err := tempPair(id)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := writePNG(srcPath, img); err != nil {
		return nil, err
	}

	cmd := exec.Command(e.avifencPath,
		"--min", fmt.Sprintf("%d", avifQ),
		"--max", fmt.Sprintf("%d", avifQ),
		"--speed", "6", // 0=slowest, 10=fastest
		"-j", "all",
		srcPath,
		dstPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("avifenc: %w: %s", err, string(out))
	}

	return os.ReadFile(dstPath)
}

// tempPair reserves a PNG source and AVIF destination path. cleanup
// removes both.
func tempPair(id int64) (src, dst string, cleanup func(), err error) {
	srcFile, err := os.CreateTemp("", fmt.Sprintf("pixbatch_avif_src_%d_*.png", id))
	if err != nil {
		return "", "", nil, fmt.Errorf("create temp: %w", err)
	}
	src = srcFile.Name()
	srcFile.Close()

	dstFile, err := os.CreateTemp("", fmt.Sprintf("pixbatch_avif_dst_%d_*.avif", id))
	if err != nil {
		os.Remove(src)
		return "", "", nil, fmt.Errorf("create temp: %w", err)
	}
	dst = dstFile.Name()
	dstFile.Close()

	return src, dst, func() {
		os.Remove(src)
		os.Remove(dst)
	}, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode temp png: %w", err)
	}
	return f.Close()
}
