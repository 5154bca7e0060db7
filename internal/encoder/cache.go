package encoder

import (
	"fmt"
	"image"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AnyUserName/pixbatch/internal/hasher"
	"github.com/AnyUserName/pixbatch/internal/metrics"
)

// Cache keeps recently encoded buffers so re-running an operation with the
// same parameters does not hit the codec again. A nil *Cache encodes
// every time.
type Cache struct {
	lru     *lru.Cache[uint64, []byte]
	metrics *metrics.Collector
}

// NewCache creates a cache holding up to size encoded buffers.
func NewCache(size int, m *metrics.Collector) (*Cache, error) {
	c, err := lru.New[uint64, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("encode cache: %w", err)
	}
	return &Cache{lru: c, metrics: m}, nil
}

// Key identifies one encode of a source at given output parameters.
func Key(fingerprint string, f Format, opts Options, w, h int) uint64 {
	return hasher.Key(
		fingerprint,
		string(f),
		strconv.Itoa(opts.Quality),
		strconv.FormatBool(opts.Lossless),
		strconv.Itoa(w),
		strconv.Itoa(h),
	)
}

// Encode returns the cached buffer for key or runs reg.Encode and stores
// the result. Callers must treat the returned slice as read-only.
func (c *Cache) Encode(reg *Registry, key uint64, img image.Image, f Format, opts Options) ([]byte, error) {
	if c == nil {
		return reg.Encode(img, f, opts)
	}
	if data, ok := c.lru.Get(key); ok {
		c.metrics.CacheHit()
		return data, nil
	}
	c.metrics.CacheMiss()
	data, err := reg.Encode(img, f, opts)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, data)
	return data, nil
}

// Len reports the number of cached buffers.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge drops every cached buffer.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}
