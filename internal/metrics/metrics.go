// Package metrics holds the prometheus collectors shared by the batch
// engine. Every method is safe on a nil *Collector, which disables
// collection entirely.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups all pixbatch metrics registered on one registry.
type Collector struct {
	operations     *prometheus.CounterVec
	encodeAttempts prometheus.Histogram
	inputBytes     prometheus.Counter
	outputBytes    prometheus.Counter
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	records        prometheus.Gauge
}

// New registers the collectors on reg. A nil reg creates unregistered
// collectors, which is handy in tests.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pixbatch_operations_total",
			Help: "Single-asset operations by kind and terminal status.",
		}, []string{"operation", "status"}),
		encodeAttempts: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pixbatch_compress_attempts",
			Help:    "Encode attempts used by one target-size search.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		}),
		inputBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "pixbatch_input_bytes_total",
			Help: "Original bytes of assets that completed an operation.",
		}),
		outputBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "pixbatch_output_bytes_total",
			Help: "Bytes of produced outputs.",
		}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "pixbatch_encode_cache_hits_total",
			Help: "Encodes served from the LRU cache.",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "pixbatch_encode_cache_misses_total",
			Help: "Encodes that had to run the codec.",
		}),
		records: f.NewGauge(prometheus.GaugeOpts{
			Name: "pixbatch_batch_records",
			Help: "Records currently held by the batch.",
		}),
	}
}

// Operation counts one finished single-asset operation.
func (c *Collector) Operation(op, status string) {
	if c == nil {
		return
	}
	c.operations.WithLabelValues(op, status).Inc()
}

// Attempts observes the number of encodes of one quality search.
func (c *Collector) Attempts(n int) {
	if c == nil {
		return
	}
	c.encodeAttempts.Observe(float64(n))
}

// Bytes adds the input/output sizes of one completed operation.
func (c *Collector) Bytes(in, out int64) {
	if c == nil {
		return
	}
	c.inputBytes.Add(float64(in))
	c.outputBytes.Add(float64(out))
}

func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Inc()
}

func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}
	c.cacheMisses.Inc()
}

// Records sets the current batch size.
func (c *Collector) Records(n int) {
	if c == nil {
		return
	}
	c.records.Set(float64(n))
}
