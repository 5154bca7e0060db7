package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.Operation("compress", "completed")
	c.Operation("compress", "completed")
	c.Operation("convert", "error")
	c.CacheHit()
	c.CacheMiss()
	c.CacheMiss()
	c.Bytes(1000, 400)
	c.Records(3)

	if got := testutil.ToFloat64(c.operations.WithLabelValues("compress", "completed")); got != 2 {
		t.Errorf("compress completed: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.operations.WithLabelValues("convert", "error")); got != 1 {
		t.Errorf("convert error: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.cacheMisses); got != 2 {
		t.Errorf("cache misses: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.outputBytes); got != 400 {
		t.Errorf("output bytes: got %v, want 400", got)
	}
	if got := testutil.ToFloat64(c.records); got != 3 {
		t.Errorf("records: got %v, want 3", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.Operation("compress", "completed")
	c.Attempts(3)
	c.Bytes(1, 1)
	c.CacheHit()
	c.CacheMiss()
	c.Records(1)
}
