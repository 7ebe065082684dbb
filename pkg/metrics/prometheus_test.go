package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordFetched("binance", 10)
	r.RecordFetched("binance", 5)
	r.RecordDropped("binance", 1)
	r.RecordStored("clickhouse", "binance", 14)
	r.RecordError("data_fetch")
	r.RecordLatency("ingest", 0.25)

	assert.Equal(t, 15.0, testutil.ToFloat64(r.fetched.WithLabelValues("binance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.dropped.WithLabelValues("binance")))
	assert.Equal(t, 14.0, testutil.ToFloat64(r.stored.WithLabelValues("clickhouse", "binance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("data_fetch")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}

func TestRecorderRegistersOncePerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}
