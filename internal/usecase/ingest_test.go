package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
)

func managerFor(a domrepo.Adapter) *DataManager {
	return NewDataManager(WithAdapterFactory(func(string) (domrepo.Adapter, error) { return a, nil }))
}

func TestIngestStoresValidBars(t *testing.T) {
	bad := record(2, 1, 1, 1, 1, 1)
	bad["ts"] = "bad"
	a := &staticAdapter{name: "binance", fr: models.FetchResult{Provider: "binance", Data: []models.NormalizedRecord{
		record(1, 1, 2, 0.5, 1.5, 10), bad, record(3, 1, 2, 0.5, 1.5, 10),
	}}}
	sink := newMemorySink()
	metrics := &countingMetrics{}
	uc := NewIngestUseCase(managerFor(a), NewBarConverter(nil), sink, "clickhouse", metrics)

	report, err := uc.Ingest(context.Background(), "binance", models.FetchParams{Symbol: " btcusdt", Interval: "1m"})
	require.NoError(t, err)
	assert.Equal(t, &IngestReport{Provider: "binance", Symbol: "BTCUSDT", Interval: "1m", Fetched: 3, Stored: 2, Dropped: 1}, report)

	key := models.SeriesKey{Provider: "binance", Symbol: "BTCUSDT", Interval: "1m"}
	require.Len(t, sink.writes[key], 2)
	assert.Equal(t, int64(3), sink.writes[key][1].TS)
	assert.Equal(t, 3, metrics.fetched)
	assert.Equal(t, 1, metrics.dropped)
	assert.Equal(t, 2, metrics.stored)
}

func TestIngestSkipsSinkWhenNothingValid(t *testing.T) {
	a := &staticAdapter{name: "polygon", fr: models.FetchResult{Provider: "polygon", Data: []models.NormalizedRecord{}}}
	sink := newMemorySink()
	sink.err = errors.New("must not be called")
	uc := NewIngestUseCase(managerFor(a), NewBarConverter(nil), sink, "kafka", nil)

	report, err := uc.Ingest(context.Background(), "polygon", models.FetchParams{Symbol: "AAPL", Interval: "1d"})
	require.NoError(t, err)
	assert.Zero(t, report.Stored)
}

func TestIngestPropagatesFetchError(t *testing.T) {
	dfe := models.NewDataFetchError("binance", errors.New("503"))
	sink := newMemorySink()
	metrics := &countingMetrics{}
	uc := NewIngestUseCase(managerFor(&staticAdapter{err: dfe}), NewBarConverter(nil), sink, "clickhouse", metrics)

	_, err := uc.Ingest(context.Background(), "binance", models.FetchParams{})
	assert.Same(t, dfe, err)
	assert.Empty(t, sink.writes)
	assert.Equal(t, []string{"data_fetch"}, metrics.errors)
}

func TestIngestWrapsSinkError(t *testing.T) {
	a := &staticAdapter{fr: models.FetchResult{Provider: "binance", Data: []models.NormalizedRecord{record(1, 1, 1, 1, 1, 1)}}}
	sink := newMemorySink()
	sink.err = errors.New("clickhouse down")
	uc := NewIngestUseCase(managerFor(a), NewBarConverter(nil), sink, "clickhouse", nil)

	_, err := uc.Ingest(context.Background(), "binance", models.FetchParams{Symbol: "X", Interval: "1m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write bars")
	assert.ErrorIs(t, err, sink.err)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "unknown_provider", ErrorKind(models.ErrUnknownProvider))
	assert.Equal(t, "invalid_params", ErrorKind(&models.ParamError{}))
	assert.Equal(t, "schema", ErrorKind(&models.SchemaError{Row: -1}))
	assert.Equal(t, "not_found", ErrorKind(models.ErrBarNotFound))
	assert.Equal(t, "internal", ErrorKind(errors.New("x")))
}
