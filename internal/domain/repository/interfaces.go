package repository

import (
	"context"
	"time"

	"BarPull/internal/domain/models"
)

// Transport performs one provider HTTP call and returns the raw body.
// It is injected into adapters so tests and alternate clients can replace
// the network without touching normalization.
type Transport func(ctx context.Context, url string, params, headers map[string]string, timeout time.Duration) ([]byte, error)

// Adapter translates one vendor's wire format into normalized records.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, params models.FetchParams) (models.FetchResult, error)
}

// BarRepository queries stored bars for a series.
type BarRepository interface {
	FetchRange(ctx context.Context, key models.SeriesKey, startTS, endTS int64) ([]models.Bar, error)
	Latest(ctx context.Context, key models.SeriesKey) (models.Bar, error)
}

// BarSink persists or forwards converted bars.
type BarSink interface {
	WriteBars(ctx context.Context, key models.SeriesKey, bars []models.Bar) error
	Close() error
}

// BarArchive reads back a series written by an archival sink, ascending by ts.
type BarArchive interface {
	ReadSeries(ctx context.Context, key models.SeriesKey) ([]models.Bar, error)
}

type Metrics interface {
	RecordFetched(provider string, rows int)
	RecordDropped(provider string, rows int)
	RecordStored(sink, provider string, rows int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
