package usecase

import (
	"context"
	"sync"
	"time"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
)

type staticAdapter struct {
	name  string
	fr    models.FetchResult
	err   error
	calls int
}

func (a *staticAdapter) Name() string { return a.name }

func (a *staticAdapter) Fetch(context.Context, models.FetchParams) (models.FetchResult, error) {
	a.calls++
	return a.fr, a.err
}

type memorySink struct {
	mu     sync.Mutex
	writes map[models.SeriesKey][]models.Bar
	err    error
}

func newMemorySink() *memorySink {
	return &memorySink{writes: make(map[models.SeriesKey][]models.Bar)}
}

func (s *memorySink) WriteBars(_ context.Context, key models.SeriesKey, bars []models.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes[key] = append(s.writes[key], bars...)
	return nil
}

func (s *memorySink) Close() error { return nil }

type fakeRepo struct {
	bars    []models.Bar
	latest  models.Bar
	err     error
	lastKey models.SeriesKey
	start   int64
	end     int64
}

func (r *fakeRepo) FetchRange(_ context.Context, key models.SeriesKey, startTS, endTS int64) ([]models.Bar, error) {
	r.lastKey, r.start, r.end = key, startTS, endTS
	return r.bars, r.err
}

func (r *fakeRepo) Latest(_ context.Context, key models.SeriesKey) (models.Bar, error) {
	r.lastKey = key
	if r.err != nil {
		return models.Bar{}, r.err
	}
	return r.latest, nil
}

type countingMetrics struct {
	mu      sync.Mutex
	fetched int
	dropped int
	stored  int
	errors  []string
}

func (m *countingMetrics) RecordFetched(_ string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched += n
}

func (m *countingMetrics) RecordDropped(_ string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped += n
}

func (m *countingMetrics) RecordStored(_, _ string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored += n
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *countingMetrics) RecordLatency(string, float64) {}

var (
	_ domrepo.Metrics       = (*countingMetrics)(nil)
	_ domrepo.BarSink       = (*memorySink)(nil)
	_ domrepo.BarRepository = (*fakeRepo)(nil)
)

func record(ts int64, o, h, l, c, v float64) models.NormalizedRecord {
	return models.NormalizedRecord{"ts": ts, "open": o, "high": h, "low": l, "close": c, "volume": v}
}

func klinesTransport(body string, calls *int) domrepo.Transport {
	return func(context.Context, string, map[string]string, map[string]string, time.Duration) ([]byte, error) {
		*calls++
		return []byte(body), nil
	}
}
