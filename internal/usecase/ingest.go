package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
	applogger "BarPull/pkg/logger"
)

// IngestReport summarizes one fetch-convert-store run.
type IngestReport struct {
	Provider string `json:"provider"`
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Fetched  int    `json:"fetched"`
	Stored   int    `json:"stored"`
	Dropped  int    `json:"dropped"`
}

// IngestUseCase fetches bars from a provider, validates them and hands them to a sink.
type IngestUseCase struct {
	manager   *DataManager
	converter *BarConverter
	sink      domrepo.BarSink
	sinkName  string
	metrics   domrepo.Metrics
	log       *applogger.Logger
}

func NewIngestUseCase(
	manager *DataManager,
	converter *BarConverter,
	sink domrepo.BarSink,
	sinkName string,
	metrics domrepo.Metrics,
) *IngestUseCase {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &IngestUseCase{
		manager:   manager,
		converter: converter,
		sink:      sink,
		sinkName:  sinkName,
		metrics:   metrics,
		log:       applogger.Nop(),
	}
}

// SetLogger sets optional logger.
func (uc *IngestUseCase) SetLogger(l *applogger.Logger) {
	if l != nil {
		uc.log = l
	}
}

// Ingest runs one pass. Fetch errors are returned unchanged; invalid rows are
// dropped and reported, not returned.
func (uc *IngestUseCase) Ingest(ctx context.Context, provider string, params models.FetchParams) (*IngestReport, error) {
	begin := time.Now()
	start := begin
	fr, err := uc.manager.FetchMarketData(ctx, provider, params)
	uc.metrics.RecordLatency("fetch", time.Since(start).Seconds())
	if err != nil {
		uc.metrics.RecordError(ErrorKind(err))
		return nil, err
	}
	uc.metrics.RecordFetched(fr.Provider, len(fr.Data))

	conv, err := uc.converter.Convert(fr, true)
	if err != nil {
		uc.metrics.RecordError(ErrorKind(err))
		return nil, err
	}
	uc.metrics.RecordDropped(fr.Provider, conv.Dropped)

	key := models.SeriesKey{
		Provider: fr.Provider,
		Symbol:   strings.ToUpper(strings.TrimSpace(params.Symbol)),
		Interval: params.Interval,
	}
	report := &IngestReport{
		Provider: key.Provider,
		Symbol:   key.Symbol,
		Interval: key.Interval,
		Fetched:  len(fr.Data),
		Dropped:  conv.Dropped,
	}

	if len(conv.Bars) > 0 {
		start = time.Now()
		if err := uc.sink.WriteBars(ctx, key, conv.Bars); err != nil {
			uc.metrics.RecordError("sink")
			return nil, fmt.Errorf("write bars: %w", err)
		}
		uc.metrics.RecordLatency("sink", time.Since(start).Seconds())
		uc.metrics.RecordStored(uc.sinkName, key.Provider, len(conv.Bars))
		report.Stored = len(conv.Bars)
	}

	if report.Dropped > 0 {
		uc.log.Warn("ingest dropped invalid rows",
			applogger.String("series", key.String()),
			applogger.Int("dropped", report.Dropped),
			applogger.Int("fetched", report.Fetched),
		)
	}
	uc.log.Info("ingest done",
		applogger.String("series", key.String()),
		applogger.String("sink", uc.sinkName),
		applogger.Int("stored", report.Stored),
		applogger.Duration("duration_ms", time.Since(begin)),
	)
	return report, nil
}

// ErrorKind maps an error to a low-cardinality metrics label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrUnknownProvider):
		return "unknown_provider"
	case errors.Is(err, models.ErrInvalidParams):
		return "invalid_params"
	case errors.Is(err, models.ErrDataFetch):
		return "data_fetch"
	case errors.Is(err, models.ErrSchema):
		return "schema"
	case errors.Is(err, models.ErrBarNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) RecordFetched(string, int)        {}
func (NoopMetrics) RecordDropped(string, int)        {}
func (NoopMetrics) RecordStored(string, string, int) {}
func (NoopMetrics) RecordError(string)               {}
func (NoopMetrics) RecordLatency(string, float64)    {}

var _ domrepo.Metrics = NoopMetrics{}
