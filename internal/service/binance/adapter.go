// Package binance adapts the Binance spot klines endpoint.
//
// The endpoint returns an array of arrays:
//
//	[openTimeMs, "open", "high", "low", "close", "volume", closeTimeMs, ...]
//
// Prices and volume arrive as numeric strings.
package binance

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"BarPull/internal/domain/models"
	"BarPull/internal/domain/repository"
	"BarPull/internal/service/vendor"
	xutil "BarPull/pkg/util"
)

const (
	Name           = "binance"
	DefaultBaseURL = "https://api.binance.com"
	klinesPath     = "/api/v3/klines"
)

// Option configures the adapter.
type Option func(*Adapter)

// WithBaseURL overrides the API host.
func WithBaseURL(u string) Option {
	return func(a *Adapter) {
		if u != "" {
			a.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout sets the per-call timeout passed to the transport.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// Adapter fetches klines through an injected transport.
type Adapter struct {
	transport repository.Transport
	baseURL   string
	timeout   time.Duration
}

// New builds the adapter. transport must not be nil.
func New(transport repository.Transport, opts ...Option) *Adapter {
	a := &Adapter{transport: transport, baseURL: DefaultBaseURL, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Name() string { return Name }

type klinesRequest struct {
	Symbol   string `param:"symbol" validate:"required"`
	Interval string `param:"interval" validate:"required,oneof=1m 5m 15m 1h 4h 1d"`
	Limit    int    `param:"limit" validate:"min=0,max=1000"`
}

// Fetch returns one normalized record per kline row.
func (a *Adapter) Fetch(ctx context.Context, params models.FetchParams) (models.FetchResult, error) {
	req := klinesRequest{
		Symbol:   strings.ToUpper(strings.TrimSpace(params.Symbol)),
		Interval: params.Interval,
		Limit:    params.Limit,
	}
	if err := vendor.ValidateParams(Name, req); err != nil {
		return models.FetchResult{}, err
	}

	query := map[string]string{"symbol": req.Symbol, "interval": req.Interval}
	if req.Limit > 0 {
		query["limit"] = strconv.Itoa(req.Limit)
	}
	if !params.From.IsZero() {
		query["startTime"] = xutil.UnixMilli(params.From)
	}
	if !params.To.IsZero() {
		query["endTime"] = xutil.UnixMilli(params.To)
	}

	body, err := a.transport(ctx, a.baseURL+klinesPath, query, nil, a.timeout)
	if err != nil {
		return models.FetchResult{}, models.NewDataFetchError(Name, err)
	}

	var rows []json.RawMessage
	if err := vendor.Decode(Name, body, &rows); err != nil {
		return models.FetchResult{}, err
	}

	data := make([]models.NormalizedRecord, 0, len(rows))
	for _, raw := range rows {
		data = append(data, normalize(raw))
	}
	return models.FetchResult{Provider: Name, Data: data}, nil
}

// normalize maps one kline. Short or non-array rows yield partial records
// that fail validation downstream.
func normalize(raw json.RawMessage) models.NormalizedRecord {
	rec := models.NormalizedRecord{}
	var cols []json.RawMessage
	if err := json.Unmarshal(raw, &cols); err != nil {
		return rec
	}
	if len(cols) > 0 {
		rec[models.FieldTS] = vendor.Millis(cols[0])
	}
	for i, key := range models.RecordFields[1:] {
		if i+1 < len(cols) {
			rec[key] = vendor.Number(cols[i+1])
		}
	}
	return rec
}
