// Package finnhub adapts the Finnhub stock candle endpoint. Candles arrive
// as parallel column arrays keyed t/o/h/l/c/v with timestamps in seconds.
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"BarPull/internal/domain/models"
	"BarPull/internal/domain/repository"
	"BarPull/internal/service/vendor"
)

const (
	Name           = "finnhub"
	DefaultBaseURL = "https://finnhub.io/api/v1"
	tokenHeader    = "X-Finnhub-Token"
)

// resolutions maps the interval catalogue to Finnhub resolutions. 4h has no equivalent.
var resolutions = map[string]string{
	"1m":  "1",
	"5m":  "5",
	"15m": "15",
	"1h":  "60",
	"1d":  "D",
}

type Option func(*Adapter)

func WithBaseURL(u string) Option {
	return func(a *Adapter) {
		if u != "" {
			a.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithAPIKey(key string) Option {
	return func(a *Adapter) { a.apiKey = key }
}

func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

type Adapter struct {
	transport repository.Transport
	baseURL   string
	apiKey    string
	timeout   time.Duration
}

func New(transport repository.Transport, opts ...Option) *Adapter {
	a := &Adapter{transport: transport, baseURL: DefaultBaseURL, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Name() string { return Name }

type candleRequest struct {
	Symbol   string    `param:"symbol" validate:"required"`
	Interval string    `param:"interval" validate:"required,oneof=1m 5m 15m 1h 1d"`
	From     time.Time `param:"from" validate:"required"`
	To       time.Time `param:"to" validate:"required,gtefield=From"`
}

type candleResponse struct {
	Status string            `json:"s"`
	Error  string            `json:"error"`
	T      []json.RawMessage `json:"t"`
	O      []json.RawMessage `json:"o"`
	H      []json.RawMessage `json:"h"`
	L      []json.RawMessage `json:"l"`
	C      []json.RawMessage `json:"c"`
	V      []json.RawMessage `json:"v"`
}

func (a *Adapter) Fetch(ctx context.Context, params models.FetchParams) (models.FetchResult, error) {
	req := candleRequest{
		Symbol:   strings.ToUpper(strings.TrimSpace(params.Symbol)),
		Interval: params.Interval,
		From:     params.From,
		To:       params.To,
	}
	if err := vendor.ValidateParams(Name, req); err != nil {
		return models.FetchResult{}, err
	}

	query := map[string]string{
		"symbol":     req.Symbol,
		"resolution": resolutions[req.Interval],
		"from":       strconv.FormatInt(req.From.Unix(), 10),
		"to":         strconv.FormatInt(req.To.Unix(), 10),
	}
	var headers map[string]string
	if a.apiKey != "" {
		headers = map[string]string{tokenHeader: a.apiKey}
	}

	body, err := a.transport(ctx, a.baseURL+"/stock/candle", query, headers, a.timeout)
	if err != nil {
		return models.FetchResult{}, models.NewDataFetchError(Name, err)
	}

	var resp candleResponse
	if err := vendor.Decode(Name, body, &resp); err != nil {
		return models.FetchResult{}, err
	}
	if resp.Error != "" {
		return models.FetchResult{}, models.NewDataFetchError(Name, errors.New(resp.Error))
	}
	if resp.Status == "no_data" {
		return models.FetchResult{Provider: Name, Data: []models.NormalizedRecord{}}, nil
	}

	data := make([]models.NormalizedRecord, len(resp.T))
	for i := range resp.T {
		rec := models.NormalizedRecord{models.FieldTS: vendor.Seconds(resp.T[i])}
		setColumn(rec, models.FieldOpen, resp.O, i)
		setColumn(rec, models.FieldHigh, resp.H, i)
		setColumn(rec, models.FieldLow, resp.L, i)
		setColumn(rec, models.FieldClose, resp.C, i)
		setColumn(rec, models.FieldVolume, resp.V, i)
		data[i] = rec
	}
	return models.FetchResult{Provider: Name, Data: data}, nil
}

// setColumn leaves the key unset when a column is shorter than t.
func setColumn(rec models.NormalizedRecord, key string, col []json.RawMessage, i int) {
	if i < len(col) {
		rec[key] = vendor.Number(col[i])
	}
}
