// Package polygon adapts the Polygon.io aggregates endpoint, which returns
// named-field objects under "results" with millisecond timestamps.
package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"BarPull/internal/domain/models"
	"BarPull/internal/domain/repository"
	"BarPull/internal/service/vendor"
)

const (
	Name           = "polygon"
	DefaultBaseURL = "https://api.polygon.io"
	maxLimit       = 50000
)

// span maps the interval catalogue to (multiplier, timespan).
var span = map[string][2]string{
	"1m":  {"1", "minute"},
	"5m":  {"5", "minute"},
	"15m": {"15", "minute"},
	"1h":  {"1", "hour"},
	"4h":  {"4", "hour"},
	"1d":  {"1", "day"},
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

type aggsRequest struct {
	Ticker   string    `param:"symbol" validate:"required"`
	Interval string    `param:"interval" validate:"required,oneof=1m 5m 15m 1h 4h 1d"`
	From     time.Time `param:"from" validate:"required"`
	To       time.Time `param:"to" validate:"required,gtefield=From"`
	Limit    int       `param:"limit" validate:"min=0,max=50000"`
}

type aggsResponse struct {
	Status  string            `json:"status"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Results []json.RawMessage `json:"results"`
}

func (a *Adapter) Fetch(ctx context.Context, params models.FetchParams) (models.FetchResult, error) {
	req := aggsRequest{
		Ticker:   strings.ToUpper(strings.TrimSpace(params.Symbol)),
		Interval: params.Interval,
		From:     params.From,
		To:       params.To,
		Limit:    params.Limit,
	}
	if err := vendor.ValidateParams(Name, req); err != nil {
		return models.FetchResult{}, err
	}

	s := span[req.Interval]
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%s/%s/%d/%d",
		a.baseURL, url.PathEscape(req.Ticker), s[0], s[1], req.From.UnixMilli(), req.To.UnixMilli())

	limit := req.Limit
	if limit == 0 {
		limit = maxLimit
	}
	query := map[string]string{"adjusted": "true", "sort": "asc", "limit": strconv.Itoa(limit)}
	if a.apiKey != "" {
		query["apiKey"] = a.apiKey
	}

	body, err := a.transport(ctx, endpoint, query, nil, a.timeout)
	if err != nil {
		return models.FetchResult{}, models.NewDataFetchError(Name, err)
	}

	var resp aggsResponse
	if err := vendor.Decode(Name, body, &resp); err != nil {
		return models.FetchResult{}, err
	}
	if resp.Status == "ERROR" {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		return models.FetchResult{}, models.NewDataFetchError(Name, errors.New(msg))
	}

	data := make([]models.NormalizedRecord, 0, len(resp.Results))
	for _, raw := range resp.Results {
		data = append(data, normalize(raw))
	}
	return models.FetchResult{Provider: Name, Data: data}, nil
}

var fieldKeys = map[string]string{
	models.FieldOpen:   "o",
	models.FieldHigh:   "h",
	models.FieldLow:    "l",
	models.FieldClose:  "c",
	models.FieldVolume: "v",
}

func normalize(raw json.RawMessage) models.NormalizedRecord {
	rec := models.NormalizedRecord{}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return rec
	}
	if t, ok := obj["t"]; ok {
		rec[models.FieldTS] = vendor.Millis(t)
	}
	for field, key := range fieldKeys {
		if v, ok := obj[key]; ok {
			rec[field] = vendor.Number(v)
		}
	}
	return rec
}
