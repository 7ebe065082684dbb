package models

import "time"

// Canonical record keys shared by every adapter.
const (
	FieldTS     = "ts"
	FieldOpen   = "open"
	FieldHigh   = "high"
	FieldLow    = "low"
	FieldClose  = "close"
	FieldVolume = "volume"
)

// RecordFields lists the canonical keys in positional order.
var RecordFields = []string{FieldTS, FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume}

// NormalizedRecord is one vendor row translated to the canonical keys.
// Values that could not be parsed are kept raw so validation can reject the row.
type NormalizedRecord map[string]any

// FetchResult is the adapter output envelope.
type FetchResult struct {
	Provider string             `json:"provider"`
	Data     []NormalizedRecord `json:"data"`
}

// Bar is the canonical OHLCV entity. Price ordering (low <= open/close <= high)
// is not guaranteed.
type Bar struct {
	Provider string  `json:"provider" parquet:"provider"`
	TS       int64   `json:"ts" parquet:"ts"`
	Open     float64 `json:"open" parquet:"open"`
	High     float64 `json:"high" parquet:"high"`
	Low      float64 `json:"low" parquet:"low"`
	Close    float64 `json:"close" parquet:"close"`
	Volume   float64 `json:"volume" parquet:"volume"`
}

// OHLC returns (open, high, low, close).
func (b Bar) OHLC() [4]float64 {
	return [4]float64{b.Open, b.High, b.Low, b.Close}
}

// Time returns the bar timestamp as a UTC instant.
func (b Bar) Time() time.Time {
	return time.Unix(b.TS, 0).UTC()
}

// Record maps the bar back to its normalized form.
func (b Bar) Record() NormalizedRecord {
	return NormalizedRecord{
		FieldTS:     b.TS,
		FieldOpen:   b.Open,
		FieldHigh:   b.High,
		FieldLow:    b.Low,
		FieldClose:  b.Close,
		FieldVolume: b.Volume,
	}
}

// SeriesKey identifies one logical time series.
type SeriesKey struct {
	Provider string `json:"provider"`
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
}

func (k SeriesKey) String() string {
	return k.Provider + ":" + k.Symbol + ":" + k.Interval
}

// FetchParams carries provider query parameters. Each adapter decides which
// fields are required.
type FetchParams struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	Limit    int       `json:"limit"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
}

// BarBatch is the wire envelope for bars published to a broker.
type BarBatch struct {
	Provider string             `json:"provider"`
	Symbol   string             `json:"symbol"`
	Interval string             `json:"interval"`
	Data     []NormalizedRecord `json:"data"`
}

// NewBarBatch builds an envelope for bars belonging to key.
func NewBarBatch(key SeriesKey, bars []Bar) BarBatch {
	data := make([]NormalizedRecord, len(bars))
	for i, b := range bars {
		data[i] = b.Record()
	}
	return BarBatch{Provider: key.Provider, Symbol: key.Symbol, Interval: key.Interval, Data: data}
}

// Key returns the series key of the batch.
func (b BarBatch) Key() SeriesKey {
	return SeriesKey{Provider: b.Provider, Symbol: b.Symbol, Interval: b.Interval}
}

// FetchResult strips the routing fields.
func (b BarBatch) FetchResult() FetchResult {
	return FetchResult{Provider: b.Provider, Data: b.Data}
}
