package models

// BarsRequest is the query of GET /api/bars.
type BarsRequest struct {
	Provider string `query:"provider" validate:"required"`
	Symbol   string `query:"symbol" validate:"required"`
	Interval string `query:"interval" default:"1m" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	From     string `query:"from" validate:"required"`
	To       string `query:"to"`
	Limit    int    `query:"limit" default:"10000" validate:"min=1,max=50000"`
}

// LatestBarRequest is the query of GET /api/bars/latest.
type LatestBarRequest struct {
	Provider string `query:"provider" validate:"required"`
	Symbol   string `query:"symbol" validate:"required"`
	Interval string `query:"interval" default:"1m" validate:"oneof=1m 5m 15m 1h 4h 1d"`
}

// IngestRequest is the body of POST /api/ingest. From and To are optional;
// providers that need a window reject the call when they are missing.
type IngestRequest struct {
	Provider string `json:"provider" validate:"required"`
	Symbol   string `json:"symbol" validate:"required"`
	Interval string `json:"interval" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	Limit    int    `json:"limit" validate:"min=0,max=50000"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// ReplayRequest is the body of POST /api/replay.
type ReplayRequest struct {
	Provider string `json:"provider" validate:"required"`
	Symbol   string `json:"symbol" validate:"required"`
	Interval string `json:"interval" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
}
