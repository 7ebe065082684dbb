package repository

//go:generate mockgen -source=clickhouse_bar_store.go -destination=mock_conn_test.go -package=repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
	applogger "BarPull/pkg/logger"
)

const defaultChunkSize = 2000

// Rows is the cursor shape returned by a query. *sql.Rows satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Conn is one storage connection, held for a single repository call.
type Conn interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
	Release() error
}

// Connector hands out connections.
type Connector interface {
	Acquire(ctx context.Context) (Conn, error)
}

// NewSQLConnector adapts a database/sql pool.
func NewSQLConnector(db *sql.DB) Connector {
	return sqlConnector{db: db}
}

type sqlConnector struct {
	db *sql.DB
}

func (c sqlConnector) Acquire(ctx context.Context) (Conn, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return sqlConn{conn: conn}, nil
}

type sqlConn struct {
	conn *sql.Conn
}

func (c sqlConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c sqlConn) Exec(ctx context.Context, query string, args ...any) error {
	_, err := c.conn.ExecContext(ctx, query, args...)
	return err
}

func (c sqlConn) Release() error { return c.conn.Close() }

// ClickHouseBarStore reads and writes bars in one ReplacingMergeTree table.
type ClickHouseBarStore struct {
	conn      Connector
	table     string
	chunkSize int
	l         *applogger.Logger
}

var (
	_ domrepo.BarRepository = (*ClickHouseBarStore)(nil)
	_ domrepo.BarSink       = (*ClickHouseBarStore)(nil)
)

// StoreOption configures ClickHouseBarStore.
type StoreOption func(*ClickHouseBarStore)

// WithTable sets the bars table, optionally qualified with a database.
func WithTable(table string) StoreOption {
	return func(s *ClickHouseBarStore) { s.table = table }
}

// WithChunkSize sets the number of rows per INSERT statement.
func WithChunkSize(n int) StoreOption {
	return func(s *ClickHouseBarStore) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

func NewClickHouseBarStore(conn Connector, opts ...StoreOption) *ClickHouseBarStore {
	s := &ClickHouseBarStore{conn: conn, table: "bars", chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLogger injects a structured logger.
func (s *ClickHouseBarStore) SetLogger(l *applogger.Logger) { s.l = l }

// FetchRange returns bars with startTS <= ts <= endTS in ascending order.
func (s *ClickHouseBarStore) FetchRange(ctx context.Context, key models.SeriesKey, startTS, endTS int64) ([]models.Bar, error) {
	if startTS > endTS {
		return []models.Bar{}, nil
	}
	start := time.Now()
	const qtpl = `
        SELECT ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE provider = ? AND symbol = ? AND ` + "`interval`" + ` = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `
	out, err := s.query(ctx, "fetch_range", key, fmt.Sprintf(qtpl, s.table),
		key.Provider, key.Symbol, key.Interval, toTime(startTS), toTime(endTS))
	if err != nil {
		return nil, err
	}
	if s.l != nil {
		s.l.Debug("clickhouse fetch_range ok",
			applogger.String("series", key.String()),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Latest returns the bar with the highest ts, or models.ErrBarNotFound.
func (s *ClickHouseBarStore) Latest(ctx context.Context, key models.SeriesKey) (models.Bar, error) {
	const qtpl = `
        SELECT ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE provider = ? AND symbol = ? AND ` + "`interval`" + ` = ?
        ORDER BY ts DESC
        LIMIT 1
    `
	out, err := s.query(ctx, "latest", key, fmt.Sprintf(qtpl, s.table), key.Provider, key.Symbol, key.Interval)
	if err != nil {
		return models.Bar{}, err
	}
	if len(out) == 0 {
		return models.Bar{}, fmt.Errorf("%w: %s", models.ErrBarNotFound, key)
	}
	return out[0], nil
}

// WriteBars inserts bars in multi-row chunks. Duplicate (series, ts) rows
// collapse on merge.
func (s *ClickHouseBarStore) WriteBars(ctx context.Context, key models.SeriesKey, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	start := time.Now()
	conn, err := s.conn.Acquire(ctx)
	if err != nil {
		s.logError("write_bars acquire error", key, err)
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	for lo := 0; lo < len(bars); lo += s.chunkSize {
		hi := min(lo+s.chunkSize, len(bars))
		values := make([]string, 0, hi-lo)
		args := make([]any, 0, (hi-lo)*9)
		for _, b := range bars[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, key.Provider, key.Symbol, key.Interval, toTime(b.TS),
				b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		q := fmt.Sprintf("INSERT INTO %s (provider, symbol, `interval`, ts, open, high, low, close, volume) VALUES %s",
			s.table, strings.Join(values, ","))
		if err := conn.Exec(ctx, q, args...); err != nil {
			s.logError("write_bars insert error", key, err)
			return fmt.Errorf("insert bars: %w", err)
		}
	}
	if s.l != nil {
		s.l.Info("clickhouse write_bars ok",
			applogger.String("series", key.String()),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Close is a no-op; the pool is owned by pkg/clickhouse.Client.
func (s *ClickHouseBarStore) Close() error { return nil }

func (s *ClickHouseBarStore) query(ctx context.Context, op string, key models.SeriesKey, q string, args ...any) ([]models.Bar, error) {
	conn, err := s.conn.Acquire(ctx)
	if err != nil {
		s.logError(op+" acquire error", key, err)
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, q, args...)
	if err != nil {
		s.logError(op+" query error", key, err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 64)
	for rows.Next() {
		var (
			ts  time.Time
			bar = models.Bar{Provider: key.Provider}
		)
		if err := rows.Scan(&ts, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			s.logError(op+" scan error", key, err)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bar.TS = ts.Unix()
		out = append(out, bar)
	}
	if err := rows.Err(); err != nil {
		s.logError(op+" rows error", key, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *ClickHouseBarStore) logError(msg string, key models.SeriesKey, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse "+msg,
		applogger.String("table", s.table),
		applogger.String("series", key.String()),
		applogger.Error(err),
	)
}

func toTime(ts int64) time.Time { return time.Unix(ts, 0).UTC() }
