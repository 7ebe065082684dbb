package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
	xutil "BarPull/pkg/util"
)

// ErrInvalidQuery marks caller mistakes in a bar query.
var ErrInvalidQuery = errors.New("invalid query")

const (
	defaultBarsLimit = 10000
	maxBarsLimit     = 50000
)

// BarsUseCase provides read access to stored bars.
type BarsUseCase struct {
	repo domrepo.BarRepository
}

func NewBarsUseCase(repo domrepo.BarRepository) *BarsUseCase {
	return &BarsUseCase{repo: repo}
}

type GetBarsParams struct {
	Provider string
	Symbol   string
	Interval domrepo.Interval
	From     time.Time
	To       time.Time
	Limit    int
}

type GetBarsResult struct {
	Provider string       `json:"provider"`
	Symbol   string       `json:"symbol"`
	Interval string       `json:"interval"`
	From     time.Time    `json:"from"`
	To       time.Time    `json:"to"`
	Count    int          `json:"count"`
	Bars     []models.Bar `json:"bars"`
}

func (uc *BarsUseCase) GetBars(ctx context.Context, p GetBarsParams) (*GetBarsResult, error) {
	key, err := seriesKey(p.Provider, p.Symbol, p.Interval)
	if err != nil {
		return nil, err
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("%w: from must be <= to", ErrInvalidQuery)
	}
	if p.Limit <= 0 {
		p.Limit = defaultBarsLimit
	}
	p.Limit = xutil.Clamp(p.Limit, 1, maxBarsLimit)

	bars, err := uc.repo.FetchRange(ctx, key, p.From.Unix(), p.To.Unix())
	if err != nil {
		return nil, fmt.Errorf("fetch range: %w", err)
	}
	if len(bars) > p.Limit {
		bars = bars[:p.Limit]
	}

	return &GetBarsResult{
		Provider: key.Provider,
		Symbol:   key.Symbol,
		Interval: key.Interval,
		From:     p.From,
		To:       p.To,
		Count:    len(bars),
		Bars:     bars,
	}, nil
}

// Latest returns models.ErrBarNotFound for an empty series.
func (uc *BarsUseCase) Latest(ctx context.Context, provider, symbol string, interval domrepo.Interval) (models.Bar, error) {
	key, err := seriesKey(provider, symbol, interval)
	if err != nil {
		return models.Bar{}, err
	}
	return uc.repo.Latest(ctx, key)
}

func seriesKey(provider, symbol string, interval domrepo.Interval) (models.SeriesKey, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if provider == "" {
		return models.SeriesKey{}, fmt.Errorf("%w: provider required", ErrInvalidQuery)
	}
	if symbol == "" {
		return models.SeriesKey{}, fmt.Errorf("%w: symbol required", ErrInvalidQuery)
	}
	if !domrepo.IsValidInterval(interval) {
		return models.SeriesKey{}, fmt.Errorf("%w: unsupported interval %q", ErrInvalidQuery, interval)
	}
	return models.SeriesKey{Provider: provider, Symbol: symbol, Interval: string(interval)}, nil
}
