package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
	"BarPull/internal/service/registry"
)

func TestFetchMarketDataThroughFactory(t *testing.T) {
	a := &staticAdapter{name: "binance", fr: models.FetchResult{Provider: "binance", Data: []models.NormalizedRecord{{}}}}
	var asked string
	m := NewDataManager(WithAdapterFactory(func(name string) (domrepo.Adapter, error) {
		asked = name
		return a, nil
	}))

	fr, err := m.FetchMarketData(context.Background(), "binance", models.FetchParams{Symbol: "BTCUSDT"})
	require.NoError(t, err)
	assert.Equal(t, "binance", asked)
	assert.Equal(t, 1, a.calls)
	assert.Len(t, fr.Data, 1)
}

func TestFetchMarketDataWithTransportOverride(t *testing.T) {
	calls := 0
	m := NewDataManager(WithTransport(klinesTransport(`[[1700000000000,"50000","50500","49500","50200","123.4"]]`, &calls)))

	fr, err := m.FetchMarketData(context.Background(), "binance", models.FetchParams{Symbol: "BTCUSDT", Interval: "1m"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, fr.Data, 1)
	assert.Equal(t, 123.4, fr.Data[0]["volume"])
}

func TestFetchMarketDataWithRegistry(t *testing.T) {
	calls := 0
	r := registry.New(registry.WithDefaultTransport(klinesTransport(`[]`, &calls)))
	m := NewDataManager(WithRegistry(r))

	fr, err := m.FetchMarketData(context.Background(), "BINANCE", models.FetchParams{Symbol: "BTCUSDT", Interval: "1d"})
	require.NoError(t, err)
	assert.Equal(t, "binance", fr.Provider)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"binance", "finnhub", "polygon"}, m.Providers())
}

func TestFetchMarketDataPropagatesErrors(t *testing.T) {
	_, err := NewDataManager().FetchMarketData(context.Background(), "nope", models.FetchParams{})
	assert.ErrorIs(t, err, models.ErrUnknownProvider)

	dfe := models.NewDataFetchError("binance", errors.New("timeout"))
	m := NewDataManager(WithAdapterFactory(func(string) (domrepo.Adapter, error) {
		return &staticAdapter{name: "binance", err: dfe}, nil
	}))
	_, err = m.FetchMarketData(context.Background(), "binance", models.FetchParams{})
	assert.Same(t, dfe, err)
}
