package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarPull/internal/domain/models"
)

type fakeArchive struct {
	bars []models.Bar
	err  error
	key  models.SeriesKey
}

func (a *fakeArchive) ReadSeries(_ context.Context, key models.SeriesKey) ([]models.Bar, error) {
	a.key = key
	return a.bars, a.err
}

func TestReplayStoresArchivedSeries(t *testing.T) {
	archive := &fakeArchive{bars: []models.Bar{
		{Provider: "polygon", TS: 1700000000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Provider: "polygon", TS: 1700086400, Open: math.NaN(), High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Provider: "polygon", TS: 1700172800, Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 5},
	}}
	store := newMemorySink()
	m := &countingMetrics{}

	report, err := NewReplayUseCase(archive, NewBarConverter(nil), store, m).
		Replay(context.Background(), " Polygon", "aapl", "1d")
	require.NoError(t, err)

	key := models.SeriesKey{Provider: "polygon", Symbol: "AAPL", Interval: "1d"}
	assert.Equal(t, key, archive.key)
	assert.Equal(t, &ReplayReport{Provider: "polygon", Symbol: "AAPL", Interval: "1d", Read: 3, Stored: 2, Dropped: 1}, report)
	require.Len(t, store.writes[key], 2)
	assert.Equal(t, int64(1700172800), store.writes[key][1].TS)
	assert.Equal(t, 2, m.stored)
	assert.Equal(t, 1, m.dropped)
}

func TestReplayEmptyArchive(t *testing.T) {
	store := newMemorySink()
	report, err := NewReplayUseCase(&fakeArchive{}, NewBarConverter(nil), store, nil).
		Replay(context.Background(), "binance", "BTCUSDT", "1h")
	require.NoError(t, err)
	assert.Zero(t, report.Read)
	assert.Empty(t, store.writes)
}

func TestReplayErrors(t *testing.T) {
	uc := NewReplayUseCase(&fakeArchive{err: errors.New("permission denied")}, NewBarConverter(nil), newMemorySink(), nil)

	_, err := uc.Replay(context.Background(), "binance", "BTCUSDT", "2h")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = uc.Replay(context.Background(), "binance", "BTCUSDT", "1h")
	assert.ErrorContains(t, err, "permission denied")

	store := newMemorySink()
	store.err = errors.New("too many parts")
	_, err = NewReplayUseCase(&fakeArchive{bars: []models.Bar{{TS: 1}}}, NewBarConverter(nil), store, nil).
		Replay(context.Background(), "binance", "BTCUSDT", "1h")
	assert.ErrorIs(t, err, store.err)
}
