package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarPull/internal/domain/models"
)

func TestConvertAllValidPreservesOrder(t *testing.T) {
	fr := models.FetchResult{Provider: "binance", Data: []models.NormalizedRecord{
		record(3, 1, 2, 0.5, 1.5, 10),
		record(1, 1, 2, 0.5, 1.5, 10),
		record(1, 9, 9, 9, 9, 9),
	}}
	res, err := NewBarConverter(nil).Convert(fr, true)
	require.NoError(t, err)
	assert.Zero(t, res.Dropped)
	require.Len(t, res.Bars, 3)
	assert.Equal(t, []int64{3, 1, 1}, []int64{res.Bars[0].TS, res.Bars[1].TS, res.Bars[2].TS})
	assert.Equal(t, "binance", res.Bars[0].Provider)
	assert.Equal(t, 9.0, res.Bars[2].Open)
}

func TestConvertDropsInvalidRows(t *testing.T) {
	bad := record(2, 1, 1, 1, 1, 1)
	bad["ts"] = "bad"
	missing := record(3, 1, 1, 1, 1, 1)
	delete(missing, "volume")
	extra := record(4, 1, 1, 1, 1, 1)
	extra["vwap"] = 1.0

	fr := models.FetchResult{Provider: "polygon", Data: []models.NormalizedRecord{
		record(1, 1, 1, 1, 1, 1), bad, missing, extra, record(5, 1, 1, 1, 1, 1),
	}}
	res, err := NewBarConverter(nil).Convert(fr, true)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Dropped)
	require.Len(t, res.Bars, 2)
	assert.Equal(t, int64(1), res.Bars[0].TS)
	assert.Equal(t, int64(5), res.Bars[1].TS)

	bars, err := NewBarConverter(nil).ToBars(fr, true)
	require.NoError(t, err)
	assert.Len(t, bars, len(fr.Data)-3)
}

func TestConvertDoesNotCheckPriceOrdering(t *testing.T) {
	fr := models.FetchResult{Provider: "binance", Data: []models.NormalizedRecord{record(1, 5, 1, 10, 3, 0)}}
	bars, err := NewBarConverter(nil).ToBars(fr, true)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, [4]float64{5, 1, 10, 3}, bars[0].OHLC())
}

func TestConvertWithoutValidationCoerces(t *testing.T) {
	fr := models.FetchResult{Provider: "internal", Data: []models.NormalizedRecord{
		{"ts": "1700000000", "open": "100.0", "high": 101, "low": int64(99), "close": float32(100.5), "volume": 1.0},
	}}
	bars, err := NewBarConverter(nil).ToBars(fr, false)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, models.Bar{Provider: "internal", TS: 1700000000, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1}, bars[0])
}

func TestConvertWithoutValidationFailsOnUncoercible(t *testing.T) {
	bad := record(2, 1, 1, 1, 1, 1)
	bad["close"] = "n/a"
	fr := models.FetchResult{Provider: "internal", Data: []models.NormalizedRecord{record(1, 1, 1, 1, 1, 1), bad}}

	_, err := NewBarConverter(nil).ToBars(fr, false)
	var serr *models.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 1, serr.Row)
	assert.ErrorIs(t, err, models.ErrSchema)
}

func TestConvertMalformedEnvelope(t *testing.T) {
	c := NewBarConverter(nil)

	_, err := c.ToBars(models.FetchResult{Data: []models.NormalizedRecord{}}, true)
	assert.ErrorIs(t, err, models.ErrSchema)

	_, err = c.ToBars(models.FetchResult{Provider: "binance"}, true)
	assert.ErrorIs(t, err, models.ErrSchema)

	bars, err := c.ToBars(models.FetchResult{Provider: "binance", Data: []models.NormalizedRecord{}}, true)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestConvertDropsTimestampOutsideInt64(t *testing.T) {
	huge := record(0, 1, 1, 1, 1, 1)
	huge["ts"] = 1e300
	fr := models.FetchResult{Provider: "binance", Data: []models.NormalizedRecord{record(1, 1, 1, 1, 1, 1), huge}}

	res, err := NewBarConverter(nil).Convert(fr, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dropped)
	require.Len(t, res.Bars, 1)
	assert.Equal(t, int64(1), res.Bars[0].TS)

	_, err = NewBarConverter(nil).Convert(fr, false)
	var serr *models.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 1, serr.Row)
}
