package polygon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarPull/internal/domain/models"
)

type recorder struct {
	url    string
	params map[string]string
	calls  int
	body   string
	err    error
}

func (r *recorder) transport(_ context.Context, url string, params, _ map[string]string, _ time.Duration) ([]byte, error) {
	r.calls++
	r.url, r.params = url, params
	if r.err != nil {
		return nil, r.err
	}
	return []byte(r.body), nil
}

func dayParams() models.FetchParams {
	from := time.Date(2024, 11, 26, 0, 0, 0, 0, time.UTC)
	return models.FetchParams{Symbol: "aapl", Interval: "1d", From: from, To: from.Add(24 * time.Hour)}
}

func TestFetchResults(t *testing.T) {
	r := &recorder{body: `{"results":[{"t":1732646400000,"o":10.0,"h":11.0,"l":9.5,"c":10.5,"v":1000}]}`}
	a := New(r.transport, WithAPIKey("k"))

	fr, err := a.Fetch(context.Background(), dayParams())
	require.NoError(t, err)

	assert.Equal(t, "polygon", fr.Provider)
	require.Len(t, fr.Data, 1)
	rec := fr.Data[0]
	assert.Equal(t, 10.0, rec["open"])
	assert.Equal(t, int64(1732646400), rec["ts"])
	assert.Equal(t, 1000.0, rec["volume"])
	assert.Len(t, rec, 6)

	assert.Equal(t, DefaultBaseURL+"/v2/aggs/ticker/AAPL/range/1/day/1732579200000/1732665600000", r.url)
	assert.Equal(t, "k", r.params["apiKey"])
	assert.Equal(t, "50000", r.params["limit"])
}

func TestFetchMissingResultsIsEmpty(t *testing.T) {
	r := &recorder{body: `{"status":"OK","resultsCount":0}`}
	fr, err := New(r.transport).Fetch(context.Background(), dayParams())
	require.NoError(t, err)
	assert.Equal(t, "polygon", fr.Provider)
	assert.Empty(t, fr.Data)
}

func TestFetchKeepsUnparseableFields(t *testing.T) {
	r := &recorder{body: `{"results":[{"t":"bad","o":1,"h":1,"l":1,"c":1,"v":1},{"t":1,"o":1}]}`}
	fr, err := New(r.transport).Fetch(context.Background(), dayParams())
	require.NoError(t, err)
	require.Len(t, fr.Data, 2)
	assert.Equal(t, "bad", fr.Data[0]["ts"])
	assert.NotContains(t, fr.Data[1], "close")
}

func TestFetchErrorStatus(t *testing.T) {
	r := &recorder{body: `{"status":"ERROR","error":"Unknown API Key"}`}
	_, err := New(r.transport).Fetch(context.Background(), dayParams())
	require.ErrorIs(t, err, models.ErrDataFetch)
	assert.Contains(t, err.Error(), "Unknown API Key")
}

func TestFetchParamValidation(t *testing.T) {
	noRange := dayParams()
	noRange.From = time.Time{}
	inverted := dayParams()
	inverted.From, inverted.To = inverted.To, inverted.From

	for name, p := range map[string]models.FetchParams{
		"missing from": noRange,
		"inverted":     inverted,
		"no symbol":    {Interval: "1d", From: time.Unix(1, 0), To: time.Unix(2, 0)},
		"weekly span":  {Symbol: "AAPL", Interval: "1w", From: time.Unix(1, 0), To: time.Unix(2, 0)},
	} {
		t.Run(name, func(t *testing.T) {
			r := &recorder{body: `{}`}
			_, err := New(r.transport).Fetch(context.Background(), p)
			assert.ErrorIs(t, err, models.ErrInvalidParams)
			assert.Zero(t, r.calls)
		})
	}
}

func TestFetchTransportError(t *testing.T) {
	r := &recorder{err: context.DeadlineExceeded}
	_, err := New(r.transport).Fetch(context.Background(), dayParams())
	assert.ErrorIs(t, err, models.ErrDataFetch)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
