package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xhttp "BarPull/pkg/http"
)

type recordingCloser struct {
	name  string
	order *[]string
}

func (c recordingCloser) Close() error {
	*c.order = append(*c.order, c.name)
	return nil
}

func TestRunStopsOnCancelAndClosesInReverse(t *testing.T) {
	var order []string
	srv := xhttp.NewServer(nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))
	app := New(nil, srv, nil,
		Resource{Name: "clickhouse", Closer: recordingCloser{"clickhouse", &order}},
		Resource{Name: "sink", Closer: recordingCloser{"sink", &order}},
		Resource{Name: "none"},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, app.Run(ctx))
	assert.Equal(t, []string{"sink", "clickhouse"}, order)
}
