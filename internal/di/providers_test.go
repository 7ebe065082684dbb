package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarPull/pkg/config"
)

func TestTransportLimiterUsesProviderRates(t *testing.T) {
	cfg, err := config.Parse([]byte(`
transport:
  rate_per_second: 0.01
  burst: 1
providers:
  polygon:
    rate_per_second: 0.01
    burst: 2
  finnhub:
    base_url: http://finnhub.local:8080/api/v1
    rate_per_second: 0.01
    burst: 1
`))
	require.NoError(t, err)
	l := transportLimiter(cfg)

	// polygon falls back to its default base URL host
	assert.True(t, l.Allow("api.polygon.io"))
	assert.True(t, l.Allow("api.polygon.io"))
	assert.False(t, l.Allow("api.polygon.io"))

	assert.True(t, l.Allow("finnhub.local:8080"))
	assert.False(t, l.Allow("finnhub.local:8080"))

	// binance has no rate of its own
	assert.True(t, l.Allow("api.binance.com"))
	assert.False(t, l.Allow("api.binance.com"))
}
