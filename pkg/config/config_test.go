package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "clickhouse", c.Sink.Type)
	assert.Equal(t, 1000, c.Sink.BatchSize)
	assert.Equal(t, 10*time.Second, c.Transport.Timeout)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "bars", c.ClickHouse.Table)
	assert.Equal(t, 15*time.Second, c.Cache.LatestTTL)
}

func TestParseProviderRates(t *testing.T) {
	c, err := Parse([]byte("providers:\n  polygon:\n    rate_per_second: 0.5\n    burst: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.Providers.Polygon.RatePerSecond)
	assert.Equal(t, 2, c.Providers.Polygon.Burst)
	assert.Zero(t, c.Providers.Binance.RatePerSecond)
	assert.Equal(t, 5.0, c.Transport.RatePerSecond)

	_, err = Parse([]byte("providers:\n  binance:\n    rate_per_second: -1\n"))
	assert.Error(t, err)
}

func TestParseRejectsUnknownSink(t *testing.T) {
	_, err := Parse([]byte("sink:\n  type: s3\n"))
	assert.Error(t, err)
}

func TestKafkaSinkNeedsBrokers(t *testing.T) {
	_, err := Parse([]byte("sink:\n  type: kafka\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka.brokers")

	c, err := Parse([]byte("sink:\n  type: kafka\nkafka:\n  brokers: [\"b1:9092\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, "bars.normalized", c.Kafka.Topic)
}

func TestParseRejectsBadProviderURL(t *testing.T) {
	_, err := Parse([]byte("providers:\n  polygon:\n    base_url: not a url\n"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)

	env := map[string]string{
		"POLYGON_API_KEY": "pk",
		"FINNHUB_API_KEY": "fk",
		"SINK":            "parquet",
		"KAFKA_BROKERS":   "a:1,b:2",
		"CLICKHOUSE_HOST": "ch.internal",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "pk", c.Providers.Polygon.APIKey)
	assert.Equal(t, "fk", c.Providers.Finnhub.APIKey)
	assert.Equal(t, "parquet", c.Sink.Type)
	assert.Equal(t, []string{"a:1", "b:2"}, c.Kafka.Brokers)
	assert.Equal(t, "ch.internal", c.ClickHouse.Host)
}

func TestLoadSampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.binance.com", c.Providers.Binance.BaseURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadWithEnvOverridesSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o600))
	t.Setenv("SINK", "parquet")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "parquet", c.Sink.Type)
}
