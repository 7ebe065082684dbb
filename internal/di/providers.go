package di

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"BarPull/internal/domain/repository"
	"BarPull/internal/handler/api"
	internalrepo "BarPull/internal/repository"
	"BarPull/internal/service/binance"
	"BarPull/internal/service/finnhub"
	"BarPull/internal/service/polygon"
	"BarPull/internal/service/ratelimit"
	"BarPull/internal/service/registry"
	"BarPull/internal/service/schema"
	"BarPull/internal/service/transport"
	"BarPull/internal/usecase"
	"BarPull/pkg/cache"
	pkgch "BarPull/pkg/clickhouse"
	"BarPull/pkg/config"
	xhttp "BarPull/pkg/http"
	pkgkafka "BarPull/pkg/kafka"
	applogger "BarPull/pkg/logger"
	"BarPull/pkg/metrics"
	"BarPull/pkg/server"
)

// ProvideLogger builds the process logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, err
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvidePrometheusRegistry creates the registry served on /metrics.
func ProvidePrometheusRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideSchema compiles the bar contract, from schema.path when set.
func ProvideSchema(cfg *config.Config) (*schema.Schema, error) {
	if cfg.Schema.Path == "" {
		return schema.Default(), nil
	}
	return schema.Load(cfg.Schema.Path)
}

// ProvideTransport creates the shared HTTP transport with per-host rate limiting.
func ProvideTransport(cfg *config.Config) repository.Transport {
	return transport.NewHTTP(
		transport.WithClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Transport.Timeout))),
		transport.WithLimiter(transportLimiter(cfg)),
	)
}

// transportLimiter keys buckets by provider host, the way the transport
// takes tokens.
func transportLimiter(cfg *config.Config) *ratelimit.Limiter {
	providers := []struct {
		p       config.Provider
		baseURL string
	}{
		{cfg.Providers.Binance, binance.DefaultBaseURL},
		{cfg.Providers.Polygon, polygon.DefaultBaseURL},
		{cfg.Providers.Finnhub, finnhub.DefaultBaseURL},
	}
	var opts []ratelimit.Option
	for _, pr := range providers {
		if pr.p.RatePerSecond <= 0 {
			continue
		}
		raw := pr.baseURL
		if pr.p.BaseURL != "" {
			raw = pr.p.BaseURL
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		opts = append(opts, ratelimit.WithKeyRate(u.Host, pr.p.RatePerSecond, pr.p.Burst))
	}
	return ratelimit.New(cfg.Transport.RatePerSecond, cfg.Transport.Burst, opts...)
}

// ProvideAdapterRegistry applies the providers section to the adapter registry.
func ProvideAdapterRegistry(cfg *config.Config, t repository.Transport) *registry.Registry {
	settings := func(p config.Provider) registry.Settings {
		return registry.Settings{BaseURL: p.BaseURL, APIKey: p.APIKey, Timeout: p.Timeout}
	}
	return registry.New(
		registry.WithDefaultTransport(t),
		registry.WithSettings("binance", settings(cfg.Providers.Binance)),
		registry.WithSettings("polygon", settings(cfg.Providers.Polygon)),
		registry.WithSettings("finnhub", settings(cfg.Providers.Finnhub)),
	)
}

func ProvideDataManager(reg *registry.Registry) *usecase.DataManager {
	return usecase.NewDataManager(usecase.WithRegistry(reg))
}

func ProvideConverter(s *schema.Schema) *usecase.BarConverter {
	return usecase.NewBarConverter(s)
}

// ProvideClickHouseClient creates a ClickHouse client and, when enabled,
// ensures the bars table exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	ch := cfg.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if !ch.InitSchema {
		return client, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, pkgch.BarsSchema(ch.Database, ch.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideBarStore creates the ClickHouse bar repository.
func ProvideBarStore(client *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.ClickHouseBarStore {
	store := internalrepo.NewClickHouseBarStore(
		internalrepo.NewSQLConnector(client.DB()),
		internalrepo.WithTable(cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table),
		internalrepo.WithChunkSize(cfg.Sink.BatchSize),
	)
	store.SetLogger(l)
	return store
}

// ProvideSink selects where ingested bars go.
func ProvideSink(cfg *config.Config, store *internalrepo.ClickHouseBarStore, reg *prometheus.Registry) (repository.BarSink, error) {
	switch cfg.Sink.Type {
	case "kafka":
		p := cfg.Kafka.Producer
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithMaxAttempts(p.MaxAttempts),
			pkgkafka.WithBatching(p.BatchSize, p.BatchBytes, p.Linger),
			pkgkafka.WithWriteTimeout(p.WriteTimeout),
			pkgkafka.WithAsync(p.Async),
			pkgkafka.WithProducerMetrics(reg),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return internalrepo.NewKafkaBarPublisher(producer, cfg.Kafka.Topic, cfg.Sink.BatchSize), nil
	case "parquet":
		return internalrepo.NewParquetBarSink(cfg.Parquet.Dir), nil
	default:
		return store, nil
	}
}

func ProvideIngestUseCase(
	cfg *config.Config,
	manager *usecase.DataManager,
	converter *usecase.BarConverter,
	sink repository.BarSink,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.IngestUseCase {
	uc := usecase.NewIngestUseCase(manager, converter, sink, cfg.Sink.Type, m)
	uc.SetLogger(l)
	return uc
}

func ProvideBarsUseCase(store *internalrepo.ClickHouseBarStore) *usecase.BarsUseCase {
	return usecase.NewBarsUseCase(store)
}

// ProvideReplayUseCase reads the parquet archive under parquet.dir back into ClickHouse.
func ProvideReplayUseCase(
	cfg *config.Config,
	store *internalrepo.ClickHouseBarStore,
	converter *usecase.BarConverter,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ReplayUseCase {
	uc := usecase.NewReplayUseCase(internalrepo.NewParquetBarSink(cfg.Parquet.Dir), converter, store, m)
	uc.SetLogger(l)
	return uc
}

// ProvideCache returns nil when cache.type is none.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	switch cfg.Cache.Type {
	case "redis":
		r := cfg.Cache.Redis
		c, err := cache.NewRedisCache(
			cache.WithRedisAddr(r.Addr),
			cache.WithRedisPassword(r.Password),
			cache.WithRedisDB(r.DB),
			cache.WithRedisPrefix(r.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	case "memory":
		return cache.NewMemoryCache(), nil
	default:
		return nil, nil
	}
}

func ProvideBarsHandler(
	cfg *config.Config,
	l *applogger.Logger,
	bars *usecase.BarsUseCase,
	ingest *usecase.IngestUseCase,
	manager *usecase.DataManager,
	replay *usecase.ReplayUseCase,
	c cache.Service,
) *api.BarsEchoHandler {
	return api.NewBarsEchoHandler(l, bars, ingest, manager,
		api.WithLatestCache(c, cfg.Cache.LatestTTL),
		api.WithReplay(replay),
	)
}

// ProvideHTTPServer creates the Echo server with every route registered.
func ProvideHTTPServer(cfg *config.Config, h *api.BarsEchoHandler, reg *prometheus.Registry, l *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path))
	}
	return xhttp.NewServer([]xhttp.Handler{h}, opts...)
}

// ProvideKafkaConsumer returns nil unless kafka.consumer.enabled. The consumer
// stores every envelope it reads in ClickHouse.
func ProvideKafkaConsumer(
	cfg *config.Config,
	store *internalrepo.ClickHouseBarStore,
	converter *usecase.BarConverter,
	m repository.Metrics,
	l *applogger.Logger,
) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetLogger(l)
	consumer.RegisterHandler(usecase.NewKafkaBarsHandler(cfg.Kafka.Topic, converter, store, m))
	return consumer, nil
}

// ProvideApp creates the application server.
func ProvideApp(
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	client *pkgch.Client,
	sink repository.BarSink,
	c cache.Service,
) *server.App {
	resources := []server.Resource{{Name: "clickhouse", Closer: client}, {Name: "sink", Closer: sink}}
	if c != nil {
		resources = append(resources, server.Resource{Name: "cache", Closer: c})
	}
	return server.New(l, srv, consumer, resources...)
}
