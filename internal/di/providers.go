package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"MandiPulse/internal/domain/repository"
	domsvc "MandiPulse/internal/domain/service"
	"MandiPulse/internal/handler/api"
	mid "MandiPulse/internal/middleware"
	internalrepo "MandiPulse/internal/repository"
	"MandiPulse/internal/service/alerts"
	"MandiPulse/internal/service/cache"
	"MandiPulse/internal/service/ratelimit"
	"MandiPulse/internal/services/analytics"
	"MandiPulse/internal/usecase"
	pkgch "MandiPulse/pkg/clickhouse"
	"MandiPulse/pkg/config"
	xhttp "MandiPulse/pkg/http"
	"MandiPulse/pkg/http/middleware"
	pkgkafka "MandiPulse/pkg/kafka"
	applogger "MandiPulse/pkg/logger"
	"MandiPulse/pkg/metrics"
	"MandiPulse/pkg/server"
)

const (
	serviceName   = "mandipulse"
	startupWindow = 30 * time.Second
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithClientID(serviceName),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the application logger. Error logs are aggregated
// and shipped to the logs topic when collection is enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logging.Collect && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			Service:        serviceName,
			TimeInterval:   cfg.Logging.CollectInterval,
			CountThreshold: cfg.Logging.CollectMax,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      producer,
		})
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideModelStore selects where predictor artifacts are read from.
func ProvideModelStore(cfg *config.Config) (repository.ModelStore, error) {
	if cfg.Models.Store == "s3" {
		ctx, cancel := context.WithTimeout(context.Background(), startupWindow)
		defer cancel()
		s, err := internalrepo.NewS3ModelStore(ctx, internalrepo.S3Config{
			Bucket:   cfg.Models.S3.Bucket,
			Prefix:   cfg.Models.S3.Prefix,
			Region:   cfg.Models.S3.Region,
			Endpoint: cfg.Models.S3.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 model store: %w", err)
		}
		return s, nil
	}
	return internalrepo.NewFileModelStore(cfg.Models.Dir), nil
}

// ProvideAnalyzer loads all five predictors. A missing artifact aborts
// startup.
func ProvideAnalyzer(store repository.ModelStore, l *applogger.Logger) (domsvc.MarketAnalyzer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupWindow)
	defer cancel()

	start := time.Now()
	set, err := analytics.LoadPredictorSet(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("load predictors: %w", err)
	}
	engine, err := analytics.NewEngine(set)
	if err != nil {
		return nil, err
	}
	l.Info("predictors loaded",
		applogger.Strings("artifacts", analytics.ArtifactFiles),
		applogger.Duration("took", time.Since(start)),
	)
	return engine, nil
}

// ProvideCache returns the in-process analysis cache, layered over Redis
// when Redis is enabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.BytesCache, func(), error) {
	local := cache.NewTTLCache(cfg.Analysis.CacheSize, time.Minute)
	if !cfg.Redis.Enabled {
		return local, func() { _ = local.Close() }, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	remote, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		_ = local.Close()
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache enabled", applogger.String("addr", cfg.Redis.Addr))

	cleanup := func() {
		_ = local.Close()
		_ = remote.Close()
	}
	return cache.NewLayered(local, remote, cfg.Analysis.CacheTTL), cleanup, nil
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when
// ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideAnalysisStore creates the verdict store and ensures its schema.
func ProvideAnalysisStore(client *pkgch.Client, l *applogger.Logger) (repository.AnalysisStore, error) {
	if client == nil {
		return nil, nil
	}
	store := internalrepo.NewCHAnalysisStore(client, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse ready", applogger.String("database", client.Database()))
	return store, nil
}

// ProvideVerdictPublisher publishes verdicts to Kafka when a producer exists.
func ProvideVerdictPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.VerdictPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaVerdictPublisher(producer, cfg.Kafka.VerdictsTopic)
}

// ProvideAlertHub creates the websocket alert hub, or nil when alerts are
// disabled.
func ProvideAlertHub(cfg *config.Config, l *applogger.Logger) (*alerts.Hub, func()) {
	if !cfg.Alerts.Enabled {
		return nil, func() {}
	}
	hub := alerts.NewHub(cfg.Alerts.PingInterval, cfg.Alerts.BufferSize, originChecker(cfg.Server.CORSOrigins), l)
	return hub, func() { _ = hub.Close() }
}

// ProvideRateLimiter creates the per-client limiter for the API group.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Analysis.RateLimit.RPS, cfg.Analysis.RateLimit.Burst, 10*time.Minute)
}

// ProvidePriceChecker assembles the price check use case.
func ProvidePriceChecker(
	cfg *config.Config,
	analyzer domsvc.MarketAnalyzer,
	store repository.AnalysisStore,
	pub repository.VerdictPublisher,
	hub *alerts.Hub,
	c cache.BytesCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.PriceChecker {
	var sink repository.AlertSink
	if hub != nil {
		sink = hub
	}
	return usecase.NewPriceChecker(analyzer, store, pub, sink, c, m, usecase.PriceCheckerConfig{
		Timeout:  cfg.Analysis.Timeout,
		CacheTTL: cfg.Analysis.CacheTTL,
	}, l)
}

// ProvidePersistQueue retries verdict writes that failed on the request
// path. Nil when there is nothing to write to.
func ProvidePersistQueue(
	cfg *config.Config,
	checker *usecase.PriceChecker,
	store repository.AnalysisStore,
	pub repository.VerdictPublisher,
	m repository.Metrics,
) *mid.PersistQueue {
	if store == nil && pub == nil {
		return nil
	}
	q := mid.NewPersistQueue(checker, m,
		mid.WithBufferSize(cfg.Analysis.RetryBuffer),
		mid.WithMaxBackoff(5*time.Second),
	)
	checker.SetRetryQueue(q)
	return q
}

// ProvideReportsHandler consumes the price reports topic.
func ProvideReportsHandler(cfg *config.Config, checker *usecase.PriceChecker, l *applogger.Logger) *usecase.ReportsHandler {
	return usecase.NewReportsHandler(cfg.Kafka.ReportsTopic, checker, l)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML, or nil
// when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook{}, pkgkafka.LoggingHook{Log: l}))
	return consumer, nil
}

// ProvidePricesHandler creates the HTTP API handler.
func ProvidePricesHandler(
	l *applogger.Logger,
	checker *usecase.PriceChecker,
	store repository.AnalysisStore,
	hub *alerts.Hub,
	limiter *ratelimit.Limiter,
) *api.PricesHandler {
	var stream api.AlertStream
	if hub != nil {
		stream = hub
	}
	return api.NewPricesHandler(l, checker, store, stream, limiter)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.PricesHandler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	reports *usecase.ReportsHandler,
	queue *mid.PersistQueue,
	l *applogger.Logger,
) *server.App {
	c := server.Components{HTTP: srv, Queue: queue}
	if consumer != nil {
		c.Consumer = consumer
		c.Reports = reports
	}
	return server.New(c, l)
}

// originChecker restricts alert subscriptions to the CORS allow list.
func originChecker(origins []string) func(*http.Request) bool {
	if middleware.OriginAllowed(origins, "*") {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || middleware.OriginAllowed(origins, origin)
	}
}
