package di

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/handler/api"
	internalrepo "MarketPulse/internal/repository"
	icache "MarketPulse/internal/service/cache"
	"MarketPulse/internal/service/events"
	"MarketPulse/internal/service/scheduler"
	"MarketPulse/internal/usecase"
	pkgch "MarketPulse/pkg/clickhouse"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	pkgkafka "MarketPulse/pkg/kafka"
	applogger "MarketPulse/pkg/logger"
	pkgmetrics "MarketPulse/pkg/metrics"
	pkgpg "MarketPulse/pkg/postgres"
	"MarketPulse/pkg/server"
)

// candle table DDL shares one column set across all interval tables.
const candleTableColumns = `(
    ts DateTime64(3, 'UTC'),
    asset_id LowCardinality(String),
    open Float64,
    high Float64,
    low Float64,
    close Float64,
    volume Float64,
    trades UInt64,
    vwap Float64
) ENGINE = ReplacingMergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (asset_id, ts)`

var candleIntervals = []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d", "1w", "1mo"}

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if lc.Level == "" {
		lc.Level = "info"
	}
	if lc.Format == "" {
		lc.Format = "json"
	}
	if lc.Output == "" {
		lc.Output = "stdout"
	}
	return applogger.New(lc)
}

// ProvideRecorder creates the application Prometheus recorder.
func ProvideRecorder() *pkgmetrics.Recorder {
	return pkgmetrics.New()
}

// ProvideClickHouseClient creates the ClickHouse client and ensures the
// candle tables exist.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	stmts := []string{"CREATE DATABASE IF NOT EXISTS marketpulse"}
	for _, iv := range candleIntervals {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS marketpulse.candles_%s %s", iv, candleTableColumns))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvidePostgresClient creates the Postgres client and ensures the asset,
// indicator, and signal tables exist.
func ProvidePostgresClient(cfg *config.Config) (*pkgpg.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgpg.NewClient(ctx,
		pkgpg.WithHost(cfg.Postgres.Host),
		pkgpg.WithPort(cfg.Postgres.Port),
		pkgpg.WithDatabase(cfg.Postgres.Database),
		pkgpg.WithCredentials(cfg.Postgres.User, cfg.Postgres.Password),
		pkgpg.WithSSLMode(cfg.Postgres.SSLMode),
		pkgpg.WithMaxConns(cfg.Postgres.MaxConns),
		pkgpg.WithDialTimeout(cfg.Postgres.DialTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}

	if err := client.InitSchema(ctx, []string{
		`CREATE TABLE IF NOT EXISTS assets (
            id TEXT PRIMARY KEY,
            symbol TEXT NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            asset_type TEXT NOT NULL DEFAULT 'stock',
            is_active BOOLEAN NOT NULL DEFAULT TRUE
        )`,
		`CREATE TABLE IF NOT EXISTS indicators (
            id BIGSERIAL PRIMARY KEY,
            asset_id TEXT NOT NULL,
            ts TIMESTAMPTZ NOT NULL,
            name TEXT NOT NULL,
            value DOUBLE PRECISION NOT NULL,
            value2 DOUBLE PRECISION,
            value3 DOUBLE PRECISION,
            parameters JSONB,
            interval TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_indicators_asset_ts ON indicators (asset_id, ts DESC)`,
		`CREATE TABLE IF NOT EXISTS signals (
            id BIGSERIAL PRIMARY KEY,
            asset_id TEXT NOT NULL,
            ts TIMESTAMPTZ NOT NULL,
            signal_type TEXT NOT NULL,
            strength TEXT NOT NULL,
            confidence DOUBLE PRECISION NOT NULL,
            price DOUBLE PRECISION,
            strategy TEXT NOT NULL,
            rationale TEXT NOT NULL DEFAULT '',
            indicators_used JSONB,
            interval TEXT NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            generated_at TIMESTAMPTZ NOT NULL,
            expires_at TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS idx_signals_asset_active ON signals (asset_id) WHERE is_active`,
	}); err != nil {
		client.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return client, nil
}

// ProvideCandleStore creates the ClickHouse-backed candle store.
func ProvideCandleStore(ch *pkgch.Client, l *applogger.Logger) domrepo.CandleStore {
	store := internalrepo.NewCHCandleStore(ch)
	store.SetLogger(l)
	return store
}

// ProvideAssetStore creates the Postgres-backed asset store.
func ProvideAssetStore(pg *pkgpg.Client) domrepo.AssetStore {
	return internalrepo.NewPGAssetStore(pg)
}

// ProvideIndicatorStore creates the Postgres-backed indicator store.
func ProvideIndicatorStore(pg *pkgpg.Client, l *applogger.Logger) domrepo.IndicatorStore {
	store := internalrepo.NewPGIndicatorStore(pg)
	store.SetLogger(l)
	return store
}

// ProvideSignalStore creates the Postgres-backed signal store.
func ProvideSignalStore(pg *pkgpg.Client, l *applogger.Logger) domrepo.SignalStore {
	store := internalrepo.NewPGSignalStore(pg)
	store.SetLogger(l)
	return store
}

// ProvidePublisher creates the signal event publisher. Kafka is optional;
// when disabled signals are still persisted, just not fanned out.
func ProvidePublisher(cfg *config.Config, rec *pkgmetrics.Recorder) (events.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return events.NopPublisher{}, nil
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
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	pub.SetRecorder(rec)
	return pub, nil
}

// ProvideCache creates the dashboard response cache. Redis when configured,
// otherwise an in-process TTL cache.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideIndicatorBatch creates the indicator batch use case.
func ProvideIndicatorBatch(
	candles domrepo.CandleStore,
	assets domrepo.AssetStore,
	indicators domrepo.IndicatorStore,
	l *applogger.Logger,
) *usecase.IndicatorBatch {
	b := usecase.NewIndicatorBatch(candles, assets, indicators)
	b.SetLogger(l)
	return b
}

// ProvideSignalBatch creates the signal batch use case.
func ProvideSignalBatch(
	assets domrepo.AssetStore,
	indicators domrepo.IndicatorStore,
	signals domrepo.SignalStore,
	candles domrepo.CandleStore,
	publisher events.Publisher,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.SignalBatch {
	b := usecase.NewSignalBatch(assets, indicators, signals, candles)
	b.SetLogger(l)
	b.SetPublisher(publisher)
	if cfg.Batch.SignalTTL > 0 {
		b.SetSignalTTL(cfg.Batch.SignalTTL)
	}
	return b
}

// ProvideDashboard creates the dashboard use case.
func ProvideDashboard(candles domrepo.CandleStore, rec *pkgmetrics.Recorder, l *applogger.Logger) *usecase.Dashboard {
	d := usecase.NewDashboard(candles)
	d.SetLogger(l)
	d.SetRecorder(rec)
	return d
}

// ProvideScheduler creates the periodic batch scheduler.
func ProvideScheduler(
	indicators *usecase.IndicatorBatch,
	signals *usecase.SignalBatch,
	cfg *config.Config,
	l *applogger.Logger,
) *scheduler.Scheduler {
	s := scheduler.New(indicators, signals, scheduler.Config{
		IndicatorInterval: cfg.Batch.IndicatorInterval,
		SignalInterval:    cfg.Batch.SignalInterval,
		ExpiryInterval:    cfg.Batch.ExpiryInterval,
		LookbackDays:      cfg.Batch.LookbackDays,
	})
	s.SetLogger(l)
	return s
}

// ProvideHandler creates the HTTP handler with all routes.
func ProvideHandler(
	indicatorBatch *usecase.IndicatorBatch,
	signalBatch *usecase.SignalBatch,
	dashboard *usecase.Dashboard,
	indicators domrepo.IndicatorStore,
	signals domrepo.SignalStore,
	cache icache.BytesCache,
	ch *pkgch.Client,
	pg *pkgpg.Client,
	cfg *config.Config,
	l *applogger.Logger,
) xhttp.Handler {
	health := func(ctx context.Context) error {
		if err := ch.Health(ctx); err != nil {
			return fmt.Errorf("clickhouse: %w", err)
		}
		if err := pg.Health(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		return nil
	}
	h := api.NewHandler(indicatorBatch, signalBatch, dashboard, indicators, signals, cache, health, api.Config{
		Watchlist: models.Watchlist{
			Name:    cfg.Dashboard.Watchlist.Name,
			Symbols: cfg.Dashboard.Watchlist.Symbols,
		},
		CacheTTL: cfg.Dashboard.CacheTTL,
	})
	h.SetLogger(l)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	sched *scheduler.Scheduler,
	publisher events.Publisher,
	ch *pkgch.Client,
	pg *pkgpg.Client,
) *server.App {
	return server.New(cfg, l, handler, sched, publisher, ch, pg)
}
