package di

import (
	"fmt"

	"ADRFeed/internal/domain/repository"
	"ADRFeed/internal/handler/api"
	internalrepo "ADRFeed/internal/repository"
	"ADRFeed/internal/service/cache"
	"ADRFeed/internal/service/yahoo"
	"ADRFeed/internal/usecase"
	pkgcache "ADRFeed/pkg/cache"
	"ADRFeed/pkg/config"
	xhttp "ADRFeed/pkg/http"
	"ADRFeed/pkg/http/middleware"
	pkgkafka "ADRFeed/pkg/kafka"
	xlogger "ADRFeed/pkg/logger"
	"ADRFeed/pkg/metrics"
	"ADRFeed/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*xlogger.Logger, error) {
	l, err := xlogger.New(&xlogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(xlogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry served on the metrics path.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegisterer(reg)
}

// ProvideHTTPClient creates the upstream HTTP client.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Upstream.Timeout),
		xhttp.WithUserAgent(cfg.Upstream.UserAgent),
	)
}

// ProvideQuoteSource creates the Yahoo chart fetcher.
func ProvideQuoteSource(
	cfg *config.Config,
	client *xhttp.Client,
	logger *xlogger.Logger,
	m repository.Metrics,
) repository.QuoteSource {
	return yahoo.New(cfg.Upstream.BaseURL, client, logger.With(xlogger.String("component", "yahoo")), m)
}

// ProvideSnapshotStore creates the in-memory snapshot store.
func ProvideSnapshotStore() *cache.SnapshotStore {
	return cache.NewSnapshotStore()
}

// ProvideStreamHub creates the WebSocket hub, nil when streaming is disabled.
func ProvideStreamHub(cfg *config.Config, store *cache.SnapshotStore, logger *xlogger.Logger) *api.StreamHub {
	if !cfg.Stream.Enabled {
		return nil
	}
	return api.NewStreamHub(
		store.Load,
		corsConfig(cfg).Allows,
		cfg.Stream.PingInterval,
		cfg.Stream.WriteTimeout,
		logger.With(xlogger.String("component", "stream")),
	)
}

// ProvideSinks builds the enabled side channels. A sink that cannot be
// constructed is logged and left out.
func ProvideSinks(
	cfg *config.Config,
	reg *prometheus.Registry,
	hub *api.StreamHub,
	logger *xlogger.Logger,
) []repository.Sink {
	var sinks []repository.Sink

	if cfg.Redis.Enabled {
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(cfg.Redis.Host),
			pkgcache.WithRedisPort(cfg.Redis.Port),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
			pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			logger.Warn("redis mirror disabled", xlogger.Error(err))
		} else {
			sinks = append(sinks, internalrepo.NewRedisSnapshotMirror(rc, cfg.Redis.Key, cfg.Redis.TTL))
			logger.Info("redis mirror enabled", xlogger.String("key", pkgcache.GenerateKey(cfg.Redis.Prefix, cfg.Redis.Key)))
		}
	}

	if cfg.Kafka.Enabled {
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
			pkgkafka.WithHashByKey(true),
			pkgkafka.WithRegisterer(reg),
		)
		if err != nil {
			logger.Warn("kafka publisher disabled", xlogger.Error(err))
		} else {
			sinks = append(sinks, internalrepo.NewKafkaQuotePublisher(producer, cfg.Kafka.Topic))
			logger.Info("kafka publisher enabled",
				xlogger.Strings("brokers", cfg.Kafka.Brokers),
				xlogger.String("topic", cfg.Kafka.Topic),
			)
		}
	}

	if hub != nil {
		sinks = append(sinks, hub)
	}
	return sinks
}

// ProvideTickerTable maps the configured tickers onto the refresh plan.
func ProvideTickerTable(cfg *config.Config) usecase.TickerTable {
	t := usecase.TickerTable{
		VIX:    cfg.Tickers.VIX,
		Gold:   cfg.Tickers.Gold,
		Iron:   cfg.Tickers.Iron,
		WinFut: cfg.Tickers.WinFut,
		ADRs:   append([]string(nil), cfg.Tickers.ADRs...),
	}
	for _, m := range cfg.Tickers.Macro {
		t.Macro = append(t.Macro, usecase.MacroTicker{Key: m.Key, Symbol: m.Symbol})
	}
	return t
}

// ProvideMarketRefresher creates the refresh use case.
func ProvideMarketRefresher(
	source repository.QuoteSource,
	store *cache.SnapshotStore,
	tickers usecase.TickerTable,
	sinks []repository.Sink,
	m repository.Metrics,
	logger *xlogger.Logger,
) *usecase.MarketRefresher {
	return usecase.NewMarketRefresher(source, store, tickers, sinks, m, logger.With(xlogger.String("component", "refresher")))
}

// ProvideHTTPServer creates the Echo server with the market routes.
func ProvideHTTPServer(
	cfg *config.Config,
	refresher *usecase.MarketRefresher,
	hub *api.StreamHub,
	reg *prometheus.Registry,
	logger *xlogger.Logger,
) *xhttp.Server {
	h := api.NewMarketEchoHandler(logger, refresher).WithStream(hub, cfg.Stream.Path)

	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(corsConfig(cfg)),
	}
	if !cfg.Metrics.Disabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path, cfg.Metrics.SlowThreshold))
	}
	return xhttp.NewServer(h, logger, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	refresher *usecase.MarketRefresher,
	httpServer *xhttp.Server,
	sinks []repository.Sink,
	logger *xlogger.Logger,
) *server.App {
	return server.New(cfg, refresher, httpServer, sinks, logger)
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: cfg.CORS.AllowMethods,
		AllowHeaders: cfg.CORS.AllowHeaders,
	}
}
