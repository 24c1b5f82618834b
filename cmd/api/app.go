package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cimillas/agora-market/internal/app"
	"github.com/cimillas/agora-market/internal/clock"
	"github.com/cimillas/agora-market/internal/config"
	"github.com/cimillas/agora-market/internal/events"
	"github.com/cimillas/agora-market/internal/storage/memory"
	"github.com/cimillas/agora-market/internal/storage/postgres"
	transporthttp "github.com/cimillas/agora-market/internal/transport/http"
	"github.com/cimillas/agora-market/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func newApp() *fx.App {
	return fx.New(
		fx.WithLogger(func(logger *zap.SugaredLogger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: logger.Desugar()}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			config.Load,
			newLogger,
			clock.NewSystem,
			newRepositories,
			newPublisher,
			newRegistry,
			newFactoryService,
			newCatalogService,
			newResaleService,
			newHandler,
		),
		fx.Invoke(startServer),
	)
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named("agora").Sugar(), nil
}

// repositories bundles the storage backend selected by DATABASE_STORAGE.
type repositories struct {
	fx.Out

	Factory app.FactoryRepository
	Catalog app.CatalogRepository
	Resale  app.ResaleRepository
	Ping    func(ctx context.Context) error
}

func newRepositories(lc fx.Lifecycle, cfg *config.Config, logger *zap.SugaredLogger) (repositories, error) {
	if cfg.Database.Storage == config.StorageMemory {
		logger.Warnw("using in-memory storage; state is lost on restart")
		store := memory.NewStore()
		return repositories{Factory: store, Catalog: store, Resale: store}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return repositories{}, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return repositories{}, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return repositories{}, fmt.Errorf("db ping: %w", err)
	}
	if cfg.Database.Migrate {
		applied, err := migrations.Apply(ctx, pool)
		if err != nil {
			pool.Close()
			return repositories{}, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Infow("migrations applied", "applied", applied)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return repositories{
		Factory: postgres.NewFactoryRepository(pool),
		Catalog: postgres.NewCatalogRepository(pool),
		Resale:  postgres.NewResaleRepository(pool),
		Ping:    pool.Ping,
	}, nil
}

func newPublisher(lc fx.Lifecycle, cfg *config.Config, logger *zap.SugaredLogger) (events.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return events.Nop{}, nil
	}
	publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger.Named("events"))
	if err != nil {
		return nil, fmt.Errorf("init kafka publisher: %w", err)
	}
	logger.Infow("publishing market events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})
	return publisher, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newFactoryService(repo app.FactoryRepository, clk clock.Clock, cfg *config.Config, pub events.Publisher, logger *zap.SugaredLogger) *app.FactoryService {
	return app.NewFactoryService(repo, clk, cfg.Factory.Admin, app.WithPublisher(pub), app.WithLogger(logger.Named("factory")))
}

func newCatalogService(repo app.CatalogRepository, clk clock.Clock, pub events.Publisher, logger *zap.SugaredLogger) *app.CatalogService {
	return app.NewCatalogService(repo, clk, app.WithPublisher(pub), app.WithLogger(logger.Named("catalog")))
}

func newResaleService(repo app.ResaleRepository, clk clock.Clock, pub events.Publisher, logger *zap.SugaredLogger) *app.ResaleService {
	return app.NewResaleService(repo, clk, app.WithPublisher(pub), app.WithLogger(logger.Named("resale")))
}

type handlerParams struct {
	fx.In

	Config   *config.Config
	Logger   *zap.SugaredLogger
	Registry *prometheus.Registry
	Factory  *app.FactoryService
	Catalog  *app.CatalogService
	Resale   *app.ResaleService
	Ping     func(ctx context.Context) error
}

func newHandler(p handlerParams) http.Handler {
	return transporthttp.NewRouter(transporthttp.RouterConfig{
		Factory:        p.Factory,
		Catalog:        p.Catalog,
		Resale:         p.Resale,
		Logger:         p.Logger.Named("http"),
		Registry:       p.Registry,
		AllowedOrigins: p.Config.CORS.AllowedOrigins,
		Ping:           p.Ping,
	})
}

func startServer(lc fx.Lifecycle, sd fx.Shutdowner, cfg *config.Config, handler http.Handler, logger *zap.SugaredLogger) {
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", server.Addr, err)
			}
			logger.Infow("api listening", "addr", server.Addr)
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Errorw("server error", "error", err)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Infow("server stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
