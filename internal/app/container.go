package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"driver-portal/internal/config"
	"driver-portal/internal/dispatch"
	"driver-portal/internal/http/handlers"
	"driver-portal/internal/http/router"
	"driver-portal/internal/logx"
	"driver-portal/internal/repository"
	"driver-portal/internal/store"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbOpen    func(context.Context, string, int, time.Duration) (*sql.DB, error)
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbOpen:    openDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// WithDBOpen sets the database open function
func (b *ContainerBuilder) WithDBOpen(
	fn func(context.Context, string, int, time.Duration) (*sql.DB, error),
) *ContainerBuilder {
	if fn != nil {
		b.dbOpen = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

// build builds and returns a new dig container
func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerStorage(container, b.dbOpen); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := registerStore(container); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if err := registerDispatch(container); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	if err := provideAll(container,
		func() context.Context { return ctx },
		func() *log.Logger { return log.Default() },
		NewLogger,
		config.Load,
	); err != nil {
		return err
	}
	return container.Provide(provideMetrics)
}

func registerStorage(
	container *dig.Container,
	dbOpen func(context.Context, string, int, time.Duration) (*sql.DB, error),
) error {
	providerDB := func(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
		return dbOpen(ctx, cfg.DBPath, 5, 500*time.Millisecond)
	}
	return provideAll(container,
		providerDB,
		repository.NewKVRepo,
		repository.NewLedgerRepo,
	)
}

type storeIn struct {
	dig.In
	KV          *repository.KVRepo
	Ledger      *repository.LedgerRepo
	Logger      logx.Logger
	Failures    prometheus.Counter `name:"persistence_failures_total"`
	Completions prometheus.Counter `name:"completions_recorded_total"`
}

func registerStore(container *dig.Container) error {
	return provideAll(container,
		func(in storeIn) *store.Store {
			return store.New(in.KV, in.Ledger, in.Logger).
				WithCounters(in.Failures, in.Completions)
		},
		NewStatsRefresherFromConfig,
	)
}

// NewStatsRefresherFromConfig wires the refresher interval from config.
func NewStatsRefresherFromConfig(cfg *config.Config, s *store.Store, logger logx.Logger) *StatsRefresher {
	return NewStatsRefresher(cfg.Stats.RefreshInterval, s, logger)
}

type dispatchIn struct {
	dig.In
	Cfg     *config.Config
	Store   *store.Store
	Logger  logx.Logger
	Imports prometheus.Counter `name:"manifest_imports_total"`
}

func registerDispatch(container *dig.Container) error {
	return container.Provide(func(in dispatchIn) (*dispatch.Watcher, error) {
		if in.Cfg.Dispatch.ManifestDir == "" {
			return nil, nil
		}
		return dispatch.NewWatcher(
			in.Cfg.Dispatch.ManifestDir,
			in.Cfg.Dispatch.Debounce,
			in.Store,
			in.Logger,
			in.Imports,
		)
	})
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	if err := provideAll(container,
		handlers.New,
		handlers.NewSessionUsecase,
		handlers.NewSessionHandler,
		handlers.NewDeliveryUsecase,
		handlers.NewDeliveryHandler,
		handlers.NewScheduleUsecase,
		handlers.NewBlockHandler,
		handlers.NewIssueUsecase,
		handlers.NewIssueHandler,
		handlers.NewStatisticsUsecase,
		handlers.NewStatisticsHandler,
		router.New,
		serverProvider,
	); err != nil {
		return err
	}
	return provideAll(container,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
	)
}
