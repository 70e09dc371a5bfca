package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/dig"

	"driver-portal/internal/config"
	"driver-portal/internal/dispatch"
	"driver-portal/internal/http/pprofserver"
	"driver-portal/internal/logx"
	"driver-portal/internal/store"
)

// MustRun starts the portal using the provided DI container
func MustRun(container *dig.Container) {
	if err := run(container); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			log.Println("shutdown requested, exiting")
			return
		case errors.Is(err, context.DeadlineExceeded):
			log.Println("startup aborted: startup timeout exceeded")
			return
		default:
			log.Fatalf("run error: %v", err)
		}
	}
}

type runIn struct {
	dig.In
	Ctx       context.Context
	Cfg       *config.Config
	Logger    logx.Logger
	StdLogger *log.Logger
	DB        *sql.DB
	Store     *store.Store
	Server    *http.Server
	Watcher   *dispatch.Watcher
	Refresher *StatsRefresher
}

func run(container *dig.Container) error {
	return container.Invoke(func(in runIn) error {
		in.Store.Load(in.Ctx)

		bgCtx, cancel := context.WithCancel(in.Ctx)
		defer cancel()

		startWatcher(bgCtx, in.Watcher, in.Logger)
		go in.Refresher.Run(bgCtx)
		startPprof(in.Cfg, in.StdLogger)

		startServer(in.Server, in.StdLogger)
		waitForShutdown(in.Ctx, in.StdLogger)
		gracefulShutdown(in.Server, in.StdLogger, 15*time.Second)
		closeResources(in.DB, in.Watcher, in.Server, in.StdLogger)
		return nil
	})
}

func startWatcher(ctx context.Context, w *dispatch.Watcher, logger logx.Logger) {
	if w == nil {
		return
	}
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("manifest watcher stopped", logx.Any("err", err))
		}
	}()
}

func startPprof(cfg *config.Config, logger *log.Logger) {
	if !cfg.Pprof.Enabled {
		return
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.Pprof.Port),
		Handler:           pprofserver.Handler(pprofserver.Config{User: cfg.Pprof.User, Pass: cfg.Pprof.Pass}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Printf("pprof listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("pprof listen error: %v", err)
		}
	}()
}

func startServer(server *http.Server, logger *log.Logger) {
	go func() {
		logger.Printf("driver-portal listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()
}

func waitForShutdown(ctx context.Context, logger *log.Logger) {
	<-ctx.Done()
	logger.Println("shutting down driver-portal...")
}

func gracefulShutdown(srv *http.Server, logger *log.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Printf("graceful shutdown error: %v", err)
	}
}

func closeResources(db *sql.DB, watcher *dispatch.Watcher, server *http.Server, logger *log.Logger) {
	if err := server.Close(); err != nil {
		logger.Printf("server close error: %v", err)
	}
	if watcher != nil {
		if err := watcher.Close(); err != nil {
			logger.Printf("watcher close error: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Printf("database close error: %v", err)
	}
}
