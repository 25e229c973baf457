package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/GLExpress/config"
	"github.com/BearBump/GLExpress/internal/cache"
	"github.com/BearBump/GLExpress/internal/cache/rediscache"
	"github.com/BearBump/GLExpress/internal/services/progression"
	"github.com/BearBump/GLExpress/internal/storage"
)

type workerFactories struct {
	newStorage func(ctx context.Context, cfg *config.Config) (st progression.Store, closeFn func(), err error)
	newCache   func(cfg *config.Config) (c cache.BytesCache, closeFn func())
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(ctx context.Context, cfg *config.Config) (progression.Store, func(), error) {
			st, err := storage.Open(ctx, cfg.Database, 60*time.Second, slog.Default())
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newCache: func(cfg *config.Config) (cache.BytesCache, func()) {
			// без Redis кэш просто не сбрасываем: API тогда тоже работает без кэша
			if cfg.Redis.Host == "" {
				return nil, nil
			}
			rc := rediscache.New(cfg.Redis.Addr())
			return rc, func() { _ = rc.Close() }
		},
	}
}

// RunWorker запускает прогоны движка по расписанию и ops HTTP сервер воркера.
func RunWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts workerHTTPOpts) error {
	st, closeFn, err := f.newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	c, closeCache := f.newCache(cfg)
	if closeCache != nil {
		defer closeCache()
	}

	engine := progression.NewEngine(st, c, progression.Options{
		Concurrency:           cfg.GLExpress.ProgressionConcurrency,
		AllowMultiStepCatchup: cfg.GLExpress.AllowMultiStepCatchup,
	}, slog.Default())
	runner := progression.NewRunner(engine, cfg.GLExpress.ProgressionSchedule, slog.Default())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpOpts.runner = runner
	httpOpts.cfg = cfg
	if p, ok := st.(interface{ Ping(ctx context.Context) error }); ok && httpOpts.ready == nil {
		httpOpts.ready = p.Ping
	}
	if httpOpts.httpAddr == "" {
		httpOpts.httpAddr = cfg.GLExpress.WorkerHTTPAddr
	}
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runWorkerHTTPServer(ctx, httpOpts)
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- runner.Run(ctx)
	}()

	select {
	case err := <-runErr:
		return err
	case err := <-httpErr:
		if ctx.Err() != nil {
			return <-runErr
		}
		cancel()
		<-runErr
		return err
	}
}
