package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/ShipReport/config"
	"github.com/BearBump/ShipReport/internal/app"
	"github.com/BearBump/ShipReport/internal/broker/kafka"
	"github.com/BearBump/ShipReport/internal/cache/rediscache"
	"github.com/BearBump/ShipReport/internal/services/collector"
	"github.com/BearBump/ShipReport/internal/services/dispatch"
	"github.com/BearBump/ShipReport/internal/services/scheduler"
)

type closableProducer interface {
	collector.Producer
	Close() error
}

type closableRateLimiter interface {
	dispatch.RateLimiter
	Close() error
}

type workerFactories struct {
	newStorage     func(cfg *config.Config) (store collector.SnapshotWriter, closeFn func(), err error)
	newProducer    func(cfg *config.Config) closableProducer
	newRateLimiter func(cfg *config.Config) closableRateLimiter
	newEngine      func(cfg *config.Config, rl dispatch.RateLimiter) collector.ShippedQuerier
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (collector.SnapshotWriter, func(), error) {
			st := app.MustOpenSnapshots(cfg.PostgresConnString(), 60*time.Second)
			return st, st.Close, nil
		},
		newProducer: func(cfg *config.Config) closableProducer {
			return kafka.NewProducer(cfg.KafkaBrokers())
		},
		newRateLimiter: func(cfg *config.Config) closableRateLimiter {
			return rediscache.NewRateLimiter(cfg.RedisAddr())
		},
		newEngine: func(cfg *config.Config, rl dispatch.RateLimiter) collector.ShippedQuerier {
			// The collector always runs live, so it needs no snapshot reader.
			return app.NewEngine(cfg, rl, nil)
		},
	}
}

type reportWorker struct {
	collector *collector.Collector
	scheduler *scheduler.Scheduler
	closers   []func()
}

func buildReportWorker(cfg *config.Config, f workerFactories) (*reportWorker, error) {
	store, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return nil, err
	}
	loc := app.Location(cfg)

	rl := f.newRateLimiter(cfg)
	producer := f.newProducer(cfg)

	c := collector.New(f.newEngine(cfg, rl), store, producer, cfg.SnapshotTopic()).
		WithLocation(loc)

	hour, minute := cfg.ShipReport.CollectHour, cfg.ShipReport.CollectMinute
	s := scheduler.New(c.RunDaily, hour, minute, loc)

	slog.Info("report worker configured", "collect_at", fmt.Sprintf("%02d:%02d", hour, minute), "timezone", loc.String())
	return &reportWorker{
		collector: c,
		scheduler: s,
		closers: []func(){
			closeQuietly("kafka producer", producer.Close),
			closeQuietly("redis rate limiter", rl.Close),
			closeFn,
		},
	}, nil
}

func closeQuietly(name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			slog.Warn("close failed", "resource", name, "error", err.Error())
		}
	}
}

func (w *reportWorker) Close() {
	for _, fn := range w.closers {
		if fn != nil {
			fn()
		}
	}
}

func RunReportWorker(ctx context.Context, cfg *config.Config, f workerFactories) error {
	w, err := buildReportWorker(cfg, f)
	if err != nil {
		return err
	}
	defer w.Close()

	return w.scheduler.Run(ctx)
}
