package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	reportsapi "github.com/BearBump/ShipReport/internal/api/reports_api"
	"github.com/BearBump/ShipReport/internal/app"
	"github.com/BearBump/ShipReport/internal/broker/kafka"
	"github.com/BearBump/ShipReport/internal/cache/rediscache"
	"github.com/BearBump/ShipReport/internal/services/collector"
)

type reportAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     reportAPIOpts
	api      *reportsapi.ReportsAPI
	watcher  *collector.Watcher
	consumer *kafka.SnapshotConsumer
	closers  []func()
}

func mustBootstrapReportAPI() *reportAPIApp {
	cfg := app.MustLoadConfig()
	app.SetupLogger(cfg.ShipReport.LogLevel)

	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	grpcAddr := cfg.ShipReport.GRPCAddr
	if grpcAddr == "" {
		grpcAddr = ":50051"
	}
	httpAddr := cfg.ShipReport.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.ShipReport.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "report-api"
	}
	topic := cfg.SnapshotTopic()

	st := app.MustOpenSnapshots(cfg.PostgresConnString(), 60*time.Second)
	rl := rediscache.NewRateLimiter(cfg.RedisAddr())
	engine := app.NewEngine(cfg, rl, st)

	consumer := kafka.NewSnapshotConsumer(cfg.KafkaBrokers(), topic, consumerGroup)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &reportAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: reportAPIOpts{
			grpcAddr:      grpcAddr,
			httpAddr:      httpAddr,
			grpcDialAddr:  grpcAddr,
			swaggerPath:   swaggerPath,
			topic:         topic,
			consumerGroup: consumerGroup,
		},
		api:      reportsapi.New(engine, st),
		watcher:  collector.NewWatcher(),
		consumer: consumer,
		closers:  []func(){st.Close, func() { _ = rl.Close() }},
	}
}

func (a *reportAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	for _, c := range a.closers {
		c()
	}
}

func (a *reportAPIApp) Run() error {
	return runReportAPI(a.ctx, a.opts, a.api, a.consumer, a.watcher)
}
