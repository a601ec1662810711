package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/ShipReport/internal/app"
)

func main() {
	cfg := app.MustLoadConfig()
	app.SetupLogger(cfg.ShipReport.LogLevel)

	w, err := buildReportWorker(cfg, defaultWorkerFactories())
	if err != nil {
		panic(err)
	}
	defer w.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		err := runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr:    cfg.ShipReport.WorkerHTTPAddr,
			swaggerPath: os.Getenv("workerSwaggerPath"),
			scheduler:   w.scheduler,
			cfg:         cfg,
		})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker http server", "error", err.Error())
		}
	}()

	if err := w.scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}
