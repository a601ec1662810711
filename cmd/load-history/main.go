package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BearBump/ShipReport/internal/app"
	"github.com/BearBump/ShipReport/internal/broker/kafka"
	"github.com/BearBump/ShipReport/internal/cache/rediscache"
	"github.com/BearBump/ShipReport/internal/models"
	"github.com/BearBump/ShipReport/internal/services/collector"
)

type backfillArgs struct {
	from    time.Time
	to      time.Time
	pause   time.Duration
	publish bool
}

type backfillFlags struct {
	from    string
	to      string
	days    int
	pause   time.Duration
	publish bool
}

// resolve превращает флаги в диапазон дат относительно today.
func (f backfillFlags) resolve(today time.Time) (backfillArgs, error) {
	if f.days < 1 {
		return backfillArgs{}, errors.New("--days must be positive")
	}
	out := backfillArgs{pause: f.pause, publish: f.publish}
	today = models.DateOf(today)
	out.to = today.AddDate(0, 0, -1)
	if f.to != "" {
		d, err := models.ParseDate(f.to)
		if err != nil {
			return backfillArgs{}, fmt.Errorf("bad --to: %w", err)
		}
		out.to = d
	}
	out.from = out.to.AddDate(0, 0, -(f.days - 1))
	if f.from != "" {
		d, err := models.ParseDate(f.from)
		if err != nil {
			return backfillArgs{}, fmt.Errorf("bad --from: %w", err)
		}
		out.from = d
	}
	if out.to.Before(out.from) {
		return backfillArgs{}, errors.New("--to is before --from")
	}
	return out, nil
}

type backfillRunner func(ctx context.Context, args backfillArgs) error

func newRootCmd(now func() time.Time, run backfillRunner) *cobra.Command {
	var f backfillFlags
	cmd := &cobra.Command{
		Use:          "load-history",
		Short:        "Collect daily shipped snapshots for past days",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := f.resolve(now())
			if err != nil {
				return err
			}
			return run(cmd.Context(), args)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.Flags().StringVar(&f.from, "from", "", "first day, YYYY-MM-DD (default: --days before --to)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day, YYYY-MM-DD (default: yesterday)")
	cmd.Flags().IntVar(&f.days, "days", 30, "days back when --from is not set")
	cmd.Flags().DurationVar(&f.pause, "pause", 2*time.Second, "pause between days")
	cmd.Flags().BoolVar(&f.publish, "publish", false, "publish snapshot.collected events")
	return cmd
}

func main() {
	cfg := app.MustLoadConfig()
	app.SetupLogger(cfg.ShipReport.LogLevel)
	loc := app.Location(cfg)

	run := func(ctx context.Context, args backfillArgs) error {
		st := app.MustOpenSnapshots(cfg.PostgresConnString(), 30*time.Second)
		defer st.Close()
		rl := rediscache.NewRateLimiter(cfg.RedisAddr())
		defer func() { _ = rl.Close() }()

		var producer collector.Producer
		if args.publish {
			p := kafka.NewProducer(cfg.KafkaBrokers())
			defer func() { _ = p.Close() }()
			producer = p
		}

		c := collector.New(app.NewEngine(cfg, rl, nil), st, producer, cfg.SnapshotTopic())

		slog.Info("backfill started", "from", args.from.Format(models.DateLayout), "to", args.to.Format(models.DateLayout))
		n, err := c.Backfill(ctx, args.from, args.to, args.pause)
		if err != nil {
			slog.Error("backfill interrupted", "days_done", n, "error", err.Error())
			return err
		}
		slog.Info("backfill finished", "days_done", n)
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(func() time.Time { return time.Now().In(loc) }, run)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
