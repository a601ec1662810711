package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BearBump/ShipReport/config"
	"github.com/BearBump/ShipReport/internal/integrations/carrier"
	"github.com/BearBump/ShipReport/internal/integrations/carrier/fake"
	"github.com/BearBump/ShipReport/internal/integrations/carrier/novaposhta"
	"github.com/BearBump/ShipReport/internal/integrations/crm/sitnikshttp"
	"github.com/BearBump/ShipReport/internal/services/dispatch"
	"github.com/BearBump/ShipReport/internal/services/fetcher"
	"github.com/BearBump/ShipReport/internal/services/reports"
	"github.com/BearBump/ShipReport/internal/storage/pgsnapshots"
)

const DefaultTimezone = "Europe/Kyiv"

// MustLoadConfig reads the file named by the configPath env var.
func MustLoadConfig() *config.Config {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("config parse error, %v", err))
	}
	return cfg
}

func SetupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func Location(cfg *config.Config) *time.Location {
	tz := cfg.ShipReport.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("unknown timezone, using UTC", "timezone", tz, "error", err.Error())
		return time.UTC
	}
	return loc
}

func NewCarrierClient(cfg *config.Config) carrier.Client {
	if cfg.Carrier.Mode == "fake" {
		return fake.New()
	}
	return novaposhta.New(cfg.Carrier.URL)
}

func NewFetcher(cfg *config.Config) *fetcher.Fetcher {
	return fetcher.New(sitnikshttp.New(cfg.CRM.BaseURL, cfg.CRM.Token)).
		WithPageSize(cfg.CRM.PageSize)
}

func NewResolver(cfg *config.Config, rl dispatch.RateLimiter) *dispatch.Resolver {
	r := dispatch.New(NewCarrierClient(cfg), cfg.Carrier.APIKeys).
		WithBatchSize(cfg.Carrier.BatchSize)
	if rl != nil && cfg.Carrier.RateLimitPerKeyMinute > 0 {
		r = r.WithRateLimit(rl, cfg.Carrier.RateLimitPerKeyMinute)
	}
	return r
}

// NewEngine wires fetcher, resolver and snapshot reader. snapshots may be nil,
// in which case every report runs live.
func NewEngine(cfg *config.Config, rl dispatch.RateLimiter, snapshots reports.SnapshotReader) *reports.Engine {
	return reports.New(NewFetcher(cfg), NewResolver(cfg, rl), snapshots).
		WithWindows(cfg.ShipReport.LiveWindowDays, cfg.ShipReport.ArchiveWindowDays)
}

// Postgres может подняться позже сервиса, поэтому ретраим.
func MustOpenSnapshots(connString string, wait time.Duration) *pgsnapshots.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgsnapshots.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}
