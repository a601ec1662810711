package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/ShipReport/config"
	"github.com/BearBump/ShipReport/internal/app"
	"github.com/BearBump/ShipReport/internal/bot"
	"github.com/BearBump/ShipReport/internal/cache/rediscache"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg := app.MustLoadConfig()
	app.SetupLogger(cfg.ShipReport.LogLevel)

	if cfg.Telegram.Token == "" {
		panic("BOT_TOKEN is required")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		panic(err)
	}
	slog.Info("authorized on telegram", "account", api.Self.UserName)

	st := app.MustOpenSnapshots(cfg.PostgresConnString(), 60*time.Second)
	defer st.Close()
	rl := rediscache.NewRateLimiter(cfg.RedisAddr())
	defer func() { _ = rl.Close() }()
	sessions := rediscache.New(cfg.RedisAddr())
	defer func() { _ = sessions.Close() }()

	b := bot.New(api, app.NewEngine(cfg, rl, st), sessions, sessionTTL(cfg)).
		WithLocation(app.Location(cfg))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	if err := b.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}

func sessionTTL(cfg *config.Config) time.Duration {
	if cfg.Telegram.SessionTTLSeconds <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(cfg.Telegram.SessionTTLSeconds) * time.Second
}
