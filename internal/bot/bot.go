package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/ShipReport/internal/cache"
	"github.com/BearBump/ShipReport/internal/models"
	"github.com/BearBump/ShipReport/internal/render"
	"github.com/BearBump/ShipReport/internal/services/reports"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Reporter interface {
	Report(ctx context.Context, req reports.ReportRequest) (reports.Report, error)
}

// Bot walks a chat through period and status selection and replies with the report.
type Bot struct {
	sender   Sender
	reporter Reporter
	sessions sessionStore

	loc *time.Location
	now func() time.Time
}

func New(sender Sender, reporter Reporter, c cache.BytesCache, sessionTTL time.Duration) *Bot {
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}
	return &Bot{
		sender:   sender,
		reporter: reporter,
		sessions: sessionStore{c: c, ttl: sessionTTL},
		loc:      time.UTC,
		now:      time.Now,
	}
}

func (b *Bot) WithLocation(loc *time.Location) *Bot {
	if loc != nil {
		b.loc = loc
	}
	return b
}

func (b *Bot) WithClock(now func() time.Time) *Bot {
	if now != nil {
		b.now = now
	}
	return b
}

// Run handles updates until ctx is done or the channel closes.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if upd.Message == nil {
				continue
			}
			if err := b.HandleMessage(ctx, upd.Message); err != nil {
				slog.Error("handle telegram message", "chat_id", upd.Message.Chat.ID, "error", err.Error())
			}
		}
	}
}

func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil {
		return nil
	}
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if msg.IsCommand() && msg.Command() == "start" {
		if err := b.sessions.clear(ctx, chatID); err != nil {
			return err
		}
		return b.reply(chatID, "👋 Оберіть період:", mainKeyboard())
	}
	if text == btnCancel {
		if err := b.sessions.clear(ctx, chatID); err != nil {
			return err
		}
		return b.reply(chatID, "🏠 Головне меню", mainKeyboard())
	}

	sess, err := b.sessions.load(ctx, chatID)
	if err != nil {
		return err
	}

	switch {
	case text == btnYesterday:
		y := models.DateOf(b.now().In(b.loc)).AddDate(0, 0, -1)
		return b.askStatus(ctx, chatID, y, y)
	case text == btnDate:
		return b.next(ctx, chatID, session{Step: stepAwaitDate}, "✍️ Введіть дату (ДД.ММ):", cancelKeyboard())
	case text == btnPeriod:
		return b.next(ctx, chatID, session{Step: stepAwaitPeriod}, "✍️ Введіть період (ДД.ММ-ДД.ММ):", cancelKeyboard())
	}

	switch sess.Step {
	case stepAwaitDate:
		d, err := b.parseDayMonth(text)
		if err != nil {
			return b.reply(chatID, "⚠️ Помилка. Потрібен формат 10.01", nil)
		}
		return b.askStatus(ctx, chatID, d, d)
	case stepAwaitPeriod:
		start, end, err := b.parsePeriod(text)
		if err != nil {
			return b.reply(chatID, "⚠️ Помилка. Потрібен формат 01.01-05.01", nil)
		}
		return b.askStatus(ctx, chatID, start, end)
	case stepAwaitStatus:
		return b.report(ctx, chatID, sess, text)
	default:
		return b.reply(chatID, "👋 Оберіть період:", mainKeyboard())
	}
}

func (b *Bot) askStatus(ctx context.Context, chatID int64, start, end time.Time) error {
	return b.next(ctx, chatID, session{Step: stepAwaitStatus, Start: start, End: end},
		"Який статус фільтрувати?", statusKeyboard())
}

func (b *Bot) next(ctx context.Context, chatID int64, sess session, text string, kb any) error {
	if err := b.sessions.save(ctx, chatID, sess); err != nil {
		return err
	}
	return b.reply(chatID, text, kb)
}

func (b *Bot) report(ctx context.Context, chatID int64, sess session, status string) error {
	if err := b.sessions.clear(ctx, chatID); err != nil {
		return err
	}
	filter := models.ParseStatusFilter(status)
	period := render.Period(sess.Start, sess.End)
	if err := b.reply(chatID, fmt.Sprintf("⏳ Шукаю замовлення '%s' за %s...", filter.Label(), period),
		tgbotapi.NewRemoveKeyboard(true)); err != nil {
		return err
	}

	rep, err := b.reporter.Report(ctx, reports.ReportRequest{Start: sess.Start, End: sess.End, Filter: filter})
	if err != nil {
		return b.reply(chatID, "⚠️ "+err.Error(), mainKeyboard())
	}
	slog.Info("report sent", "chat_id", chatID, "period", period, "filter", filter.Label(),
		"mode", rep.Mode, "orders", len(rep.Orders))

	parts := render.Split(render.OrderReport(rep.Orders, period, filter), render.MaxMessageLen)
	for i, part := range parts {
		m := tgbotapi.NewMessage(chatID, part)
		m.ParseMode = tgbotapi.ModeMarkdown
		if i == len(parts)-1 {
			m.ReplyMarkup = mainKeyboard()
		}
		if _, err := b.sender.Send(m); err != nil {
			return errors.Wrap(err, "send report part")
		}
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string, kb any) error {
	m := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		m.ReplyMarkup = kb
	}
	if _, err := b.sender.Send(m); err != nil {
		return errors.Wrap(err, "send message")
	}
	return nil
}

// parseDayMonth reads DD.MM in the current year.
func (b *Bot) parseDayMonth(s string) (time.Time, error) {
	year := b.now().In(b.loc).Year()
	t, err := time.Parse("02.01.2006", fmt.Sprintf("%s.%d", strings.TrimSpace(s), year))
	if err != nil {
		return time.Time{}, err
	}
	return models.DateOf(t), nil
}

func (b *Bot) parsePeriod(s string) (time.Time, time.Time, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return time.Time{}, time.Time{}, errors.New("period needs a dash")
	}
	start, err := b.parseDayMonth(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := b.parseDayMonth(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("period ends before it starts")
	}
	return start, end, nil
}
