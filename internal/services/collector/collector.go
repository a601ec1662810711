package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/ShipReport/internal/broker/messages"
	"github.com/BearBump/ShipReport/internal/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type ShippedQuerier interface {
	Query(ctx context.Context, start, end time.Time, cat models.StatusCategory) []models.ReportedOrder
}

type SnapshotWriter interface {
	UpsertSnapshot(ctx context.Context, snap models.DailySnapshot) error
}

type Producer interface {
	PublishSnapshot(ctx context.Context, topic string, ev messages.SnapshotCollected) error
}

// Collector records which orders the carrier confirmed as dispatched on a day.
type Collector struct {
	engine   ShippedQuerier
	store    SnapshotWriter
	producer Producer
	topic    string

	loc *time.Location
	now func() time.Time
}

func New(engine ShippedQuerier, store SnapshotWriter, producer Producer, topic string) *Collector {
	return &Collector{
		engine:   engine,
		store:    store,
		producer: producer,
		topic:    topic,
		loc:      time.UTC,
		now:      time.Now,
	}
}

func (c *Collector) WithLocation(loc *time.Location) *Collector {
	if loc != nil {
		c.loc = loc
	}
	return c
}

func (c *Collector) WithClock(now func() time.Time) *Collector {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *Collector) RunDaily(ctx context.Context) error {
	_, err := c.CollectDay(ctx, c.now().In(c.loc))
	return err
}

// CollectDay runs a live shipped query for date and stores the result,
// overwriting any earlier snapshot of that date.
func (c *Collector) CollectDay(ctx context.Context, date time.Time) (models.DailySnapshot, error) {
	return c.collect(ctx, date, false)
}

func (c *Collector) collect(ctx context.Context, date time.Time, backfill bool) (models.DailySnapshot, error) {
	date = models.DateOf(date)
	orders := c.engine.Query(ctx, date, date, models.Shipped())

	snap := models.DailySnapshot{
		Date:      date,
		Total:     decimal.Zero,
		OrderIDs:  make([]string, 0, len(orders)),
		UpdatedAt: c.now().UTC(),
	}
	for _, ro := range orders {
		snap.Total = snap.Total.Add(ro.Order.TotalPrice)
		snap.OrderIDs = append(snap.OrderIDs, ro.Order.DisplayID())
	}
	snap.Count = len(snap.OrderIDs)

	if err := c.store.UpsertSnapshot(ctx, snap); err != nil {
		return snap, errors.Wrapf(err, "store snapshot %s", date.Format(models.DateLayout))
	}
	slog.Info("snapshot collected",
		"date", date.Format(models.DateLayout),
		"count", snap.Count,
		"total", snap.Total.StringFixed(2),
		"backfill", backfill,
	)

	c.publish(ctx, snap, backfill)
	return snap, nil
}

func (c *Collector) publish(ctx context.Context, snap models.DailySnapshot, backfill bool) {
	if c.producer == nil || c.topic == "" {
		return
	}
	ev := messages.SnapshotCollected{
		Date:        snap.Date.Format(models.DateLayout),
		Count:       snap.Count,
		Total:       snap.Total.StringFixed(2),
		OrderIDs:    snap.OrderIDs,
		CollectedAt: snap.UpdatedAt,
		Backfill:    backfill,
	}
	if err := c.producer.PublishSnapshot(ctx, c.topic, ev); err != nil {
		slog.Warn("publish snapshot event", "date", snap.Date.Format(models.DateLayout), "error", err.Error())
	}
}

// Backfill: упавший день логируем и идём дальше.
func (c *Collector) Backfill(ctx context.Context, from, to time.Time, pause time.Duration) (int, error) {
	from, to = models.DateOf(from), models.DateOf(to)
	if to.Before(from) {
		return 0, errors.New("backfill range ends before it starts")
	}

	done := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if _, err := c.collect(ctx, d, true); err != nil {
			slog.Error("backfill day", "date", d.Format(models.DateLayout), "error", err.Error())
		} else {
			done++
		}
		if pause > 0 && d.Before(to) {
			select {
			case <-ctx.Done():
				return done, ctx.Err()
			case <-time.After(pause):
			}
		}
	}
	return done, nil
}
