package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/ShipReport/internal/integrations/crm"
	"github.com/BearBump/ShipReport/internal/models"
)

const (
	DefaultPageSize          = 50
	DefaultLiveWindowDays    = 60
	DefaultArchiveWindowDays = 5
)

type Fetcher struct {
	client   crm.Client
	pageSize int
	now      func() time.Time
}

func New(client crm.Client) *Fetcher {
	return &Fetcher{
		client:   client,
		pageSize: DefaultPageSize,
		now:      time.Now,
	}
}

func (f *Fetcher) WithPageSize(n int) *Fetcher {
	if n > 0 {
		f.pageSize = n
	}
	return f
}

func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	if now != nil {
		f.now = now
	}
	return f
}

// FetchOrdersInWindow returns orders from the last daysBack days up to today.
func (f *Fetcher) FetchOrdersInWindow(ctx context.Context, daysBack int) []models.Order {
	if daysBack <= 0 {
		daysBack = DefaultLiveWindowDays
	}
	to := models.DateOf(f.now())
	return f.fetchRange(ctx, to.AddDate(0, 0, -daysBack), to)
}

func (f *Fetcher) FetchOrdersNearDate(ctx context.Context, date time.Time, windowDays int) []models.Order {
	if windowDays <= 0 {
		windowDays = DefaultArchiveWindowDays
	}
	d := models.DateOf(date)
	return f.fetchRange(ctx, d.AddDate(0, 0, -windowDays), d.AddDate(0, 0, windowDays))
}

// Ошибка страницы обрывает цикл, возвращаем то, что успели собрать.
func (f *Fetcher) fetchRange(ctx context.Context, from, to time.Time) []models.Order {
	var orders []models.Order
	skip := 0
	for {
		page, err := f.client.ListOrders(ctx, crm.PageRequest{
			Limit:    f.pageSize,
			Skip:     skip,
			DateFrom: from,
			DateTo:   to,
		})
		if err != nil {
			slog.Error("crm list orders", "skip", skip, "fetched", len(orders), "error", err.Error())
			break
		}
		if page.Size == 0 {
			break
		}
		orders = append(orders, page.Orders...)
		if page.Size < f.pageSize {
			break
		}
		skip += f.pageSize
	}
	slog.Debug("crm orders fetched",
		"from", from.Format(models.DateLayout), "to", to.Format(models.DateLayout), "count", len(orders))
	return orders
}
