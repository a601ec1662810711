package reports

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/ShipReport/internal/models"
	"github.com/pkg/errors"
)

type OrderFetcher interface {
	FetchOrdersInWindow(ctx context.Context, daysBack int) []models.Order
	FetchOrdersNearDate(ctx context.Context, date time.Time, windowDays int) []models.Order
}

type DispatchResolver interface {
	ResolveDispatchDates(ctx context.Context, numbers []string) map[string]time.Time
}

type SnapshotReader interface {
	LookupIDs(ctx context.Context, date time.Time) (models.SnapshotLookup, error)
}

type Engine struct {
	fetcher   OrderFetcher
	resolver  DispatchResolver
	snapshots SnapshotReader

	liveWindowDays    int
	archiveWindowDays int
}

func New(f OrderFetcher, r DispatchResolver, s SnapshotReader) *Engine {
	return &Engine{
		fetcher:           f,
		resolver:          r,
		snapshots:         s,
		liveWindowDays:    60,
		archiveWindowDays: 5,
	}
}

func (e *Engine) WithWindows(liveDays, archiveDays int) *Engine {
	if liveDays > 0 {
		e.liveWindowDays = liveDays
	}
	if archiveDays > 0 {
		e.archiveWindowDays = archiveDays
	}
	return e
}

type Mode string

const (
	ModeLive    Mode = "live"
	ModeArchive Mode = "archive"
)

type ReportRequest struct {
	Start  time.Time
	End    time.Time
	Filter models.StatusCategory
}

type Report struct {
	Start  time.Time
	End    time.Time
	Filter models.StatusCategory
	Mode   Mode
	Orders []models.ReportedOrder
}

// Report picks archive mode for a single-day shipped report whose snapshot
// lists at least one order, and live mode otherwise.
func (e *Engine) Report(ctx context.Context, req ReportRequest) (Report, error) {
	start := models.DateOf(req.Start)
	end := start
	if !req.End.IsZero() {
		end = models.DateOf(req.End)
	}
	if end.Before(start) {
		return Report{}, errors.New("end date is before start date")
	}
	rep := Report{Start: start, End: end, Filter: req.Filter, Mode: ModeLive}

	if start.Equal(end) && req.Filter.Kind == models.CategoryShipped && e.snapshots != nil {
		lookup, err := e.snapshots.LookupIDs(ctx, start)
		switch {
		case err != nil:
			slog.Warn("snapshot lookup failed, using live mode", "date", start.Format(models.DateLayout), "error", err.Error())
		case lookup.State == models.SnapshotCollected:
			rep.Mode = ModeArchive
			rep.Orders = e.QueryByKnownIDs(ctx, start, lookup.IDs)
			return rep, nil
		}
	}

	rep.Orders = e.Query(ctx, start, end, req.Filter)
	return rep, nil
}

// Query — живой режим: CRM + (для отправленных) даты от перевозчика.
func (e *Engine) Query(ctx context.Context, start, end time.Time, cat models.StatusCategory) []models.ReportedOrder {
	start, end = models.DateOf(start), models.DateOf(end)
	orders := e.fetcher.FetchOrdersInWindow(ctx, e.liveWindowDays)

	if cat.Kind == models.CategoryShipped {
		out := e.shipped(ctx, orders, start, end)
		sortByEventDate(out)
		return out
	}

	out := make([]models.ReportedOrder, 0)
	for _, o := range orders {
		if ro, ok := Classify(o, cat, start, end); ok {
			out = append(out, ro)
		}
	}
	sortByCreation(out)
	return out
}

func (e *Engine) shipped(ctx context.Context, orders []models.Order, start, end time.Time) []models.ReportedOrder {
	numbers := make([]string, 0, len(orders))
	for _, o := range orders {
		if n := o.TrackingNumber(); n != "" {
			numbers = append(numbers, n)
		}
	}
	out := make([]models.ReportedOrder, 0)
	if len(numbers) == 0 || e.resolver == nil {
		return out
	}

	dates := e.resolver.ResolveDispatchDates(ctx, numbers)
	for _, o := range orders {
		n := o.TrackingNumber()
		if n == "" {
			continue
		}
		d, ok := dates[n]
		if !ok || !models.InRange(d, start, end) {
			continue
		}
		out = append(out, models.ReportedOrder{Order: o, EventDate: d, EventKind: models.EventDispatchViaCarrier})
	}
	return out
}

// QueryByKnownIDs — архивный режим, перевозчика не спрашиваем.
func (e *Engine) QueryByKnownIDs(ctx context.Context, date time.Time, ids []string) []models.ReportedOrder {
	date = models.DateOf(date)
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	out := make([]models.ReportedOrder, 0, len(ids))
	for _, o := range e.fetcher.FetchOrdersNearDate(ctx, date, e.archiveWindowDays) {
		if _, ok := known[o.DisplayID()]; !ok {
			continue
		}
		out = append(out, models.ReportedOrder{Order: o, EventDate: date, EventKind: models.EventDispatchViaCarrier})
	}
	return out
}
