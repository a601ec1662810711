package reports

import (
	"context"
	"time"

	"github.com/BearBump/ShipReport/internal/models"
)

// Diagnosis explains how the report rules treat one order for a single day.
type Diagnosis struct {
	OrderID        string     `json:"orderId"`
	StatusTitle    string     `json:"statusTitle"`
	TrackingNumber string     `json:"trackingNumber,omitempty"`
	EventDate      *time.Time `json:"eventDate,omitempty"`
	DateSource     string     `json:"dateSource"`
	StatusMatch    bool       `json:"statusMatch"`
	DateMatch      bool       `json:"dateMatch"`
	Included       bool       `json:"included"`
}

// Diagnose lists every fetched order whose status or event date matches.
func (e *Engine) Diagnose(ctx context.Context, date time.Time, cat models.StatusCategory) []Diagnosis {
	date = models.DateOf(date)
	orders := e.fetcher.FetchOrdersInWindow(ctx, e.liveWindowDays)
	if cat.Kind == models.CategoryShipped {
		return e.diagnoseShipped(ctx, orders, date, cat)
	}

	out := make([]Diagnosis, 0)
	for _, o := range orders {
		d := Diagnosis{OrderID: o.DisplayID(), StatusTitle: o.Status.Title, TrackingNumber: o.TrackingNumber()}
		d.StatusMatch = cat.IsAll() || statusMatches(o, cat.Raw)

		var (
			ev time.Time
			ok bool
		)
		if cat.Kind == models.CategoryCompleted {
			ev, ok = completedDate(o)
		} else {
			ev, ok = statusChangeDate(o)
		}
		if ok {
			d.EventDate = &ev
		}
		d.DateSource = dateSource(o, cat, ok)
		d.DateMatch = ok && ev.Equal(date)

		if !d.StatusMatch && !d.DateMatch {
			continue
		}
		_, d.Included = Classify(o, cat, date, date)
		out = append(out, d)
	}
	return out
}

// Для отправленных дата только от перевозчика, как в Query.
func (e *Engine) diagnoseShipped(ctx context.Context, orders []models.Order, date time.Time, cat models.StatusCategory) []Diagnosis {
	numbers := make([]string, 0, len(orders))
	for _, o := range orders {
		if n := o.TrackingNumber(); n != "" {
			numbers = append(numbers, n)
		}
	}
	out := make([]Diagnosis, 0)
	if len(numbers) == 0 {
		return out
	}
	var dates map[string]time.Time
	if e.resolver != nil {
		dates = e.resolver.ResolveDispatchDates(ctx, numbers)
	}

	for _, o := range orders {
		n := o.TrackingNumber()
		if n == "" {
			continue
		}
		d := Diagnosis{
			OrderID:        o.DisplayID(),
			StatusTitle:    o.Status.Title,
			TrackingNumber: n,
			DateSource:     "none",
			StatusMatch:    statusMatches(o, cat.Raw),
		}
		if ev, ok := dates[n]; ok {
			d.EventDate = &ev
			d.DateSource = "carrier"
			d.DateMatch = models.DateOf(ev).Equal(date)
		}
		d.Included = d.DateMatch
		out = append(out, d)
	}
	return out
}

func dateSource(o models.Order, cat models.StatusCategory, ok bool) string {
	if !ok {
		return "none"
	}
	if cat.Kind == models.CategoryCompleted {
		if _, has := o.CompletedTime(); has {
			return "completedAt"
		}
		return "updatedAt"
	}
	if _, has := o.UpdatedTime(); has {
		return "updatedAt"
	}
	return "createdAt"
}
