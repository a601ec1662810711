package reports

import (
	"sort"
	"strings"
	"time"

	"github.com/BearBump/ShipReport/internal/models"
)

// Classify decides whether an order belongs to a report for [start, end] and
// which date the report attributes to it. Shipped orders are never accepted
// here: their date is only known from the carrier, see Engine.Query.
func Classify(o models.Order, cat models.StatusCategory, start, end time.Time) (models.ReportedOrder, bool) {
	var (
		date time.Time
		kind models.EventKind
		ok   bool
	)
	switch cat.Kind {
	case models.CategoryShipped:
		return models.ReportedOrder{}, false
	case models.CategoryCompleted:
		date, ok = completedDate(o)
		kind = models.EventDealClosed
	case models.CategoryOther:
		if !cat.IsAll() && !statusMatches(o, cat.Raw) {
			return models.ReportedOrder{}, false
		}
		date, ok = statusChangeDate(o)
		kind = models.EventStatusChange
	}
	if !ok || !models.InRange(date, start, end) {
		return models.ReportedOrder{}, false
	}
	return models.ReportedOrder{Order: o, EventDate: date, EventKind: kind}, true
}

func completedDate(o models.Order) (time.Time, bool) {
	if t, ok := o.CompletedTime(); ok {
		return models.DateOf(t), true
	}
	if models.TitleIndicatesCompleted(o.Status.Title) {
		if t, ok := o.UpdatedTime(); ok {
			return models.DateOf(t), true
		}
	}
	return time.Time{}, false
}

func statusChangeDate(o models.Order) (time.Time, bool) {
	if t, ok := o.UpdatedTime(); ok {
		return models.DateOf(t), true
	}
	if t, ok := o.CreatedTime(); ok {
		return models.DateOf(t), true
	}
	return time.Time{}, false
}

func statusMatches(o models.Order, filter string) bool {
	return strings.Contains(strings.ToLower(o.Status.Title), strings.ToLower(filter))
}

func sortByEventDate(out []models.ReportedOrder) {
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EventDate.Before(out[j].EventDate)
	})
}

func sortByCreation(out []models.ReportedOrder) {
	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := out[i].Order.CreatedTime()
		tj, _ := out[j].Order.CreatedTime()
		return ti.Before(tj)
	})
}
