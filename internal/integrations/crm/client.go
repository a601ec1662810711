package crm

import (
	"context"
	"time"

	"github.com/BearBump/ShipReport/internal/models"
)

// PageRequest selects one page of the order listing. Dates are sent as calendar dates.
type PageRequest struct {
	Limit    int
	Skip     int
	DateFrom time.Time
	DateTo   time.Time
}

// Page is one listing page. Size counts every entry the CRM sent,
// including entries that could not be decoded into Orders.
type Page struct {
	Orders []models.Order
	Size   int
}

type Client interface {
	ListOrders(ctx context.Context, req PageRequest) (Page, error)
}
