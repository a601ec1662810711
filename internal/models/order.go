package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order — заказ из CRM в том виде, как его отдаёт список заказов.
type Order struct {
	ID          OrderRef        `json:"id"`
	OrderNumber OrderRef        `json:"orderNumber"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt,omitempty"`
	CompletedAt string          `json:"completedAt,omitempty"`
	Status      OrderStatus     `json:"status"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Client      *Client         `json:"client,omitempty"`
	Products    []Product       `json:"products,omitempty"`
	Delivery    *Delivery       `json:"delivery,omitempty"`
	NPDelivery  *Delivery       `json:"npDelivery,omitempty"`
}

type OrderStatus struct {
	Title string `json:"title"`
}

type Client struct {
	FullName string `json:"fullname"`
}

type Product struct {
	Title string `json:"title"`
}

type Delivery struct {
	BillOfLading string `json:"billOfLading,omitempty"`
}

// totalPrice бывает "", null или мусором: считаем такие суммы нулём.
func (o *Order) UnmarshalJSON(b []byte) error {
	type plain Order
	var aux struct {
		plain
		TotalPrice json.RawMessage `json:"totalPrice"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*o = Order(aux.plain)
	o.TotalPrice = parsePrice(aux.TotalPrice)
	return nil
}

func parsePrice(raw json.RawMessage) decimal.Decimal {
	s := string(bytes.TrimSpace(raw))
	if len(s) > 0 && s[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	}
	if s == "" || s == "null" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// OrderRef is an identifier the CRM may send either as a JSON number or a string.
type OrderRef string

func (r *OrderRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = OrderRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = OrderRef(n.String())
	return nil
}

func (o Order) DisplayID() string {
	if o.OrderNumber != "" {
		return string(o.OrderNumber)
	}
	return string(o.ID)
}

func (o Order) TrackingNumber() string {
	if o.Delivery != nil && strings.TrimSpace(o.Delivery.BillOfLading) != "" {
		return strings.TrimSpace(o.Delivery.BillOfLading)
	}
	if o.NPDelivery != nil {
		return strings.TrimSpace(o.NPDelivery.BillOfLading)
	}
	return ""
}

func (o Order) CreatedTime() (time.Time, bool)   { return ParseTimestamp(o.CreatedAt) }
func (o Order) UpdatedTime() (time.Time, bool)   { return ParseTimestamp(o.UpdatedAt) }
func (o Order) CompletedTime() (time.Time, bool) { return ParseTimestamp(o.CompletedAt) }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp: пустое или нераспознанное значение -> false.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type EventKind string

const (
	EventDispatchViaCarrier EventKind = "actual dispatch via carrier"
	EventDealClosed         EventKind = "deal closed"
	EventStatusChange       EventKind = "status change"
)

// Order.Status остаётся живым статусом из CRM.
type ReportedOrder struct {
	Order     Order
	EventDate time.Time
	EventKind EventKind
}
