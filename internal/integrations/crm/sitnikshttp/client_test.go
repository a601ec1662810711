package sitnikshttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BearBump/ShipReport/internal/integrations/crm"
	"github.com/BearBump/ShipReport/internal/models"
	"github.com/BearBump/ShipReport/internal/services/fetcher"
	"github.com/stretchr/testify/require"
)

func TestClient_ListOrders_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orders", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "50", r.URL.Query().Get("limit"))
		require.Equal(t, "100", r.URL.Query().Get("skip"))
		require.Equal(t, "2026-01-01", r.URL.Query().Get("dateFrom"))
		require.Equal(t, "2026-01-10", r.URL.Query().Get("dateTo"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
  {"id": 1, "orderNumber": 2107, "createdAt": "2026-01-09T10:00:00Z", "status": {"title": "Нове"}, "totalPrice": 100},
  {"id": 2, "createdAt": "2026-01-09T11:00:00Z", "status": {"title": "Виконано"}, "totalPrice": "99.90"}
]}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", "tok")
	out, err := c.ListOrders(context.Background(), crm.PageRequest{
		Limit:    50,
		Skip:     100,
		DateFrom: models.Date(2026, time.January, 1),
		DateTo:   models.Date(2026, time.January, 10),
	})
	require.NoError(t, err)
	require.Equal(t, 2, out.Size)
	require.Len(t, out.Orders, 2)
	require.Equal(t, "2107", out.Orders[0].DisplayID())
	require.Equal(t, "2", out.Orders[1].DisplayID())
}

func TestClient_ListOrders_BadFieldKeepsPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [
  {"id": 1, "status": {"title": "Нове"}, "totalPrice": 100},
  {"id": 2, "status": {"title": "Нове"}, "totalPrice": ""},
  {"id": 3, "status": "broken", "totalPrice": 5}
]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	out, err := c.ListOrders(context.Background(), crm.PageRequest{Limit: 3})
	require.NoError(t, err)
	require.Equal(t, 3, out.Size)
	require.Len(t, out.Orders, 2)
	require.Equal(t, "1", out.Orders[0].DisplayID())
	require.Equal(t, "2", out.Orders[1].DisplayID())
	require.True(t, out.Orders[1].TotalPrice.IsZero())
}

func TestClient_FetchContinuesPastBadOrder(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Query().Get("skip") {
		case "0":
			_, _ = w.Write([]byte(`{"data": [{"id": 1, "totalPrice": 100}, {"id": 2, "totalPrice": ""}]}`))
		case "2":
			_, _ = w.Write([]byte(`{"data": [{"id": 3, "totalPrice": 7}]}`))
		default:
			_, _ = w.Write([]byte(`{"data": []}`))
		}
	}))
	defer srv.Close()

	f := fetcher.New(New(srv.URL, "tok")).WithPageSize(2)
	out := f.FetchOrdersInWindow(context.Background(), 60)
	require.Len(t, out, 3)
	require.Equal(t, 2, calls)
}

func TestClient_ListOrders_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad token"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bad")
	_, err := c.ListOrders(context.Background(), crm.PageRequest{Limit: 50})
	require.Error(t, err)
	require.Contains(t, err.Error(), "crm http 401")
}

func TestClient_ListOrders_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.ListOrders(context.Background(), crm.PageRequest{Limit: 50})
	require.Error(t, err)
}
