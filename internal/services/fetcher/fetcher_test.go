package fetcher

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/BearBump/ShipReport/internal/integrations/crm"
	"github.com/BearBump/ShipReport/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeCRM struct {
	pages [][]models.Order
	errAt int // page index that fails; -1 for none
	reqs  []crm.PageRequest
}

func (f *fakeCRM) ListOrders(ctx context.Context, req crm.PageRequest) (crm.Page, error) {
	i := len(f.reqs)
	f.reqs = append(f.reqs, req)
	if i == f.errAt {
		return crm.Page{}, errors.New("crm http 500")
	}
	if i >= len(f.pages) {
		return crm.Page{}, nil
	}
	return crm.Page{Orders: f.pages[i], Size: len(f.pages[i])}, nil
}

func makePage(startID, n int) []models.Order {
	out := make([]models.Order, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Order{ID: models.OrderRef(strconv.Itoa(startID + i))})
	}
	return out
}

func fixedClock() time.Time {
	return time.Date(2026, time.January, 12, 15, 0, 0, 0, time.UTC)
}

func TestFetchOrdersInWindow_StopsOnPartialPage(t *testing.T) {
	c := &fakeCRM{
		pages: [][]models.Order{makePage(0, 50), makePage(50, 50), makePage(100, 50), makePage(150, 30)},
		errAt: -1,
	}
	f := New(c).WithClock(fixedClock)

	out := f.FetchOrdersInWindow(context.Background(), 60)
	require.Len(t, out, 180)
	require.Len(t, c.reqs, 4)
	require.Equal(t, 0, c.reqs[0].Skip)
	require.Equal(t, 150, c.reqs[3].Skip)
	require.Equal(t, models.Date(2025, time.November, 13), c.reqs[0].DateFrom)
	require.Equal(t, models.Date(2026, time.January, 12), c.reqs[0].DateTo)
}

func TestFetchOrdersInWindow_StopsOnEmptyPage(t *testing.T) {
	c := &fakeCRM{pages: [][]models.Order{makePage(0, 50), {}}, errAt: -1}
	f := New(c).WithClock(fixedClock)

	out := f.FetchOrdersInWindow(context.Background(), 60)
	require.Len(t, out, 50)
	require.Len(t, c.reqs, 2)
}

func TestFetchOrdersInWindow_ErrorReturnsPartial(t *testing.T) {
	c := &fakeCRM{pages: [][]models.Order{makePage(0, 50), makePage(50, 50), makePage(100, 50)}, errAt: 1}
	f := New(c).WithClock(fixedClock)

	out := f.FetchOrdersInWindow(context.Background(), 60)
	require.Len(t, out, 50)
	require.Len(t, c.reqs, 2)
}

func TestFetchOrdersNearDate_Window(t *testing.T) {
	c := &fakeCRM{pages: [][]models.Order{makePage(0, 3)}, errAt: -1}
	f := New(c).WithClock(fixedClock).WithPageSize(10)

	out := f.FetchOrdersNearDate(context.Background(), models.Date(2026, time.January, 10), 0)
	require.Len(t, out, 3)
	require.Len(t, c.reqs, 1)
	require.Equal(t, 10, c.reqs[0].Limit)
	require.Equal(t, models.Date(2026, time.January, 5), c.reqs[0].DateFrom)
	require.Equal(t, models.Date(2026, time.January, 15), c.reqs[0].DateTo)
}

type sizedCRM struct {
	pages []crm.Page
	reqs  int
}

func (c *sizedCRM) ListOrders(ctx context.Context, req crm.PageRequest) (crm.Page, error) {
	i := c.reqs
	c.reqs++
	if i >= len(c.pages) {
		return crm.Page{}, nil
	}
	return c.pages[i], nil
}

func TestFetchOrdersInWindow_SkippedOrderKeepsPaging(t *testing.T) {
	c := &sizedCRM{pages: []crm.Page{
		{Orders: makePage(0, 1), Size: 2},
		{Orders: makePage(2, 1), Size: 1},
	}}
	f := New(c).WithClock(fixedClock).WithPageSize(2)

	out := f.FetchOrdersInWindow(context.Background(), 60)
	require.Len(t, out, 2)
	require.Equal(t, 2, c.reqs)
}
