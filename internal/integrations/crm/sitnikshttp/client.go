package sitnikshttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/ShipReport/internal/integrations/crm"
	"github.com/BearBump/ShipReport/internal/models"
	"github.com/pkg/errors"
)

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type listResp struct {
	Data []json.RawMessage `json:"data"`
}

func (c *Client) ListOrders(ctx context.Context, req crm.PageRequest) (crm.Page, error) {
	u, err := url.Parse(c.baseURL + "/orders")
	if err != nil {
		return crm.Page{}, errors.Wrap(err, "parse base url")
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(req.Limit))
	q.Set("skip", strconv.Itoa(req.Skip))
	q.Set("dateFrom", req.DateFrom.Format(models.DateLayout))
	q.Set("dateTo", req.DateTo.Format(models.DateLayout))
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return crm.Page{}, errors.Wrap(err, "new request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return crm.Page{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return crm.Page{}, fmt.Errorf("crm http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var r listResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return crm.Page{}, errors.Wrap(err, "decode")
	}
	return decodePage(r.Data, req.Skip), nil
}

// decodePage keeps the rest of the page when a single order is malformed.
func decodePage(raw []json.RawMessage, skip int) crm.Page {
	page := crm.Page{Orders: make([]models.Order, 0, len(raw)), Size: len(raw)}
	for i, item := range raw {
		var o models.Order
		if err := json.Unmarshal(item, &o); err != nil {
			slog.Warn("skip malformed crm order", "position", skip+i, "error", err.Error())
			continue
		}
		page.Orders = append(page.Orders, o)
	}
	return page
}
