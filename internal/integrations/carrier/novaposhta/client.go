package novaposhta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BearBump/ShipReport/internal/models"
	"github.com/pkg/errors"
)

const DefaultURL = "https://api.novaposhta.ua/v2.0/json/"

type Client struct {
	url   string
	httpc *http.Client
}

func New(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url: url,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type document struct {
	DocumentNumber string `json:"DocumentNumber"`
	Phone          string `json:"Phone"`
}

type request struct {
	APIKey           string `json:"apiKey"`
	ModelName        string `json:"modelName"`
	CalledMethod     string `json:"calledMethod"`
	MethodProperties struct {
		Documents []document `json:"Documents"`
	} `json:"methodProperties"`
}

// StatusCode arrives as a string in practice but numbers have been seen too.
type respItem struct {
	Number      string          `json:"Number"`
	StatusCode  json.RawMessage `json:"StatusCode"`
	DateScan    string          `json:"DateScan"`
	DateCreated string          `json:"DateCreated"`
}

type response struct {
	Success bool       `json:"success"`
	Data    []respItem `json:"data"`
	Errors  []string   `json:"errors"`
}

func (c *Client) GetStatusDocuments(ctx context.Context, apiKey string, numbers []string) ([]models.TrackingRecord, error) {
	var body request
	body.APIKey = apiKey
	body.ModelName = "TrackingDocument"
	body.CalledMethod = "getStatusDocuments"
	body.MethodProperties.Documents = make([]document, 0, len(numbers))
	for _, n := range numbers {
		body.MethodProperties.Documents = append(body.MethodProperties.Documents, document{DocumentNumber: n})
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("novaposhta http %d", resp.StatusCode)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if !r.Success {
		return nil, fmt.Errorf("novaposhta success=false: %s", strings.Join(r.Errors, "; "))
	}

	out := make([]models.TrackingRecord, 0, len(r.Data))
	for _, it := range r.Data {
		out = append(out, models.TrackingRecord{
			Number:      it.Number,
			StatusCode:  rawToString(it.StatusCode),
			DateScan:    it.DateScan,
			DateCreated: it.DateCreated,
		})
	}
	return out, nil
}

func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}
