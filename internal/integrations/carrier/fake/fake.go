package fake

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/BearBump/ShipReport/internal/models"
)

// FakeClient is a stand-in carrier for local runs without API keys.
// Every number resolves deterministically: a fifth of them are still awaiting
// receipt, the rest were scanned on the day the label was created.
type FakeClient struct {
	now func() time.Time
}

func New() *FakeClient { return &FakeClient{now: time.Now} }

func (f *FakeClient) GetStatusDocuments(ctx context.Context, apiKey string, numbers []string) ([]models.TrackingRecord, error) {
	day := f.now().Format("02.01.2006")
	out := make([]models.TrackingRecord, 0, len(numbers))
	for _, n := range numbers {
		h := fnv.New32a()
		_, _ = h.Write([]byte(n))

		rec := models.TrackingRecord{
			Number:      n,
			StatusCode:  "5",
			DateCreated: day + " 09:00:00",
			DateScan:    "18:00 " + day,
		}
		if h.Sum32()%5 == 0 {
			rec.StatusCode = models.TrackingStatusAwaitingReceipt
			rec.DateScan = ""
		}
		out = append(out, rec)
	}
	return out, nil
}
