package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/ShipReport/internal/integrations/carrier/novaposhta"
	"github.com/BearBump/ShipReport/internal/models"
	"github.com/stretchr/testify/require"
)

// npServer emulates the carrier endpoint. resolve decides, per credential and
// number, whether the number comes back scanned; fail makes a credential's
// batch answer HTTP 500 when it contains the given number.
type npServer struct {
	mu    sync.Mutex
	asked map[string][][]string

	resolve func(key, number string) bool
	fail    func(key string, numbers []string) bool
}

func (s *npServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			APIKey           string `json:"apiKey"`
			MethodProperties struct {
				Documents []struct {
					DocumentNumber string `json:"DocumentNumber"`
				} `json:"Documents"`
			} `json:"methodProperties"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		var numbers []string
		for _, d := range body.MethodProperties.Documents {
			numbers = append(numbers, d.DocumentNumber)
		}
		s.mu.Lock()
		s.asked[body.APIKey] = append(s.asked[body.APIKey], numbers)
		s.mu.Unlock()

		if s.fail != nil && s.fail(body.APIKey, numbers) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		data := make([]map[string]string, 0, len(numbers))
		for _, n := range numbers {
			if s.resolve(body.APIKey, n) {
				data = append(data, map[string]string{
					"Number": n, "StatusCode": "9", "DateScan": "15:00 10.01.2026", "DateCreated": "10.01.2026 09:00:00",
				})
			} else {
				data = append(data, map[string]string{"Number": n, "StatusCode": "3", "DateScan": "", "DateCreated": ""})
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
	}
}

func newNPServer(t *testing.T, resolve func(key, number string) bool, fail func(string, []string) bool) (*npServer, *novaposhta.Client) {
	s := &npServer{asked: map[string][][]string{}, resolve: resolve, fail: fail}
	srv := httptest.NewServer(s.handler(t))
	t.Cleanup(srv.Close)
	return s, novaposhta.New(srv.URL)
}

func flatten(batches [][]string) []string {
	var out []string
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

func TestResolver_NoCredentials(t *testing.T) {
	_, client := newNPServer(t, func(string, string) bool { return true }, nil)
	r := New(client, nil)
	require.Empty(t, r.ResolveDispatchDates(context.Background(), []string{"A"}))
}

func TestResolver_SecondCredentialRetriesOnlyPending(t *testing.T) {
	srv, client := newNPServer(t,
		func(key, number string) bool { return true },
		func(key string, numbers []string) bool {
			return key == "k1" && len(numbers) == 1 && numbers[0] == "X"
		},
	)
	r := New(client, []string{"k1", "k2"}).WithBatchSize(1)

	out := r.ResolveDispatchDates(context.Background(), []string{"Y", "X", "Y"})
	require.Equal(t, map[string]time.Time{
		"X": models.Date(2026, time.January, 10),
		"Y": models.Date(2026, time.January, 10),
	}, out)

	require.Equal(t, []string{"Y", "X"}, flatten(srv.asked["k1"]))
	require.Equal(t, []string{"X"}, flatten(srv.asked["k2"]))
}

func TestResolver_StopsWhenNothingPending(t *testing.T) {
	srv, client := newNPServer(t, func(string, string) bool { return true }, nil)
	r := New(client, []string{"k1", "k2", "k3"})

	out := r.ResolveDispatchDates(context.Background(), []string{"A", "B"})
	require.Len(t, out, 2)
	require.Len(t, srv.asked["k1"], 1)
	require.Empty(t, srv.asked["k2"])
	require.Empty(t, srv.asked["k3"])
}

func TestResolver_UnresolvedStaysAbsent(t *testing.T) {
	srv, client := newNPServer(t, func(key, n string) bool { return n != "GHOST" }, nil)
	r := New(client, []string{"k1", "k2"})

	out := r.ResolveDispatchDates(context.Background(), []string{"A", "GHOST"})
	require.Contains(t, out, "A")
	require.NotContains(t, out, "GHOST")
	require.Equal(t, []string{"GHOST"}, flatten(srv.asked["k2"]))
}

func TestResolver_BatchesOf100(t *testing.T) {
	srv, client := newNPServer(t, func(string, string) bool { return true }, nil)
	r := New(client, []string{"k1"})

	numbers := make([]string, 0, 250)
	for i := 0; i < 250; i++ {
		numbers = append(numbers, fmt.Sprintf("2045%010d", i))
	}
	out := r.ResolveDispatchDates(context.Background(), numbers)
	require.Len(t, out, 250)
	require.Len(t, srv.asked["k1"], 3)
	require.Len(t, srv.asked["k1"][0], 100)
	require.Len(t, srv.asked["k1"][1], 100)
	require.Len(t, srv.asked["k1"][2], 50)
}

func TestResolver_FailedBatchIsSkipped(t *testing.T) {
	srv, client := newNPServer(t,
		func(string, string) bool { return true },
		func(key string, numbers []string) bool { return numbers[0] == "A" },
	)
	r := New(client, []string{"k1"}).WithBatchSize(2)

	out := r.ResolveDispatchDates(context.Background(), []string{"A", "B", "C", "D"})
	require.NotContains(t, out, "A")
	require.NotContains(t, out, "B")
	require.Contains(t, out, "C")
	require.Contains(t, out, "D")
	require.Len(t, srv.asked["k1"], 2)
}

type denyingLimiter struct{ calls int }

func (l *denyingLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	l.calls++
	return false, limit + 1, nil
}

func TestResolver_RateLimitedBatchStillRuns(t *testing.T) {
	_, client := newNPServer(t, func(string, string) bool { return true }, nil)
	rl := &denyingLimiter{}
	r := New(client, []string{"k1"}).WithRateLimit(rl, 10)
	r.throttle = time.Millisecond

	out := r.ResolveDispatchDates(context.Background(), []string{"A"})
	require.Len(t, out, 1)
	require.Equal(t, 1, rl.calls)
}
