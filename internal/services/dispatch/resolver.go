package dispatch

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/BearBump/ShipReport/internal/integrations/carrier"
)

const DefaultBatchSize = 100

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Resolver опрашивает ключи и пачки строго последовательно.
type Resolver struct {
	client    carrier.Client
	apiKeys   []string
	batchSize int

	rl                 RateLimiter
	rateLimitPerMinute int64
	throttle           time.Duration
}

func New(client carrier.Client, apiKeys []string) *Resolver {
	keys := make([]string, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return &Resolver{
		client:    client,
		apiKeys:   keys,
		batchSize: DefaultBatchSize,
		throttle:  500 * time.Millisecond,
	}
}

func (r *Resolver) WithBatchSize(n int) *Resolver {
	if n > 0 && n <= DefaultBatchSize {
		r.batchSize = n
	}
	return r
}

func (r *Resolver) WithRateLimit(rl RateLimiter, perMinute int) *Resolver {
	r.rl = rl
	if perMinute > 0 {
		r.rateLimitPerMinute = int64(perMinute)
	}
	return r
}

// ResolveDispatchDates returns a dispatch date for every number some
// credential could confirm. Numbers nobody confirms are absent from the map.
func (r *Resolver) ResolveDispatchDates(ctx context.Context, numbers []string) map[string]time.Time {
	result := make(map[string]time.Time)
	if len(r.apiKeys) == 0 || len(numbers) == 0 {
		return result
	}

	var pending []string
	seen := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		pending = append(pending, n)
	}

	for i, key := range r.apiKeys {
		if len(pending) == 0 {
			break
		}
		found := r.queryChunked(ctx, i, key, pending)
		for n, d := range found {
			if _, ok := result[n]; !ok {
				result[n] = d
			}
		}
		pending = without(pending, found)
		slog.Info("carrier credential pass", "credential", i+1, "resolved", len(found), "pending", len(pending))
	}
	return result
}

func (r *Resolver) queryChunked(ctx context.Context, keyIdx int, key string, numbers []string) map[string]time.Time {
	out := make(map[string]time.Time)
	asked := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		asked[n] = struct{}{}
	}

	for start := 0; start < len(numbers); start += r.batchSize {
		end := start + r.batchSize
		if end > len(numbers) {
			end = len(numbers)
		}
		chunk := numbers[start:end]

		r.waitForSlot(ctx, key)

		recs, err := r.client.GetStatusDocuments(ctx, key, chunk)
		if err != nil {
			slog.Error("carrier batch failed", "credential", keyIdx+1, "batch_start", start, "size", len(chunk), "error", err.Error())
			continue
		}
		for _, rec := range recs {
			if _, ok := asked[rec.Number]; !ok {
				continue
			}
			if d, ok := DispatchDate(rec); ok {
				out[rec.Number] = d
			}
		}
	}
	return out
}

func (r *Resolver) waitForSlot(ctx context.Context, key string) {
	if r.rl == nil || r.rateLimitPerMinute <= 0 {
		return
	}
	minuteKey := fmt.Sprintf("rl:carrier:%s:%s", keyFingerprint(key), time.Now().UTC().Format("200601021504"))
	allowed, n, err := r.rl.Allow(ctx, minuteKey, r.rateLimitPerMinute, 70*time.Second)
	if err != nil {
		slog.Warn("carrier rate limiter unavailable", "error", err.Error())
		return
	}
	if !allowed {
		slog.Warn("carrier rate limit exceeded", "count", n)
		select {
		case <-ctx.Done():
		case <-time.After(r.throttle):
		}
	}
}

// Сырые ключи API в redis не пишем.
func keyFingerprint(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return fmt.Sprintf("%08x", h.Sum32())
}

func without(numbers []string, done map[string]time.Time) []string {
	out := numbers[:0:0]
	for _, n := range numbers {
		if _, ok := done[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
