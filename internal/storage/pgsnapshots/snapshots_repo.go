package pgsnapshots

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/ShipReport/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func (s *Storage) UpsertSnapshot(ctx context.Context, snap models.DailySnapshot) error {
	ids := snap.OrderIDs
	if ids == nil {
		ids = []string{}
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return errors.Wrap(err, "marshal order ids")
	}
	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.Exec(ctx, `
INSERT INTO daily_stats (date, count, total_sum, order_ids, updated_at)
VALUES ($1, $2, $3::text::numeric, $4::jsonb, $5)
ON CONFLICT (date)
DO UPDATE SET
  count = EXCLUDED.count,
  total_sum = EXCLUDED.total_sum,
  order_ids = EXCLUDED.order_ids,
  updated_at = EXCLUDED.updated_at
`, dateArg(snap.Date), snap.Count, snap.Total.StringFixed(2), string(payload), updatedAt)
	if err != nil {
		return errors.Wrap(err, "upsert snapshot")
	}
	return nil
}

// LookupIDs returns the stored order ids for date and tells apart a day that
// was never collected from one where nothing shipped.
func (s *Storage) LookupIDs(ctx context.Context, date time.Time) (models.SnapshotLookup, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT order_ids FROM daily_stats WHERE date = $1`, dateArg(date)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SnapshotLookup{State: models.SnapshotNotCollected}, nil
	}
	if err != nil {
		return models.SnapshotLookup{}, errors.Wrap(err, "select snapshot ids")
	}

	ids, err := decodeIDs(raw)
	if err != nil {
		return models.SnapshotLookup{}, err
	}
	return models.LookupFromIDs(ids), nil
}

func (s *Storage) GetSnapshot(ctx context.Context, date time.Time) (models.DailySnapshot, bool, error) {
	row := s.db.QueryRow(ctx, `
SELECT date, count, total_sum::text, order_ids, updated_at
FROM daily_stats
WHERE date = $1
`, dateArg(date))
	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DailySnapshot{}, false, nil
	}
	if err != nil {
		return models.DailySnapshot{}, false, err
	}
	return snap, true, nil
}

func (s *Storage) ListSnapshots(ctx context.Context, from, to time.Time) ([]models.DailySnapshot, error) {
	rows, err := s.db.Query(ctx, `
SELECT date, count, total_sum::text, order_ids, updated_at
FROM daily_stats
WHERE date BETWEEN $1 AND $2
ORDER BY date
`, dateArg(from), dateArg(to))
	if err != nil {
		return nil, errors.Wrap(err, "select snapshots")
	}
	defer rows.Close()

	out := make([]models.DailySnapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows err")
	}
	return out, nil
}

func scanSnapshot(row pgx.Row) (models.DailySnapshot, error) {
	var (
		snap  models.DailySnapshot
		total string
		raw   []byte
	)
	if err := row.Scan(&snap.Date, &snap.Count, &total, &raw, &snap.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snap, err
		}
		return snap, errors.Wrap(err, "scan snapshot")
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return snap, errors.Wrap(err, "parse total_sum")
	}
	snap.Total = d
	snap.Date = models.DateOf(snap.Date)
	if snap.OrderIDs, err = decodeIDs(raw); err != nil {
		return snap, err
	}
	return snap, nil
}

// В старых строках id лежат числами.
func decodeIDs(raw []byte) ([]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []string{}, nil
	}
	var refs []models.OrderRef
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, errors.Wrap(err, "decode order ids")
	}
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r != "" {
			out = append(out, string(r))
		}
	}
	return out, nil
}

func dateArg(t time.Time) time.Time {
	return models.DateOf(t)
}
