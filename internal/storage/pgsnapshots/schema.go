package pgsnapshots

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS daily_stats (
  date DATE PRIMARY KEY,
  count INT NOT NULL DEFAULT 0,
  total_sum NUMERIC(20,2) NOT NULL DEFAULT 0,
  order_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		// Older rows may carry a NULL id list.
		`UPDATE daily_stats SET order_ids = '[]'::jsonb WHERE order_ids IS NULL`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
