package messages

import "time"

// SnapshotCollected is published after a daily snapshot is stored.
type SnapshotCollected struct {
	Date        string    `json:"date"`
	Count       int       `json:"count"`
	Total       string    `json:"total"`
	OrderIDs    []string  `json:"order_ids"`
	CollectedAt time.Time `json:"collected_at"`

	// Backfill is true when the snapshot was written by the history loader.
	Backfill bool `json:"backfill,omitempty"`
}
