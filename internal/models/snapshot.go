package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySnapshot is the confirmed shipment result of one daily collection run.
type DailySnapshot struct {
	Date      time.Time       `json:"date"`
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"total"`
	OrderIDs  []string        `json:"orderIds"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type SnapshotState int

const (
	SnapshotNotCollected SnapshotState = iota
	SnapshotCollectedEmpty
	SnapshotCollected
)

func (s SnapshotState) String() string {
	switch s {
	case SnapshotCollectedEmpty:
		return "COLLECTED_EMPTY"
	case SnapshotCollected:
		return "COLLECTED"
	default:
		return "NOT_COLLECTED"
	}
}

// SnapshotLookup separates "never collected" from "collected, nothing shipped".
type SnapshotLookup struct {
	State SnapshotState
	IDs   []string
}

// LookupFromIDs builds the lookup result for an existing row.
func LookupFromIDs(ids []string) SnapshotLookup {
	if len(ids) == 0 {
		return SnapshotLookup{State: SnapshotCollectedEmpty, IDs: []string{}}
	}
	return SnapshotLookup{State: SnapshotCollected, IDs: ids}
}
