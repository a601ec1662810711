package collector

import (
	"context"
	"sync"

	"github.com/BearBump/ShipReport/internal/broker/messages"
)

// Watcher remembers the newest snapshot.collected event seen on the topic.
type Watcher struct {
	mu   sync.Mutex
	last *messages.SnapshotCollected
	seen int64
}

func NewWatcher() *Watcher {
	return &Watcher{}
}

func (w *Watcher) Handle(_ context.Context, msg messages.SnapshotCollected) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seen++
	if w.last == nil || msg.CollectedAt.After(w.last.CollectedAt) {
		w.last = &msg
	}
	return nil
}

type WatcherStats struct {
	EventsSeen    int64                       `json:"eventsSeen"`
	LastCollected *messages.SnapshotCollected `json:"lastCollected,omitempty"`
}

func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := WatcherStats{EventsSeen: w.seen}
	if w.last != nil {
		cp := *w.last
		st.LastCollected = &cp
	}
	return st
}
