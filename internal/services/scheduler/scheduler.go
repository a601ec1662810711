package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type Job func(ctx context.Context) error

// Scheduler runs a job once a day at a fixed wall-clock time in loc.
type Scheduler struct {
	job    Job
	hour   int
	minute int
	loc    *time.Location
	now    func() time.Time

	triggerCh chan struct{}

	startedAtUnixNano int64
	lastRunUnixNano   atomic.Int64
	nextRunUnixNano   atomic.Int64
	lastTriggerNano   atomic.Int64
	totalRuns         atomic.Int64
	totalErrors       atomic.Int64
	running           atomic.Bool
	lastErrorMu       sync.Mutex
	lastError         string
}

func New(job Job, hour, minute int, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		job:               job,
		hour:              hour,
		minute:            minute,
		loc:               loc,
		now:               time.Now,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	if now != nil {
		s.now = now
	}
	return s
}

// NextRun returns the first fire time strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, s.minute, 0, 0, s.loc)
	}
	return next
}

// Trigger asks for an immediate run (best-effort, non-blocking).
func (s *Scheduler) Trigger() {
	s.lastTriggerNano.Store(time.Now().UTC().UnixNano())
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.now()
		next := s.NextRun(now)
		s.nextRunUnixNano.Store(next.UnixNano())
		slog.Info("next daily run scheduled", "at", next.Format(time.RFC3339))

		t := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
			s.runOnce(ctx)
		case <-s.triggerCh:
			t.Stop()
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)
	s.lastRunUnixNano.Store(time.Now().UTC().UnixNano())
	s.totalRuns.Add(1)

	if err := s.job(ctx); err != nil {
		s.totalErrors.Add(1)
		s.lastErrorMu.Lock()
		s.lastError = err.Error()
		s.lastErrorMu.Unlock()
		slog.Error("daily job failed", "error", err.Error())
	}
}

type Stats struct {
	StartedAt     time.Time  `json:"startedAt"`
	NextRunAt     *time.Time `json:"nextRunAt,omitempty"`
	LastRunAt     *time.Time `json:"lastRunAt,omitempty"`
	LastTriggerAt *time.Time `json:"lastTriggerAt,omitempty"`
	TotalRuns     int64      `json:"totalRuns"`
	TotalErrors   int64      `json:"totalErrors"`
	Running       bool       `json:"running"`
	LastError     string     `json:"lastError,omitempty"`
}

func (s *Scheduler) Stats() Stats {
	st := Stats{
		StartedAt:   time.Unix(0, s.startedAtUnixNano).UTC(),
		TotalRuns:   s.totalRuns.Load(),
		TotalErrors: s.totalErrors.Load(),
		Running:     s.running.Load(),
	}
	if n := s.nextRunUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.NextRunAt = &t
	}
	if n := s.lastRunUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastRunAt = &t
	}
	if n := s.lastTriggerNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	s.lastErrorMu.Lock()
	st.LastError = s.lastError
	s.lastErrorMu.Unlock()
	return st
}
