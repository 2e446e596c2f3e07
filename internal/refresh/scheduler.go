// internal/refresh/scheduler.go
package refresh

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"siem-anomaly-gateway/internal/alerting"
	"siem-anomaly-gateway/internal/data"
	"siem-anomaly-gateway/internal/loader"
	"siem-anomaly-gateway/internal/metrics"
	"siem-anomaly-gateway/internal/query"
	"siem-anomaly-gateway/internal/storage"
	"siem-anomaly-gateway/internal/websocket"
)

// Status describes the scheduler's view of data freshness, surfaced to the
// presentation layer instead of hiding load failures.
type Status struct {
	LastAttempt time.Time `json:"last_attempt"`
	LastSuccess time.Time `json:"last_success"`
	Generation  uint64    `json:"generation"`
	EventCount  int       `json:"event_count"`
	LastError   string    `json:"last_error,omitempty"`
	Populated   bool      `json:"populated"` // at least one successful load ever
	Stale       bool      `json:"stale"`     // last success older than one refresh interval
}

// View is the default filtered view pushed to dashboard clients after each
// successful cycle.
type View struct {
	Generation  uint64              `json:"generation"`
	RefreshedAt time.Time           `json:"refreshed_at"`
	Summary     data.MetricsSummary `json:"summary"`
	Events      []data.Event        `json:"events"`
}

// Source yields the complete event set for one cycle, sorted descending by
// timestamp. *loader.Loader is the production implementation.
type Source interface {
	Load() ([]data.Event, error)
}

// Options wires the scheduler's collaborators and cadence.
type Options struct {
	Interval    time.Duration
	LogPath     string
	DefaultSpec func(now time.Time) query.Spec
}

// Scheduler drives the load→store→filter→aggregate cycle. It alternates
// between idle (waiting for a trigger) and cycling (pipeline in progress);
// ticker ticks, file-change notifications and manual triggers all funnel
// into a one-slot channel so at most one cycle is ever in flight and bursts
// coalesce instead of queueing.
type Scheduler struct {
	opts    Options
	loader  Source
	store   *storage.EventStore
	engine  *query.Engine
	alerter *alerting.Alerter
	hub     *websocket.Hub
	log     *zap.Logger

	trigger chan struct{}

	mu     sync.RWMutex
	status Status
	view   View
}

func NewScheduler(opts Options, ld Source, store *storage.EventStore, engine *query.Engine, alerter *alerting.Alerter, hub *websocket.Hub, log *zap.Logger) *Scheduler {
	return &Scheduler{
		opts:    opts,
		loader:  ld,
		store:   store,
		engine:  engine,
		alerter: alerter,
		hub:     hub,
		log:     log,
		trigger: make(chan struct{}, 1),
	}
}

// TriggerRefresh requests a cycle outside the regular cadence. Returns
// false when the request was coalesced into one already pending or in
// flight.
func (s *Scheduler) TriggerRefresh() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		metrics.RefreshTriggersCoalesced.Inc()
		return false
	}
}

// Run executes cycles until ctx is cancelled. The first cycle runs
// immediately so consumers are not blind for one full interval after
// startup. An in-flight cycle drains before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	watcher := s.watchLog(ctx)
	if watcher != nil {
		defer watcher.Close()
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.cycle()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.cycle()
		case <-s.trigger:
			s.cycle()
		}
		// Anything that arrived while cycling is already satisfied by the
		// cycle that just ran: drop it instead of running back-to-back.
		select {
		case <-s.trigger:
			metrics.RefreshTriggersCoalesced.Inc()
		default:
		}
		select {
		case <-ticker.C:
			metrics.RefreshTriggersCoalesced.Inc()
		default:
		}
	}
}

// Status reports freshness at call time; staleness is computed against the
// refresh interval rather than stored, so it flips on its own when cycles
// stop succeeding.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()
	st.Stale = st.Populated && time.Since(st.LastSuccess) > s.opts.Interval
	return st
}

// View returns the last published default view.
func (s *Scheduler) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// cycle runs one load→store→filter→aggregate pass. A failed load keeps the
// previously published snapshot authoritative; the failure is recorded and
// surfaced through Status, never propagated as fatal.
func (s *Scheduler) cycle() {
	started := time.Now()
	events, err := s.loader.Load()
	metrics.LoadDuration.Observe(time.Since(started).Seconds())

	s.mu.Lock()
	s.status.LastAttempt = started
	s.mu.Unlock()

	switch {
	case errors.Is(err, loader.ErrNotFound):
		// No log yet: not a failure, just nothing to show.
		metrics.RefreshCyclesTotal.WithLabelValues("not_found").Inc()
		s.mu.Lock()
		s.status.LastError = ""
		s.mu.Unlock()
		s.log.Debug("alert log absent, waiting for detector")
		return

	case err != nil:
		metrics.RefreshCyclesTotal.WithLabelValues("load_failed").Inc()
		s.mu.Lock()
		s.status.LastError = err.Error()
		s.mu.Unlock()
		s.log.Error("load failed, keeping previous snapshot", zap.Error(err))
		return
	}

	snap := s.store.Replace(events, started)
	metrics.RefreshCyclesTotal.WithLabelValues("ok").Inc()
	metrics.EventsIngested.Set(float64(snap.Len()))

	spec := s.opts.DefaultSpec(time.Now())
	filtered := s.engine.Apply(snap, spec)
	view := View{
		Generation:  snap.Generation,
		RefreshedAt: started,
		Summary:     query.Summarize(snap, filtered),
		Events:      filtered,
	}

	s.mu.Lock()
	s.status.LastSuccess = started
	s.status.Generation = snap.Generation
	s.status.EventCount = snap.Len()
	s.status.LastError = ""
	s.status.Populated = true
	s.view = view
	s.mu.Unlock()

	if s.alerter != nil {
		s.alerter.Process(snap)
	}
	if s.hub != nil {
		s.hub.BroadcastView(view)
	}

	s.log.Debug("refresh cycle complete",
		zap.Uint64("generation", snap.Generation),
		zap.Int("events", snap.Len()),
		zap.Duration("took", time.Since(started)),
	)
}

// watchLog triggers refreshes when the detector appends to the log, so the
// dashboard reacts faster than the tick cadence. Watch failures degrade to
// ticker-only operation; they never stop the scheduler.
func (s *Scheduler) watchLog(ctx context.Context) *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Warn("file watch unavailable, relying on ticker", zap.Error(err))
		return nil
	}
	dir := filepath.Dir(s.opts.LogPath)
	if err := watcher.Add(dir); err != nil {
		s.log.Warn("cannot watch alert log directory", zap.String("dir", dir), zap.Error(err))
		watcher.Close()
		return nil
	}
	target, _ := filepath.Abs(s.opts.LogPath)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				abs, _ := filepath.Abs(ev.Name)
				if abs != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					s.TriggerRefresh()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("file watch error", zap.Error(err))
			}
		}
	}()
	return watcher
}
