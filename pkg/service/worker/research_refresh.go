package worker

import (
	"context"
	"strings"
	"time"

	"github.com/agrilens/agrilens/pkg/utils/async"
	"github.com/agrilens/agrilens/pkg/utils/errutil"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Target is one crop and location kept warm in the research cache
type Target struct {
	Crop     string
	Location string
}

// RefreshFunc runs research for one target. Fresh cached findings make it a
// no-op; stale ones trigger a fetch.
type RefreshFunc func(ctx context.Context, crop, location string) error

// ResearchRefreshWorker periodically runs research for a fixed set of targets
// so that requests for them are served from the cache.
//
// Architecture assumptions:
// - Single server instance (no distributed locking). Concurrent refreshes
// from several instances only produce duplicate inserts, which are no-ops.
type ResearchRefreshWorker struct {
	refresh  RefreshFunc
	targets  []Target
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewResearchRefreshWorker creates a worker refreshing targets every interval
func NewResearchRefreshWorker(refresh RefreshFunc, targets []Target, interval time.Duration) *ResearchRefreshWorker {
	return &ResearchRefreshWorker{
		refresh:  refresh,
		targets:  targets,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background refresh loop. The first pass runs immediately
// in the background and does not block server startup.
func (w *ResearchRefreshWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("refresh interval must be positive", goerr.V("interval", w.interval))
	}

	logging.From(ctx).Info("Research refresh worker starting",
		"interval", w.interval.String(),
		"targets", len(w.targets))

	async.Dispatch(ctx, "research-refresh", func(ctx context.Context) error {
		w.run(ctx)
		return nil
	})
	return nil
}

// Stop signals the worker to stop and waits for the current pass to finish
func (w *ResearchRefreshWorker) Stop() {
	logging.Default().Info("Research refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Research refresh worker stopped")
}

func (w *ResearchRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	w.refreshAll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refreshAll(ctx)

		case <-ctx.Done():
			logging.From(ctx).Info("Research refresh worker received stop signal")
			return
		}
	}
}

// refreshAll runs one pass over every target. A failing target is logged and
// does not stop the pass.
func (w *ResearchRefreshWorker) refreshAll(ctx context.Context) {
	startTime := time.Now()
	var failed int
	for _, t := range w.targets {
		if ctx.Err() != nil {
			return
		}
		if err := w.refresh(ctx, t.Crop, t.Location); err != nil {
			failed++
			errutil.Warn(ctx, err, "research refresh failed (will retry next interval)")
		}
	}

	logging.From(ctx).Info("Research refresh completed",
		"targets", len(w.targets),
		"failed", failed,
		"duration", time.Since(startTime).String())
}

// ParseTarget parses "crop:location"
func ParseTarget(s string) (Target, error) {
	crop, location, ok := strings.Cut(s, ":")
	crop = strings.TrimSpace(crop)
	location = strings.TrimSpace(location)
	if !ok || crop == "" || location == "" {
		return Target{}, goerr.New("refresh target must be crop:location", goerr.V("target", s))
	}
	return Target{Crop: crop, Location: location}, nil
}
