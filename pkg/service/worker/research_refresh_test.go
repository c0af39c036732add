package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agrilens/agrilens/pkg/service/worker"
	"github.com/m-mizutani/gt"
)

type refreshRecorder struct {
	mu    sync.Mutex
	calls []worker.Target
	fail  map[string]bool
}

func (r *refreshRecorder) refresh(ctx context.Context, crop, location string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, worker.Target{Crop: crop, Location: location})
	if r.fail[crop] {
		return errors.New("source unavailable")
	}
	return nil
}

func (r *refreshRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestResearchRefreshWorker(t *testing.T) {
	rec := &refreshRecorder{fail: map[string]bool{"wheat": true}}
	targets := []worker.Target{
		{Crop: "wheat", Location: "Punjab"},
		{Crop: "potato", Location: "Haryana"},
	}
	w := worker.NewResearchRefreshWorker(rec.refresh, targets, 20*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()

	// a failing target does not stop the pass, and passes repeat
	waitFor(t, func() bool { return rec.count() >= 4 })
	w.Stop()

	stopped := rec.count()
	time.Sleep(50 * time.Millisecond)
	gt.Number(t, rec.count()).Equal(stopped)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	gt.Value(t, rec.calls[0]).Equal(targets[0])
	gt.Value(t, rec.calls[1]).Equal(targets[1])
}

func TestResearchRefreshWorkerRejectsZeroInterval(t *testing.T) {
	w := worker.NewResearchRefreshWorker(func(ctx context.Context, crop, location string) error { return nil }, nil, 0)
	gt.Value(t, w.Start(context.Background())).NotNil()
}

func TestParseTarget(t *testing.T) {
	got, err := worker.ParseTarget("potato:Haryana")
	gt.NoError(t, err).Required()
	gt.Value(t, got).Equal(worker.Target{Crop: "potato", Location: "Haryana"})

	for _, s := range []string{"potato", ":Haryana", "potato:", ""} {
		_, err := worker.ParseTarget(s)
		gt.Value(t, err).NotNil()
	}
}
