package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"jadwalpoli/internal/metrics"
	"jadwalpoli/internal/model"
)

// Watch is the polling task of one consuming view.
type Watch struct {
	ID uuid.UUID

	key      Key
	poller   *Poller
	onUpdate func(View)
	stopCh   chan struct{}
	wg       sync.WaitGroup
	inflight sync.WaitGroup

	// emitMu serializes apply+callback so Stop never races an update.
	emitMu  sync.Mutex
	mu      sync.Mutex
	view    View
	stopped bool
	seq     uint64
	applied uint64
}

// Key returns the watched clinic-day.
func (w *Watch) Key() Key {
	return w.key
}

// Snapshot returns the current view.
func (w *Watch) Snapshot() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view
}

// Stopped reports whether the watch no longer applies updates.
func (w *Watch) Stopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

// Refresh dispatches an out-of-band fetch. It is a no-op on a stopped watch.
func (w *Watch) Refresh(ctx context.Context) {
	w.dispatch(ctx)
}

// Stop ends polling. After Stop returns no further fetch is dispatched and
// results of in-flight fetches are discarded.
func (w *Watch) Stop() {
	if !w.markStopped() {
		return
	}
	close(w.stopCh)
	w.wg.Wait()
	w.poller.logger.Debug().Str("watch_id", w.ID.String()).Msg("queue watch stopped")
}

// Wait blocks until every dispatched fetch has returned and its result was
// applied or discarded. Fetches are bounded by Config.FetchTimeout.
func (w *Watch) Wait() {
	w.inflight.Wait()
}

func (w *Watch) markStopped() bool {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return false
	}
	w.stopped = true
	w.poller.remove(w.ID)
	return true
}

func (w *Watch) run(ctx context.Context) {
	defer w.wg.Done()

	w.dispatch(ctx)

	ticker := time.NewTicker(w.poller.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.markStopped()
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.dispatch(ctx)
		}
	}
}

func (w *Watch) dispatch(ctx context.Context) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.seq++
	seq := w.seq
	w.inflight.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.inflight.Done()
		status, err := w.poller.fetch(ctx, w.key)
		w.apply(seq, status, err)
	}()
}

func (w *Watch) apply(seq uint64, status *model.QueueStatus, err error) {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		metrics.IncQueueFetch("discarded")
		return
	}
	if w.poller.config.DiscardStale && seq < w.applied {
		w.mu.Unlock()
		metrics.IncQueueFetch("discarded")
		return
	}
	if seq > w.applied {
		w.applied = seq
	}
	w.view = newView(w.key, status, err, w.poller.now())
	view := w.view
	w.mu.Unlock()

	if w.onUpdate != nil {
		w.onUpdate(view)
	}
}
