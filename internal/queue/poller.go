package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"jadwalpoli/internal/metrics"
	"jadwalpoli/internal/model"
)

// Config holds poller settings.
type Config struct {
	// Interval between scheduled fetches. Default: 30 seconds.
	Interval time.Duration
	// FetchTimeout bounds a single fetch. Default: 15 seconds.
	FetchTimeout time.Duration
	// DiscardStale drops a response that completes after a newer one was applied.
	// When false, responses apply in completion order.
	DiscardStale bool
}

// DefaultConfig returns the default poller configuration.
func DefaultConfig() Config {
	return Config{
		Interval:     30 * time.Second,
		FetchTimeout: 15 * time.Second,
	}
}

// Poller runs queue watches and keeps a registry of the active ones.
type Poller struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	watches map[uuid.UUID]*Watch
}

// NewPoller creates a poller backed by fetcher.
func NewPoller(fetcher Fetcher, config Config, logger *zerolog.Logger) *Poller {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 15 * time.Second
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "queue").Logger()
	}
	return &Poller{
		fetcher: fetcher,
		config:  config,
		logger:  l,
		now:     time.Now,
		watches: make(map[uuid.UUID]*Watch),
	}
}

// Watch starts polling key until Stop is called or ctx is done.
// The first fetch is dispatched immediately. onUpdate receives every applied view
// and must not call Stop on the same watch.
func (p *Poller) Watch(ctx context.Context, key Key, onUpdate func(View)) *Watch {
	w := &Watch{
		ID:       uuid.New(),
		key:      key,
		poller:   p,
		onUpdate: onUpdate,
		stopCh:   make(chan struct{}),
	}

	if !key.Enabled() {
		w.stopped = true
		w.view = disabledView(key)
		return w
	}

	w.view = View{Key: key, Loading: true}
	p.add(w)

	w.wg.Add(1)
	go w.run(ctx)

	p.logger.Debug().Str("watch_id", w.ID.String()).Str("key", key.String()).Msg("queue watch started")
	return w
}

// FetchOnce performs a single fetch without starting a watch.
func (p *Poller) FetchOnce(ctx context.Context, key Key) View {
	if !key.Enabled() {
		return disabledView(key)
	}
	status, err := p.fetch(ctx, key)
	return newView(key, status, err, p.now())
}

// Lookup returns an active watch by id.
func (p *Poller) Lookup(id uuid.UUID) (*Watch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.watches[id]
	if !ok {
		return nil, ErrWatchNotFound
	}
	return w, nil
}

// Active returns the number of active watches.
func (p *Poller) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.watches)
}

// StopAll stops every active watch.
func (p *Poller) StopAll() {
	p.mu.Lock()
	watches := make([]*Watch, 0, len(p.watches))
	for _, w := range p.watches {
		watches = append(watches, w)
	}
	p.mu.Unlock()

	for _, w := range watches {
		w.Stop()
	}
}

func (p *Poller) add(w *Watch) {
	p.mu.Lock()
	p.watches[w.ID] = w
	n := len(p.watches)
	p.mu.Unlock()
	metrics.SetActiveWatches(n)
}

func (p *Poller) remove(id uuid.UUID) {
	p.mu.Lock()
	delete(p.watches, id)
	n := len(p.watches)
	p.mu.Unlock()
	metrics.SetActiveWatches(n)
}

// fetch is detached from cancellation of ctx: an in-flight request may complete
// after its watch stopped, its result is then discarded by the watch.
func (p *Poller) fetch(ctx context.Context, key Key) (*model.QueueStatus, error) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.config.FetchTimeout)
	defer cancel()

	start := time.Now()
	status, err := p.fetcher.FetchQueueStatus(fctx, key.DoctorCode, key.ClinicCode, key.Date)
	metrics.ObserveQueueFetch(time.Since(start).Seconds())

	if err == nil && status == nil {
		err = fmt.Errorf("empty response")
	}
	if err != nil {
		metrics.IncQueueFetch("error")
		p.logger.Warn().Err(err).Str("key", key.String()).Msg("queue status fetch failed")
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	metrics.IncQueueFetch("ok")
	return status, nil
}
