// Package directory resolves doctors from SIMRS and falls back to locally
// stored snapshots while SIMRS is unreachable.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"jadwalpoli/internal/metrics"
	"jadwalpoli/internal/model"
)

// ErrFetchFailed is returned when SIMRS failed and no snapshot exists.
var ErrFetchFailed = errors.New("doctor fetch failed")

// Source is the upstream doctor catalogue.
type Source interface {
	GetDoctor(ctx context.Context, code string) (*model.Doctor, error)
	ListDoctors(ctx context.Context) ([]model.Doctor, error)
}

// Store keeps the last schedule read for each doctor.
type Store interface {
	SaveDoctor(ctx context.Context, doc *model.Doctor, fetchedAt time.Time) error
	GetDoctor(ctx context.Context, code string) (*model.Doctor, time.Time, error)
	ListDoctors(ctx context.Context) ([]model.Doctor, error)
}

// Result is a resolved doctor. Stale is set when it came from a snapshot.
type Result struct {
	Doctor    *model.Doctor
	Stale     bool
	FetchedAt time.Time
}

// Directory asks the source first and degrades to the store.
type Directory struct {
	source     Source
	store      Store
	isNotFound func(error) bool
	logger     zerolog.Logger
	now        func() time.Time
	retryAfter time.Duration

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

// Option configures a Directory.
type Option func(*Directory)

// WithRetryAfter sets how long the source is skipped after a failure.
func WithRetryAfter(d time.Duration) Option {
	return func(dir *Directory) { dir.retryAfter = d }
}

// WithNotFound marks errors meaning the doctor does not exist upstream.
// Such errors are returned as is and never served from a snapshot.
func WithNotFound(fn func(error) bool) Option {
	return func(dir *Directory) { dir.isNotFound = fn }
}

func New(source Source, store Store, logger *zerolog.Logger, opts ...Option) *Directory {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "directory").Logger()
	}
	d := &Directory{
		source:     source,
		store:      store,
		isNotFound: func(error) bool { return false },
		logger:     l,
		now:        time.Now,
		retryAfter: time.Minute,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Lookup resolves a doctor by code.
func (d *Directory) Lookup(ctx context.Context, code string) (*Result, error) {
	if d.shouldTrySource() {
		doc, err := d.source.GetDoctor(ctx, code)
		if err == nil {
			d.markUp()
			fetchedAt := d.now()
			if d.store != nil {
				if serr := d.store.SaveDoctor(ctx, doc, fetchedAt); serr != nil {
					d.logger.Warn().Err(serr).Str("doctor", code).Msg("snapshot save failed")
				}
			}
			return &Result{Doctor: doc, FetchedAt: fetchedAt}, nil
		}
		if d.isNotFound(err) {
			return nil, err
		}
		d.markDown(err)
		return d.fromStore(ctx, code, err)
	}
	return d.fromStore(ctx, code, errors.New("source unavailable"))
}

// List returns every doctor, falling back to the stored snapshots.
func (d *Directory) List(ctx context.Context) ([]model.Doctor, bool, error) {
	if d.shouldTrySource() {
		docs, err := d.source.ListDoctors(ctx)
		if err == nil {
			d.markUp()
			return docs, false, nil
		}
		d.markDown(err)
		if d.store == nil {
			return nil, false, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
	}
	if d.store == nil {
		return nil, false, ErrFetchFailed
	}
	docs, err := d.store.ListDoctors(ctx)
	if err != nil || len(docs) == 0 {
		return nil, false, ErrFetchFailed
	}
	return docs, true, nil
}

func (d *Directory) fromStore(ctx context.Context, code string, cause error) (*Result, error) {
	if d.store == nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, cause)
	}
	doc, fetchedAt, err := d.store.GetDoctor(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, cause)
	}
	metrics.IncDoctorCache("stale")
	d.logger.Info().Str("doctor", code).Time("fetched_at", fetchedAt).Msg("serving schedule snapshot")
	return &Result{Doctor: doc, Stale: true, FetchedAt: fetchedAt}, nil
}

func (d *Directory) shouldTrySource() bool {
	if !d.isDown.Load() {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.now().Sub(d.lastCheck) >= d.retryAfter
}

func (d *Directory) markDown(err error) {
	d.mu.Lock()
	d.lastCheck = d.now()
	d.mu.Unlock()
	if !d.isDown.Swap(true) {
		d.logger.Warn().Err(err).Msg("SIMRS unavailable, switching to snapshots")
	}
}

func (d *Directory) markUp() {
	if d.isDown.Swap(false) {
		d.logger.Info().Msg("SIMRS recovered")
	}
}
