package directory

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"jadwalpoli/internal/metrics"
	"jadwalpoli/internal/model"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) GetDoctor(ctx context.Context, code string) (*model.Doctor, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Doctor), args.Error(1)
}

func (m *mockSource) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Doctor), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveDoctor(ctx context.Context, doc *model.Doctor, fetchedAt time.Time) error {
	args := m.Called(ctx, doc, fetchedAt)
	return args.Error(0)
}

func (m *mockStore) GetDoctor(ctx context.Context, code string) (*model.Doctor, time.Time, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, time.Time{}, args.Error(2)
	}
	return args.Get(0).(*model.Doctor), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockStore) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Doctor), args.Error(1)
}

var errNotFound = errors.New("not found")

func TestDirectoryLookup(t *testing.T) {
	source := new(mockSource)
	store := new(mockStore)
	logger := zerolog.New(io.Discard)
	dir := New(source, store, &logger,
		WithRetryAfter(time.Minute),
		WithNotFound(func(err error) bool { return errors.Is(err, errNotFound) }),
	)
	now := time.Date(2025, 12, 17, 8, 0, 0, 0, time.UTC)
	dir.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("SourceSuccessSavesSnapshot", func(t *testing.T) {
		doc := &model.Doctor{Code: "D1"}
		source.On("GetDoctor", ctx, "D1").Return(doc, nil).Once()
		store.On("SaveDoctor", ctx, doc, now).Return(nil).Once()

		got, err := dir.Lookup(ctx, "D1")
		require.NoError(t, err)
		assert.Same(t, doc, got.Doctor)
		assert.False(t, got.Stale)
		source.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("NotFoundIsNotServedFromSnapshot", func(t *testing.T) {
		source.On("GetDoctor", ctx, "X").Return(nil, errNotFound).Once()

		_, err := dir.Lookup(ctx, "X")
		assert.ErrorIs(t, err, errNotFound)
		assert.False(t, dir.isDown.Load())
		source.AssertExpectations(t)
	})

	t.Run("SourceFailFallbackSnapshot", func(t *testing.T) {
		snap := &model.Doctor{Code: "D2"}
		saved := now.Add(-time.Hour)
		source.On("GetDoctor", ctx, "D2").Return(nil, errors.New("timeout")).Once()
		store.On("GetDoctor", ctx, "D2").Return(snap, saved, nil).Once()

		got, err := dir.Lookup(ctx, "D2")
		require.NoError(t, err)
		assert.True(t, got.Stale)
		assert.Equal(t, saved, got.FetchedAt)
		assert.True(t, dir.isDown.Load())
		source.AssertExpectations(t)
		store.AssertExpectations(t)

		metrics.Register()
		n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "jadwalpoli_doctor_cache_total")
		require.NoError(t, err)
		assert.Equal(t, 1, n, "stale snapshot serve is counted")
	})

	t.Run("WhileDownSourceIsSkipped", func(t *testing.T) {
		store.On("GetDoctor", ctx, "D3").Return(nil, time.Time{}, errNotFound).Once()

		_, err := dir.Lookup(ctx, "D3")
		assert.ErrorIs(t, err, ErrFetchFailed)
		source.AssertNotCalled(t, "GetDoctor", ctx, "D3")
		store.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		dir.isDown.Store(true)
		dir.lastCheck = now.Add(-2 * time.Minute)

		doc := &model.Doctor{Code: "D4"}
		source.On("GetDoctor", ctx, "D4").Return(doc, nil).Once()
		store.On("SaveDoctor", ctx, doc, now).Return(errors.New("disk full")).Once()

		got, err := dir.Lookup(ctx, "D4")
		require.NoError(t, err, "snapshot failures do not fail the lookup")
		assert.Same(t, doc, got.Doctor)
		assert.False(t, dir.isDown.Load())
		source.AssertExpectations(t)
	})
}

func TestDirectoryLookup_NoStore(t *testing.T) {
	source := new(mockSource)
	dir := New(source, nil, nil)
	ctx := context.Background()

	upstream := errors.New("connection refused")
	source.On("GetDoctor", ctx, "D1").Return(nil, upstream).Once()

	_, err := dir.Lookup(ctx, "D1")
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, upstream)
}

func TestDirectoryList(t *testing.T) {
	source := new(mockSource)
	store := new(mockStore)
	dir := New(source, store, nil)
	ctx := context.Background()

	live := []model.Doctor{{Code: "D1"}}
	source.On("ListDoctors", ctx).Return(live, nil).Once()
	docs, stale, err := dir.List(ctx)
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, live, docs)

	snaps := []model.Doctor{{Code: "D1"}, {Code: "D2"}}
	source.On("ListDoctors", ctx).Return(nil, errors.New("down")).Once()
	store.On("ListDoctors", ctx).Return(snaps, nil).Once()
	docs, stale, err = dir.List(ctx)
	require.NoError(t, err)
	assert.True(t, stale)
	assert.Equal(t, snaps, docs)

	store.On("ListDoctors", ctx).Return([]model.Doctor{}, nil).Once()
	_, _, err = dir.List(ctx)
	assert.ErrorIs(t, err, ErrFetchFailed)
}
