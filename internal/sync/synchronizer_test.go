package sync

import (
	"context"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/chanrith/orderdesk/internal/cache"
	"gitlab.com/chanrith/orderdesk/internal/models"
)

type fakeSource struct {
	mu          stdsync.Mutex
	marker      string
	markerPolls int
	orderCalls  int
	reportCalls int
}

func (f *fakeSource) GetLatestLogTimestamp(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markerPolls++
	return f.marker, nil
}

func (f *fakeSource) GetAllOrders(_ context.Context) ([]models.OrderRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderCalls++
	return []models.OrderRecord{{OrderID: "ORD-1", GrandTotal: decimal.RequireFromString("25.5")}}, nil
}

func (f *fakeSource) GetReportData(_ context.Context) (*models.ReportData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reportCalls++
	return &models.ReportData{Monthly: map[string]models.ReportFigures{"2026-08": {}}}, nil
}

func (f *fakeSource) setMarker(m string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marker = m
}

func (f *fakeSource) counts() (polls, orders, reports int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markerPolls, f.orderCalls, f.reportCalls
}

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSynchronizerPrime(t *testing.T) {
	t.Parallel()

	t.Run("missing caches force an immediate refresh", func(t *testing.T) {
		t.Parallel()
		source := &fakeSource{marker: "t1"}
		s := New(source, newTestStore(t), time.Minute, nil, nil)

		require.NoError(t, s.Prime(context.Background()))

		_, orders, reports := source.counts()
		assert.Equal(t, 1, orders)
		assert.Equal(t, 1, reports)

		snap := s.Snapshot()
		require.Len(t, snap.Orders, 1)
		require.NotNil(t, snap.Reports)
	})

	t.Run("complete caches are trusted without a heavy fetch", func(t *testing.T) {
		t.Parallel()
		source := &fakeSource{marker: "t1"}
		store := newTestStore(t)
		ctx := context.Background()

		require.NoError(t, store.SetJSON(ctx, cache.KeyAdminOrders, []models.OrderRecord{{OrderID: "cached"}}))
		require.NoError(t, store.SetJSON(ctx, cache.KeyAdminReports, models.ReportData{}))

		s := New(source, store, time.Minute, nil, nil)
		require.NoError(t, s.Prime(ctx))

		_, orders, reports := source.counts()
		assert.Zero(t, orders)
		assert.Zero(t, reports)
		require.Len(t, s.Snapshot().Orders, 1)
		assert.Equal(t, "cached", s.Snapshot().Orders[0].OrderID)
	})
}

func TestSynchronizerTick(t *testing.T) {
	t.Parallel()

	prime := func(t *testing.T, source *fakeSource, visible func() bool, onRefresh func(Snapshot)) *Synchronizer {
		t.Helper()
		s := New(source, newTestStore(t), time.Minute, visible, onRefresh)
		require.NoError(t, s.Prime(context.Background()))
		return s
	}

	t.Run("unchanged marker fetches nothing", func(t *testing.T) {
		t.Parallel()
		source := &fakeSource{marker: "t1"}
		s := prime(t, source, nil, nil)
		_, ordersBefore, reportsBefore := source.counts()

		s.tick(context.Background())

		polls, orders, reports := source.counts()
		assert.GreaterOrEqual(t, polls, 2)
		assert.Equal(t, ordersBefore, orders)
		assert.Equal(t, reportsBefore, reports)
	})

	t.Run("moved marker refreshes exactly once", func(t *testing.T) {
		t.Parallel()
		source := &fakeSource{marker: "t1"}
		s := prime(t, source, nil, nil)
		_, ordersBefore, reportsBefore := source.counts()

		source.setMarker("t2")
		s.tick(context.Background())

		_, orders, reports := source.counts()
		assert.Equal(t, ordersBefore+1, orders)
		assert.Equal(t, reportsBefore+1, reports)

		// Marker is now the baseline; the next tick is quiet again.
		s.tick(context.Background())
		_, orders2, reports2 := source.counts()
		assert.Equal(t, orders, orders2)
		assert.Equal(t, reports, reports2)
	})

	t.Run("invisible view skips even the marker poll", func(t *testing.T) {
		t.Parallel()
		source := &fakeSource{marker: "t1"}
		s := prime(t, source, func() bool { return false }, nil)
		pollsBefore, _, _ := source.counts()

		source.setMarker("t2")
		s.tick(context.Background())

		polls, orders, reports := source.counts()
		assert.Equal(t, pollsBefore, polls)
		assert.Equal(t, 1, orders)
		assert.Equal(t, 1, reports)
	})

	t.Run("refresh hook fires with the new snapshot", func(t *testing.T) {
		t.Parallel()
		source := &fakeSource{marker: "t1"}
		var got *Snapshot
		s := prime(t, source, nil, func(snap Snapshot) { got = &snap })

		source.setMarker("t2")
		s.tick(context.Background())

		require.NotNil(t, got)
		require.Len(t, got.Orders, 1)
		assert.Equal(t, "ORD-1", got.Orders[0].OrderID)
	})
}

func TestSynchronizerInvalidate(t *testing.T) {
	t.Parallel()

	source := &fakeSource{marker: "t1"}
	store := newTestStore(t)
	s := New(source, store, time.Minute, nil, nil)
	ctx := context.Background()
	require.NoError(t, s.Prime(ctx))

	s.Invalidate(ctx)

	var orders []models.OrderRecord
	_, ok, err := store.GetJSON(ctx, cache.KeyAdminOrders, &orders)
	require.NoError(t, err)
	assert.False(t, ok)

	// Any marker now counts as moved.
	s.tick(ctx)
	_, orderCalls, _ := source.counts()
	assert.Equal(t, 2, orderCalls)
}

func TestSynchronizerPersistsAcrossRestarts(t *testing.T) {
	t.Parallel()

	source := &fakeSource{marker: "t1"}
	store := newTestStore(t)
	ctx := context.Background()

	first := New(source, store, time.Minute, nil, nil)
	require.NoError(t, first.Prime(ctx))

	second := New(source, store, time.Minute, nil, nil)
	require.NoError(t, second.Prime(ctx))

	// The second instance found both datasets on disk.
	_, orders, reports := source.counts()
	assert.Equal(t, 1, orders)
	assert.Equal(t, 1, reports)
	require.Len(t, second.Snapshot().Orders, 1)
}
