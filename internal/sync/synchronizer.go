// Package sync keeps the two heavy admin datasets (orders, reports) aligned
// with the remote change marker. Polling is cheap: one marker read per tick,
// with the expensive refetch only when the marker moves.
package sync

import (
	"context"
	"sync"
	"time"

	"gitlab.com/chanrith/orderdesk/internal/cache"
	"gitlab.com/chanrith/orderdesk/internal/logger"
	"gitlab.com/chanrith/orderdesk/internal/models"
)

// DataSource provides the marker and the heavy datasets.
type DataSource interface {
	GetLatestLogTimestamp(ctx context.Context) (string, error)
	GetAllOrders(ctx context.Context) ([]models.OrderRecord, error)
	GetReportData(ctx context.Context) (*models.ReportData, error)
}

// Snapshot is the current in-memory copy of the admin datasets.
type Snapshot struct {
	Orders  []models.OrderRecord
	Reports *models.ReportData
}

// Synchronizer polls the change marker and refreshes the admin datasets when
// it moves. Refresh failures are logged and swallowed: stale data stays
// usable, and the next tick tries again.
type Synchronizer struct {
	source   DataSource
	store    *cache.Store
	interval time.Duration

	// visible gates the poll: ticks are skipped while the admin view is not
	// on screen, so background tabs never pay for the marker read.
	visible   func() bool
	onRefresh func(Snapshot)

	mu       sync.Mutex
	marker   string
	orders   []models.OrderRecord
	reports  *models.ReportData
	inflight map[string]bool
}

// New creates a synchronizer. visible may be nil (always visible); onRefresh
// may be nil (no re-render hook).
func New(source DataSource, store *cache.Store, interval time.Duration, visible func() bool, onRefresh func(Snapshot)) *Synchronizer {
	if visible == nil {
		visible = func() bool { return true }
	}
	return &Synchronizer{
		source:    source,
		store:     store,
		interval:  interval,
		visible:   visible,
		onRefresh: onRefresh,
		inflight:  make(map[string]bool),
	}
}

// Prime establishes the change-marker baseline and loads the persisted
// datasets. If either dataset is missing from the cache a full refresh runs
// immediately; otherwise the cached copies are trusted until the marker moves.
func (s *Synchronizer) Prime(ctx context.Context) error {
	marker, err := s.source.GetLatestLogTimestamp(ctx)
	if err != nil {
		return err
	}

	var orders []models.OrderRecord
	_, haveOrders, err := s.store.GetJSON(ctx, cache.KeyAdminOrders, &orders)
	if err != nil {
		return err
	}
	var reports models.ReportData
	_, haveReports, err := s.store.GetJSON(ctx, cache.KeyAdminReports, &reports)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.marker = marker
	if haveOrders {
		s.orders = orders
	}
	if haveReports {
		s.reports = &reports
	}
	s.mu.Unlock()

	if !haveOrders || !haveReports {
		logger.Log.Info().
			Bool("orders_cached", haveOrders).
			Bool("reports_cached", haveReports).
			Msg("Admin cache incomplete, forcing refresh")
		return s.Refresh(ctx)
	}
	return nil
}

// Run polls until ctx is cancelled. One marker read per tick; a moved marker
// triggers a concurrent refresh of both datasets.
func (s *Synchronizer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Log.Info().Dur("interval", s.interval).Msg("Admin synchronizer started")
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Admin synchronizer stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Synchronizer) tick(ctx context.Context) {
	if !s.visible() {
		return
	}

	marker, err := s.source.GetLatestLogTimestamp(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Change marker poll failed")
		return
	}

	s.mu.Lock()
	changed := marker != s.marker
	s.mu.Unlock()
	if !changed {
		return
	}

	logger.Log.Info().Str("marker", marker).Msg("Remote data changed, refreshing admin caches")
	if err := s.Refresh(ctx); err != nil {
		logger.Log.Warn().Err(err).Msg("Admin cache refresh failed")
		return
	}

	s.mu.Lock()
	s.marker = marker
	s.mu.Unlock()

	if s.onRefresh != nil && s.visible() {
		s.onRefresh(s.Snapshot())
	}
}

// Refresh refetches both datasets concurrently and persists the results. A
// refresh already in flight for a dataset is not duplicated.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	var wg sync.WaitGroup
	var ordersErr, reportsErr error

	if s.begin(cache.KeyAdminOrders) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.end(cache.KeyAdminOrders)
			ordersErr = s.refreshOrders(ctx)
		}()
	}
	if s.begin(cache.KeyAdminReports) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.end(cache.KeyAdminReports)
			reportsErr = s.refreshReports(ctx)
		}()
	}
	wg.Wait()

	if ordersErr != nil {
		return ordersErr
	}
	return reportsErr
}

// Invalidate drops the cached datasets and the marker baseline, forcing the
// next Prime or Refresh to refetch. Used after admin writes that change the
// remote data out from under the cache.
func (s *Synchronizer) Invalidate(ctx context.Context) {
	if err := s.store.Invalidate(ctx, cache.KeyAdminOrders); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to drop cached orders")
	}
	if err := s.store.Invalidate(ctx, cache.KeyAdminReports); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to drop cached reports")
	}
	s.mu.Lock()
	s.marker = ""
	s.mu.Unlock()
}

// Snapshot returns the current in-memory datasets.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Orders: s.orders, Reports: s.reports}
}

func (s *Synchronizer) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[key] {
		return false
	}
	s.inflight[key] = true
	return true
}

func (s *Synchronizer) end(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

func (s *Synchronizer) refreshOrders(ctx context.Context) error {
	orders, err := s.source.GetAllOrders(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	if err := s.store.SetJSON(ctx, cache.KeyAdminOrders, orders); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to persist orders cache")
	}
	return nil
}

func (s *Synchronizer) refreshReports(ctx context.Context) error {
	reports, err := s.source.GetReportData(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.reports = reports
	s.mu.Unlock()
	if err := s.store.SetJSON(ctx, cache.KeyAdminReports, reports); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to persist reports cache")
	}
	return nil
}
