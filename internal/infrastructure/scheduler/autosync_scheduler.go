// Package scheduler runs background dispatch for tenants that enabled
// auto-sync on their bridge configuration.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/fieldops/backend/internal/application/ledgersync"
	"github.com/fieldops/backend/internal/domain/ledgersync"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/infrastructure/runlock"
)

// Dispatcher runs one dispatch batch for a tenant
type Dispatcher interface {
	ProcessBatch(ctx context.Context, tenantID uuid.UUID, maxItems int) (*appsync.DispatchBatchResult, error)
}

// Config holds auto-sync scheduler settings
type Config struct {
	// Enabled turns the scheduler on
	Enabled bool
	// TickInterval is how often tenant configurations are scanned
	TickInterval time.Duration
	// WorkerCount bounds concurrent tenant dispatch runs
	WorkerCount int
	// BatchSize is the number of items claimed per tenant run
	BatchSize int
}

// ErrInvalidConfig is returned for a non-positive tick interval or worker count
var ErrInvalidConfig = errors.New("invalid auto-sync scheduler configuration")

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.TickInterval <= 0 || c.WorkerCount <= 0 || c.BatchSize <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// tenantJob is one scheduled dispatch run
type tenantJob struct {
	tenantID uuid.UUID
}

// AutoSyncScheduler periodically dispatches pending sync items for every
// tenant whose bridge configuration has auto-sync enabled, honoring each
// tenant's configured interval. A per-tenant run lock skips a tenant whose
// previous run is still in flight, on this or any other instance.
type AutoSyncScheduler struct {
	config     Config
	configRepo ledgersync.BridgeConfigRepository
	dispatcher Dispatcher
	lock       runlock.RunLock
	logger     *zap.Logger

	jobs      chan tenantJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunMu sync.Mutex
	lastRun   map[uuid.UUID]time.Time
}

// NewAutoSyncScheduler creates a new scheduler
func NewAutoSyncScheduler(
	config Config,
	configRepo ledgersync.BridgeConfigRepository,
	dispatcher Dispatcher,
	lock runlock.RunLock,
	logger *zap.Logger,
) (*AutoSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoSyncScheduler{
		config:     config,
		configRepo: configRepo,
		dispatcher: dispatcher,
		lock:       lock,
		logger:     logger,
		jobs:       make(chan tenantJob, 100),
		lastRun:    make(map[uuid.UUID]time.Time),
	}, nil
}

// Start launches the scan loop and the worker pool. A disabled scheduler
// starts nothing and returns nil.
func (s *AutoSyncScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("auto-sync scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.wg.Add(1)
	go s.scanLoop(ctx)

	s.logger.Info("auto-sync scheduler started",
		zap.Duration("tick_interval", s.config.TickInterval),
		zap.Int("workers", s.config.WorkerCount),
		zap.Int("batch_size", s.config.BatchSize),
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for in-flight runs up to the
// context deadline.
func (s *AutoSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("auto-sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("auto-sync scheduler stop timed out")
		return ctx.Err()
	}
}

// scanLoop periodically scans tenant configurations and submits due tenants
func (s *AutoSyncScheduler) scanLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

// scan submits one job per tenant whose interval has elapsed
func (s *AutoSyncScheduler) scan(ctx context.Context) {
	configs, err := s.configRepo.FindAutoSyncEnabled(ctx)
	if err != nil {
		s.logger.Error("failed to scan auto-sync configurations", zap.Error(err))
		return
	}

	now := time.Now()
	for _, cfg := range configs {
		if !cfg.IsConfigured() {
			continue
		}
		if !s.markDue(cfg.TenantID, cfg.SyncInterval, now) {
			continue
		}
		select {
		case s.jobs <- tenantJob{tenantID: cfg.TenantID}:
		default:
			// Queue full: the tenant's next tick picks it up again
			s.clearLastRun(cfg.TenantID)
			s.logger.Warn("auto-sync job queue full",
				zap.String("tenant_id", cfg.TenantID.String()),
			)
		}
	}
}

// markDue records the submission time when the tenant's interval has
// elapsed, preventing duplicate submissions on subsequent ticks.
func (s *AutoSyncScheduler) markDue(tenantID uuid.UUID, interval time.Duration, now time.Time) bool {
	s.lastRunMu.Lock()
	defer s.lastRunMu.Unlock()
	if last, ok := s.lastRun[tenantID]; ok && now.Sub(last) < interval {
		return false
	}
	s.lastRun[tenantID] = now
	return true
}

func (s *AutoSyncScheduler) clearLastRun(tenantID uuid.UUID) {
	s.lastRunMu.Lock()
	defer s.lastRunMu.Unlock()
	delete(s.lastRun, tenantID)
}

// worker drains the job channel, one tenant run at a time
func (s *AutoSyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.runTenant(ctx, job.tenantID, workerID)
		}
	}
}

// runTenant dispatches one batch for a tenant under its run lock
func (s *AutoSyncScheduler) runTenant(ctx context.Context, tenantID uuid.UUID, workerID int) {
	acquired, err := s.lock.Acquire(ctx, tenantID.String())
	if err != nil {
		s.logger.Error("failed to acquire sync run lock",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return
	}
	if !acquired {
		s.logger.Debug("sync run already in progress, skipping",
			zap.String("tenant_id", tenantID.String()),
		)
		return
	}
	defer func() {
		if err := s.lock.Release(ctx, tenantID.String()); err != nil {
			s.logger.Warn("failed to release sync run lock",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}()

	result, err := s.dispatcher.ProcessBatch(ctx, tenantID, s.config.BatchSize)
	if err != nil {
		if errors.Is(err, shared.ErrNotConfigured) {
			s.logger.Debug("tenant bridge no longer configured",
				zap.String("tenant_id", tenantID.String()),
			)
			return
		}
		s.logger.Error("scheduled dispatch run failed",
			zap.Int("worker_id", workerID),
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return
	}

	if result.Claimed > 0 {
		s.logger.Info("scheduled dispatch run finished",
			zap.Int("worker_id", workerID),
			zap.String("tenant_id", tenantID.String()),
			zap.Int("claimed", result.Claimed),
			zap.Int("delivered", result.Delivered),
			zap.Int("failed", result.Failed),
		)
	}
}
