package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// SyncSchedulerConfig holds configuration for the display sync scheduler.
type SyncSchedulerConfig struct {
	// Interval is how often both catalog listings are re-reconciled.
	// Default: 5 minutes.
	Interval time.Duration
}

// SyncScheduler periodically re-reconciles both shop listings with
// catalog state, so a listing that drifted (failed resync, manual edit on
// the surface) heals without host intervention. Individual syncs are
// idempotent, so the schedule is safe at any frequency.
type SyncScheduler struct {
	display   *DisplayService
	config    SyncSchedulerConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewSyncScheduler creates a new display sync scheduler.
func NewSyncScheduler(display *DisplayService, config SyncSchedulerConfig) *SyncScheduler {
	if config.Interval == 0 {
		config.Interval = 5 * time.Minute
	}
	return &SyncScheduler{
		display: display,
		config:  config,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *SyncScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[SyncScheduler] Started - Interval: %v", s.config.Interval)

	go s.run()
}

// run is the main scheduler loop.
func (s *SyncScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runSync()
		case <-s.stopCh:
			log.Printf("[SyncScheduler] Stopped")
			return
		}
	}
}

// runSync performs one reconciliation pass. A panic in a single pass is
// logged and absorbed; the schedule keeps running.
func (s *SyncScheduler) runSync() {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[SyncScheduler] Recovered from panic during scheduled sync: %v", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.display.ReconcileAll(ctx); err != nil {
		log.Printf("[SyncScheduler] Error during scheduled sync: %v", err)
	}
}

// Stop stops the scheduler.
func (s *SyncScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

// RunNow triggers an immediate reconciliation pass.
func (s *SyncScheduler) RunNow(ctx context.Context) error {
	return s.display.ReconcileAll(ctx)
}
