/*
scheduler.go - Automated rollup reconciliation

PURPOSE:
  Periodically recomputes the monthly rollups of every KPI that derives its
  monthly total from weekly or daily entries. A write normally recomputes
  its own month, but two submitters racing on the same KPI can leave a
  stale total behind; the recompute is idempotent, so re-running it heals
  the total.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Covers the month being filed and the running calendar month
  - Runs once immediately on Start

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRollupScheduler(tracker, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - kpi/tracker.go: ReconcileRollups
  - kpi/aggregation.go: RecomputeMonth
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/kpi-engine/kpi"
)

// RollupScheduler re-runs monthly rollups on a ticker.
type RollupScheduler struct {
	Tracker       *kpi.Tracker
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun time.Time
}

// NewRollupScheduler creates a new scheduler.
func NewRollupScheduler(tracker *kpi.Tracker, logger *zap.Logger) *RollupScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RollupScheduler{
		Tracker:       tracker,
		Logger:        logger,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (rs *RollupScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("rollup scheduler disabled", zap.String("op", "api.RollupScheduler"))
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.Logger.Info("rollup scheduler started",
		zap.String("op", "api.RollupScheduler"),
		zap.Duration("interval", rs.CheckInterval),
	)
}

// Stop stops the scheduler and waits for a running pass to finish.
func (rs *RollupScheduler) Stop() {
	rs.mu.Lock()
	if rs.ticker == nil {
		rs.mu.Unlock()
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.ticker = nil
	rs.mu.Unlock()

	rs.wg.Wait()
	rs.Logger.Info("rollup scheduler stopped", zap.String("op", "api.RollupScheduler"))
}

func (rs *RollupScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.RunNow()

	for {
		select {
		case <-ticker.C:
			rs.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow performs one reconciliation pass and returns the number of
// rollups written.
func (rs *RollupScheduler) RunNow() int {
	start := time.Now()
	n, err := rs.Tracker.ReconcileRollups(context.Background())

	rs.mu.Lock()
	rs.lastRun = start
	rs.mu.Unlock()

	if err != nil {
		rs.Logger.Error("rollup reconciliation failed",
			zap.String("op", "api.RollupScheduler"),
			zap.Int("written", n),
			zap.Error(err),
		)
		return n
	}
	rs.Logger.Debug("rollup reconciliation done",
		zap.String("op", "api.RollupScheduler"),
		zap.Int("written", n),
		zap.Duration("elapsed", time.Since(start)),
	)
	return n
}

// GetNextRunTime returns when the next scheduled pass will occur.
func (rs *RollupScheduler) GetNextRunTime() time.Time {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.lastRun.IsZero() {
		return time.Now().Add(rs.CheckInterval)
	}
	return rs.lastRun.Add(rs.CheckInterval)
}
