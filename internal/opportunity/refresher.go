package opportunity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnt/lpscout/internal/metrics"
)

// Snapshot is an immutable ranked opportunity list with its build time
type Snapshot struct {
	UpdatedAt     time.Time
	Opportunities []Opportunity
}

// Refresher rebuilds the opportunity snapshot on a fixed interval. A failed
// scan keeps the previous snapshot in place; readers never observe a partial
// or empty list because of an upstream outage.
type Refresher struct {
	engine   *Engine
	interval time.Duration
	logger   zerolog.Logger

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewRefresher creates a refresher around the engine
func NewRefresher(engine *Engine, interval time.Duration, logger zerolog.Logger) *Refresher {
	return &Refresher{
		engine:   engine,
		interval: interval,
		logger:   logger.With().Str("component", "refresher").Logger(),
	}
}

// Snapshot returns the most recent successful snapshot
func (r *Refresher) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Run refreshes immediately, then on every tick until the context ends
func (r *Refresher) Run(ctx context.Context) {
	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	started := time.Now()
	opportunities, err := r.engine.Scan(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Refresh failed, keeping previous snapshot")
		return
	}

	r.mu.Lock()
	r.snapshot = Snapshot{UpdatedAt: time.Now(), Opportunities: opportunities}
	r.mu.Unlock()

	metrics.RecordRefresh(time.Since(started).Seconds())
	metrics.OpportunityCount.Set(float64(len(opportunities)))
	metrics.SnapshotAge.Set(0)
	r.logger.Info().
		Int("opportunities", len(opportunities)).
		Dur("elapsed", time.Since(started)).
		Msg("Snapshot refreshed")
}
