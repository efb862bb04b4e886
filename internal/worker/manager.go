package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wnt/lpscout/internal/config"
	"github.com/wnt/lpscout/internal/metrics"
	"github.com/wnt/lpscout/internal/queue"
	"golang.org/x/sync/errgroup"
)

// Seeder lists stored positions that need a backfill pass
type Seeder interface {
	MissingTransactionPositions(ctx context.Context) ([]string, error)
}

// Manager manages a dynamic pool of backfill workers. It scales the pool
// with queue depth, seeds the queue from the store and requeues positions
// whose worker died mid-flight.
type Manager struct {
	config     *config.Config
	queue      *queue.Client
	backfiller Backfiller
	seeder     Seeder
	workers    []*Worker
	logger     zerolog.Logger
	mutex      sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	eg         *errgroup.Group
	stopped    bool
}

// NewManager creates a new worker manager
func NewManager(cfg *config.Config, queueClient *queue.Client, backfiller Backfiller, seeder Seeder, logger zerolog.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	eg, egCtx := errgroup.WithContext(ctx)

	return &Manager{
		config:     cfg,
		queue:      queueClient,
		backfiller: backfiller,
		seeder:     seeder,
		workers:    make([]*Worker, 0),
		logger:     logger.With().Str("component", "worker_manager").Logger(),
		ctx:        egCtx,
		cancel:     cancel,
		eg:         eg,
	}
}

// Start begins the worker manager lifecycle
func (m *Manager) Start() error {
	m.logger.Info().
		Int("min_workers", m.config.MinWorkers).
		Int("max_workers", m.config.MaxWorkers).
		Msg("Starting worker manager")

	if err := m.adjustWorkerCount(); err != nil {
		return fmt.Errorf("failed to start initial workers: %w", err)
	}

	m.eg.Go(func() error {
		return m.runScalingLoop()
	})

	m.eg.Go(func() error {
		return m.runStuckPositionRecovery()
	})

	m.eg.Go(func() error {
		return m.runSeedLoop()
	})

	m.logger.Info().Msg("Worker manager started successfully")
	return nil
}

// Stop gracefully shuts down the worker manager
func (m *Manager) Stop() error {
	m.mutex.Lock()
	if m.stopped {
		m.mutex.Unlock()
		return nil
	}
	m.stopped = true
	m.mutex.Unlock()

	m.logger.Info().Msg("Stopping worker manager...")
	m.cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.eg.Wait()
	}()

	select {
	case err := <-done:
		if err != nil && err != context.Canceled {
			m.logger.Error().Err(err).Msg("Error during worker shutdown")
		}
	case <-time.After(30 * time.Second):
		m.logger.Warn().Msg("Worker shutdown timed out")
	}

	m.mutex.Lock()
	m.workers = nil
	m.mutex.Unlock()

	metrics.WorkersActive.Set(0)
	m.logger.Info().Msg("Worker manager stopped")
	return nil
}

// runScalingLoop adjusts the pool size every 30 seconds
func (m *Manager) runScalingLoop() error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return m.ctx.Err()
		case <-ticker.C:
			if err := m.adjustWorkerCount(); err != nil {
				m.logger.Error().Err(err).Msg("Failed to adjust worker count")
			}
		}
	}
}

// runSeedLoop periodically queues stored positions that lack transactions
func (m *Manager) runSeedLoop() error {
	// Seed once at startup, then on the refresh interval
	m.seedQueue()

	ticker := time.NewTicker(m.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return m.ctx.Err()
		case <-ticker.C:
			m.seedQueue()
		}
	}
}

func (m *Manager) seedQueue() {
	addresses, err := m.seeder.MissingTransactionPositions(m.ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to list positions missing transactions")
		return
	}

	for _, address := range addresses {
		if err := m.queue.PushPosition(m.ctx, address, 0); err != nil {
			m.logger.Error().Err(err).Str("position", address).Msg("Failed to queue position for backfill")
		}
	}

	if len(addresses) > 0 {
		m.logger.Info().Int("count", len(addresses)).Msg("Queued positions for backfill")
	}
}

// adjustWorkerCount scales workers based on queue length
func (m *Manager) adjustWorkerCount() error {
	queueLength, err := m.queue.GetQueueLength(m.ctx)
	if err != nil {
		return fmt.Errorf("failed to get queue length: %w", err)
	}

	metrics.PositionQueueLength.Set(float64(queueLength))

	desiredWorkers := m.calculateDesiredWorkers(int(queueLength))

	m.mutex.Lock()
	currentWorkers := len(m.workers)
	m.mutex.Unlock()

	if desiredWorkers == currentWorkers {
		return nil
	}

	m.logger.Info().
		Int("current_workers", currentWorkers).
		Int("desired_workers", desiredWorkers).
		Int64("queue_length", queueLength).
		Msg("Adjusting worker count")

	if desiredWorkers > currentWorkers {
		return m.addWorkers(desiredWorkers - currentWorkers)
	}
	return m.removeWorkers(currentWorkers - desiredWorkers)
}

// calculateDesiredWorkers determines pool size from queue length, one
// worker per 10 queued positions within the configured bounds
func (m *Manager) calculateDesiredWorkers(queueLength int) int {
	desired := queueLength / 10
	if desired < m.config.MinWorkers {
		desired = m.config.MinWorkers
	}
	if desired > m.config.MaxWorkers {
		desired = m.config.MaxWorkers
	}
	return desired
}

// addWorkers creates and starts new workers
func (m *Manager) addWorkers(count int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i := 0; i < count; i++ {
		// Random ids keep in-flight ownership unambiguous across
		// scale-down and scale-up cycles
		workerID := fmt.Sprintf("worker-%s", uuid.NewString()[:8])
		worker := NewWorker(workerID, m.queue, m.backfiller, m.logger)

		m.eg.Go(func() error {
			return worker.Start(m.ctx)
		})

		m.workers = append(m.workers, worker)
	}

	metrics.WorkersActive.Set(float64(len(m.workers)))
	m.logger.Info().
		Int("added", count).
		Int("total_workers", len(m.workers)).
		Msg("Workers added")
	return nil
}

// removeWorkers gracefully stops and removes workers
func (m *Manager) removeWorkers(count int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if count > len(m.workers) {
		count = len(m.workers)
	}

	// Stopped workers finish their current position before exiting
	workersToRemove := m.workers[len(m.workers)-count:]
	for _, worker := range workersToRemove {
		worker.Stop()
	}
	m.workers = m.workers[:len(m.workers)-count]

	metrics.WorkersActive.Set(float64(len(m.workers)))
	m.logger.Info().
		Int("removed", count).
		Int("remaining_workers", len(m.workers)).
		Msg("Workers removed")
	return nil
}

// runStuckPositionRecovery periodically requeues stuck positions
func (m *Manager) runStuckPositionRecovery() error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return m.ctx.Err()
		case <-ticker.C:
			if err := m.queue.RequeueStuckPositions(m.ctx, 15); err != nil {
				m.logger.Error().Err(err).Msg("Failed to requeue stuck positions")
			}
		}
	}
}
