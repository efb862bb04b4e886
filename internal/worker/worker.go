package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnt/lpscout/internal/logger"
	"github.com/wnt/lpscout/internal/metrics"
	"github.com/wnt/lpscout/internal/queue"
)

// Backfiller repairs one stored position
type Backfiller interface {
	Backfill(ctx context.Context, positionAddress string) error
}

// Worker drains the backfill queue one position at a time
type Worker struct {
	id         string
	queue      *queue.Client
	backfiller Backfiller
	logger     zerolog.Logger
	stopped    atomic.Bool
}

// NewWorker creates a new worker instance
func NewWorker(id string, queueClient *queue.Client, backfiller Backfiller, baseLogger zerolog.Logger) *Worker {
	return &Worker{
		id:         id,
		queue:      queueClient,
		backfiller: backfiller,
		logger:     logger.WithWorker(baseLogger, id),
	}
}

// Start begins the worker processing loop
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().Msg("Starting worker")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Worker received shutdown signal")
			return ctx.Err()
		default:
			if w.stopped.Load() {
				w.logger.Info().Msg("Worker stopped")
				return nil
			}

			if err := w.processPosition(ctx); err != nil {
				w.logger.Error().Err(err).Msg("Failed to process position")

				// Brief pause to avoid tight error loops
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// Stop signals the worker to stop gracefully
func (w *Worker) Stop() {
	w.stopped.Store(true)
	w.logger.Info().Msg("Worker stop signal received")
}

// processPosition handles the complete lifecycle of one queued position
func (w *Worker) processPosition(ctx context.Context) error {
	position, err := w.queue.PopPosition(ctx)
	if err != nil {
		return fmt.Errorf("failed to pop position from queue: %w", err)
	}

	if position == "" {
		// Brief pause when queue is empty to avoid spinning
		select {
		case <-time.After(10 * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}

	if err := w.queue.SetInFlight(ctx, position, w.id); err != nil {
		w.logger.Error().Err(err).Str("position", position).Msg("Failed to mark position as in-flight")
		// Re-queue the position since we couldn't track it
		if requeueErr := w.queue.PushPosition(ctx, position, 0); requeueErr != nil {
			w.logger.Error().Err(requeueErr).Str("position", position).Msg("Failed to requeue position after in-flight error")
		}
		return err
	}

	positionLogger := logger.WithPosition(w.logger, position)
	startTime := time.Now()

	positionLogger.Info().Msg("Starting position backfill")

	err = w.backfiller.Backfill(ctx, position)
	duration := time.Since(startTime)

	metrics.RecordWorkerTaskDuration("position_backfill", w.id, duration.Seconds())

	if removeErr := w.queue.RemoveInFlight(ctx, position); removeErr != nil {
		positionLogger.Error().Err(removeErr).Msg("Failed to remove position from in-flight tracking")
	}

	if err != nil {
		metrics.RecordPositionProcessed("failed")
		positionLogger.Error().Err(err).Dur("duration", duration).Msg("Failed to backfill position")
		return err
	}

	metrics.RecordPositionProcessed("success")
	positionLogger.Info().Dur("duration", duration).Msg("Position backfill complete")
	return nil
}
