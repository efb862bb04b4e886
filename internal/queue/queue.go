package queue

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	positionQueueKey    = "position_queue"
	positionInflightKey = "position_inflight"
)

// Client wraps the Redis operations behind the position backfill queue.
// The queue is a sorted set so positions can carry a priority; in-flight
// tracking lets stuck positions be requeued after a worker dies.
type Client struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewClient creates a new Redis queue client
func NewClient(redisURL string, logger zerolog.Logger) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().Msg("Connected to Redis successfully")

	return &Client{
		client: client,
		logger: logger.With().Str("component", "queue").Logger(),
	}, nil
}

// PopPosition removes and returns the position with the lowest score
// (highest priority). An empty queue returns "", nil.
func (c *Client) PopPosition(ctx context.Context) (string, error) {
	result, err := c.client.ZPopMin(ctx, positionQueueKey, 1).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to pop position from queue: %w", err)
	}

	if len(result) == 0 {
		return "", nil
	}

	position := result[0].Member.(string)
	c.logger.Debug().Str("position", position).Msg("Popped position from queue")
	return position, nil
}

// PushPosition adds a position to the queue with the specified priority
func (c *Client) PushPosition(ctx context.Context, address string, priority float64) error {
	err := c.client.ZAdd(ctx, positionQueueKey, redis.Z{
		Score:  priority,
		Member: address,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to push position to queue: %w", err)
	}

	c.logger.Debug().
		Str("position", address).
		Float64("priority", priority).
		Msg("Pushed position to queue")

	return nil
}

// SetInFlight marks a position as being processed by a worker
func (c *Client) SetInFlight(ctx context.Context, address, worker string) error {
	value := fmt.Sprintf("%s,%d", worker, time.Now().Unix())
	if err := c.client.HSet(ctx, positionInflightKey, address, value).Err(); err != nil {
		return fmt.Errorf("failed to set position in-flight: %w", err)
	}

	c.logger.Debug().
		Str("position", address).
		Str("worker", worker).
		Msg("Marked position as in-flight")

	return nil
}

// RemoveInFlight removes a position from the in-flight tracking
func (c *Client) RemoveInFlight(ctx context.Context, address string) error {
	if err := c.client.HDel(ctx, positionInflightKey, address).Err(); err != nil {
		return fmt.Errorf("failed to remove position from in-flight: %w", err)
	}

	c.logger.Debug().Str("position", address).Msg("Removed position from in-flight")
	return nil
}

// GetQueueLength returns the number of positions in the queue
func (c *Client) GetQueueLength(ctx context.Context) (int64, error) {
	length, err := c.client.ZCard(ctx, positionQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return length, nil
}

// GetInFlightPositions returns all positions currently being processed
func (c *Client) GetInFlightPositions(ctx context.Context) (map[string]string, error) {
	result, err := c.client.HGetAll(ctx, positionInflightKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get in-flight positions: %w", err)
	}
	return result, nil
}

// RequeueStuckPositions moves positions that have been in-flight too long
// back to the queue
func (c *Client) RequeueStuckPositions(ctx context.Context, timeoutMinutes int) error {
	inFlight, err := c.GetInFlightPositions(ctx)
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-time.Duration(timeoutMinutes) * time.Minute).Unix()
	requeuedCount := 0

	for position, value := range inFlight {
		parts := strings.SplitN(value, ",", 2)
		if len(parts) != 2 {
			c.logger.Warn().Str("position", position).Str("value", value).Msg("Invalid in-flight value format")
			continue
		}

		startTime, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			c.logger.Warn().Str("position", position).Str("value", value).Msg("Invalid timestamp in in-flight value")
			continue
		}

		if startTime < cutoff {
			if err := c.PushPosition(ctx, position, 0); err != nil {
				c.logger.Error().Err(err).Str("position", position).Msg("Failed to requeue stuck position")
				continue
			}
			if err := c.RemoveInFlight(ctx, position); err != nil {
				c.logger.Error().Err(err).Str("position", position).Msg("Failed to remove requeued position from in-flight")
			}

			requeuedCount++
			c.logger.Info().
				Str("position", position).
				Str("worker", parts[0]).
				Int64("stuck_minutes", (time.Now().Unix()-startTime)/60).
				Msg("Requeued stuck position")
		}
	}

	if requeuedCount > 0 {
		c.logger.Info().Int("count", requeuedCount).Msg("Requeued stuck positions")
	}

	return nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}
