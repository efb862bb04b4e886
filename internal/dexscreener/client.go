package dexscreener

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wnt/lpscout/internal/metrics"
	"github.com/wnt/lpscout/internal/utils"
	"golang.org/x/sync/errgroup"
)

// Client talks to the DEX Screener pairs endpoint. Addresses are batched so
// no request carries more than maxPerBatch addresses or exceeds maxURLLength
// characters. A batch that fails to fetch or parse is logged and skipped;
// the remaining batches still contribute (partial-result tolerance).
type Client struct {
	fetcher      utils.Fetcher
	baseURL      string
	maxPerBatch  int
	maxURLLength int
	logger       zerolog.Logger
}

// NewClient creates a new client for the DEX Screener API
func NewClient(baseURL string, maxPerBatch, maxURLLength int, logger zerolog.Logger) *Client {
	return &Client{
		fetcher:      utils.NewHTTPClient(utils.WithBaseURL(baseURL)),
		baseURL:      baseURL,
		maxPerBatch:  maxPerBatch,
		maxURLLength: maxURLLength,
		logger:       logger.With().Str("component", "dexscreener").Logger(),
	}
}

// NewClientWithFetcher creates a client around an injected fetcher
func NewClientWithFetcher(fetcher utils.Fetcher, maxPerBatch, maxURLLength int, logger zerolog.Logger) *Client {
	return &Client{
		fetcher:      fetcher,
		maxPerBatch:  maxPerBatch,
		maxURLLength: maxURLLength,
		logger:       logger.With().Str("component", "dexscreener").Logger(),
	}
}

// GetPairs fetches pair data for the given addresses. Results are reassembled
// in batch order regardless of which fetch completes first.
func (c *Client) GetPairs(ctx context.Context, addresses []string) ([]Pair, error) {
	batches := BatchAddresses(c.baseURL, addresses, c.maxPerBatch, c.maxURLLength)

	results := make([][]Pair, len(batches))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, batch := range batches {
		i, batch := i, batch
		eg.Go(func() error {
			path := "/" + strings.Join(batch, ",")

			response, err := c.fetcher.Get(egCtx, path, nil, nil)
			if err != nil {
				c.logger.Warn().Err(err).Int("batch", i).Int("addresses", len(batch)).Msg("Batch fetch failed, skipping")
				metrics.RecordAPIRequest("dexscreener", "failed")
				return nil
			}

			var data apiData
			if err := response.DecodeJSON(&data); err != nil || data.Pairs == nil {
				c.logger.Warn().Int("batch", i).Int("addresses", len(batch)).Msg("Batch response missing pairs, skipping")
				metrics.RecordAPIRequest("dexscreener", "failed")
				return nil
			}

			results[i] = data.Pairs
			metrics.RecordAPIRequest("dexscreener", "success")
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var pairs []Pair
	for _, batchPairs := range results {
		pairs = append(pairs, batchPairs...)
	}
	return pairs, nil
}
