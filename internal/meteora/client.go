package meteora

import (
	"context"
	"fmt"

	"github.com/wnt/lpscout/internal/metrics"
	"github.com/wnt/lpscout/internal/utils"
	"golang.org/x/time/rate"
)

// Client talks to the Meteora DLMM public API. All calls go through a shared
// rate limiter; when the cap is hit callers wait, they are never dropped.
type Client struct {
	fetcher utils.Fetcher
	limiter *rate.Limiter
}

// NewClient creates a new client for the Meteora public API
func NewClient(baseURL string, maxTPS int) *Client {
	return &Client{
		fetcher: utils.NewHTTPClient(
			utils.WithBaseURL(baseURL),
			utils.WithDefaultHeaders(map[string]string{
				"Content-Type": "application/json",
			}),
		),
		limiter: rate.NewLimiter(rate.Limit(maxTPS), maxTPS),
	}
}

// NewClientWithFetcher creates a client around an injected fetcher
func NewClientWithFetcher(fetcher utils.Fetcher, maxTPS int) *Client {
	return &Client{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Limit(maxTPS), maxTPS),
	}
}

func (c *Client) get(ctx context.Context, path string, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	response, err := c.fetcher.Get(ctx, path, nil, nil)
	if err != nil {
		metrics.RecordAPIRequest("meteora", "failed")
		return err
	}

	if err := response.DecodeJSON(target); err != nil {
		metrics.RecordAPIRequest("meteora", "failed")
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	metrics.RecordAPIRequest("meteora", "success")
	return nil
}

// GetAllPairs fetches all pairs
func (c *Client) GetAllPairs(ctx context.Context) ([]Pair, error) {
	var pairs []Pair
	if err := c.get(ctx, "/pair/all", &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// GetPair fetches a single pair by address
func (c *Client) GetPair(ctx context.Context, pairAddress string) (*Pair, error) {
	var pair Pair
	if err := c.get(ctx, fmt.Sprintf("/pair/%s", pairAddress), &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// GetPosition fetches a position summary by address
func (c *Client) GetPosition(ctx context.Context, positionAddress string) (*Position, error) {
	var position Position
	if err := c.get(ctx, fmt.Sprintf("/position/%s", positionAddress), &position); err != nil {
		return nil, err
	}
	return &position, nil
}

// GetDeposits fetches the deposit history for a position
func (c *Client) GetDeposits(ctx context.Context, positionAddress string) ([]DepositWithdraw, error) {
	var deposits []DepositWithdraw
	if err := c.get(ctx, fmt.Sprintf("/position/%s/deposits", positionAddress), &deposits); err != nil {
		return nil, err
	}
	return deposits, nil
}

// GetWithdraws fetches the withdraw history for a position
func (c *Client) GetWithdraws(ctx context.Context, positionAddress string) ([]DepositWithdraw, error) {
	var withdraws []DepositWithdraw
	if err := c.get(ctx, fmt.Sprintf("/position/%s/withdraws", positionAddress), &withdraws); err != nil {
		return nil, err
	}
	return withdraws, nil
}

// GetClaimFees fetches the fee claim history for a position
func (c *Client) GetClaimFees(ctx context.Context, positionAddress string) ([]ClaimFee, error) {
	var claimFees []ClaimFee
	if err := c.get(ctx, fmt.Sprintf("/position/%s/claim_fees", positionAddress), &claimFees); err != nil {
		return nil, err
	}
	return claimFees, nil
}

// GetClaimRewards fetches the reward claim history for a position
func (c *Client) GetClaimRewards(ctx context.Context, positionAddress string) ([]ClaimReward, error) {
	var claimRewards []ClaimReward
	if err := c.get(ctx, fmt.Sprintf("/position/%s/claim_rewards", positionAddress), &claimRewards); err != nil {
		return nil, err
	}
	return claimRewards, nil
}
