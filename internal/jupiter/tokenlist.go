package jupiter

import (
	"context"
	"math"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/wnt/lpscout/internal/metrics"
	"github.com/wnt/lpscout/internal/utils"
)

// Token is a single entry from the Jupiter token list
type Token struct {
	Address  string   `json:"address"`
	ChainID  int      `json:"chainId"`
	Decimals int      `json:"decimals"`
	Name     string   `json:"name"`
	Symbol   string   `json:"symbol"`
	Tags     []string `json:"tags"`
}

// TokenMap indexes tokens by mint address
type TokenMap map[string]Token

// Client exposes the Jupiter token lists and price API
type Client struct {
	strictFetcher utils.Fetcher
	allFetcher    utils.Fetcher
	priceFetcher  utils.Fetcher
	logger        zerolog.Logger
}

// NewClient creates a client over the strict list, full list and price endpoints
func NewClient(strictURL, allURL, priceURL string, logger zerolog.Logger) *Client {
	return &Client{
		strictFetcher: utils.NewHTTPClient(utils.WithBaseURL(strictURL)),
		allFetcher:    utils.NewHTTPClient(utils.WithBaseURL(allURL)),
		priceFetcher:  utils.NewHTTPClient(utils.WithBaseURL(priceURL)),
		logger:        logger.With().Str("component", "jupiter").Logger(),
	}
}

// NewClientWithFetchers creates a client around injected fetchers
func NewClientWithFetchers(strict, all, price utils.Fetcher, logger zerolog.Logger) *Client {
	return &Client{
		strictFetcher: strict,
		allFetcher:    all,
		priceFetcher:  price,
		logger:        logger.With().Str("component", "jupiter").Logger(),
	}
}

// GetStrictList fetches the curated strict token list
func (c *Client) GetStrictList(ctx context.Context) (TokenMap, error) {
	return c.getList(ctx, c.strictFetcher)
}

// GetAllList fetches the unfiltered token list
func (c *Client) GetAllList(ctx context.Context) (TokenMap, error) {
	return c.getList(ctx, c.allFetcher)
}

func (c *Client) getList(ctx context.Context, fetcher utils.Fetcher) (TokenMap, error) {
	response, err := fetcher.Get(ctx, "", nil, nil)
	if err != nil {
		metrics.RecordAPIRequest("jupiter", "failed")
		return nil, err
	}

	var tokens []Token
	if err := response.DecodeJSON(&tokens); err != nil {
		metrics.RecordAPIRequest("jupiter", "failed")
		return nil, err
	}
	metrics.RecordAPIRequest("jupiter", "success")

	tokenMap := make(TokenMap, len(tokens))
	for _, token := range tokens {
		tokenMap[token.Address] = token
	}
	return tokenMap, nil
}

// LamportsToDecimal converts a raw token amount string to its decimal value.
// Unparsable amounts convert to zero.
func LamportsToDecimal(raw string, decimals int) float64 {
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return amount / math.Pow10(decimals)
}
