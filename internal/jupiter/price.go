package jupiter

import (
	"context"
	"strings"

	"github.com/wnt/lpscout/internal/metrics"
)

type priceData struct {
	Data map[string]struct {
		ID    string  `json:"id"`
		Price float64 `json:"price"`
	} `json:"data"`
}

// GetPrices fetches USD prices for the given mints, keyed by mint address.
// Mints the API does not know are absent from the result.
func (c *Client) GetPrices(ctx context.Context, mints []string) (map[string]float64, error) {
	if len(mints) == 0 {
		return map[string]float64{}, nil
	}

	response, err := c.priceFetcher.Get(ctx, "", map[string]string{
		"ids": strings.Join(mints, ","),
	}, nil)
	if err != nil {
		metrics.RecordAPIRequest("jupiter", "failed")
		return nil, err
	}

	var data priceData
	if err := response.DecodeJSON(&data); err != nil {
		metrics.RecordAPIRequest("jupiter", "failed")
		return nil, err
	}
	metrics.RecordAPIRequest("jupiter", "success")

	prices := make(map[string]float64, len(data.Data))
	for mint, entry := range data.Data {
		prices[mint] = entry.Price
	}
	return prices, nil
}
