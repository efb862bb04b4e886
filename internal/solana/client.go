package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/wnt/lpscout/internal/metrics"
	"golang.org/x/time/rate"
)

// ErrNoPositionData means the position account does not exist on chain or
// carries no usable data. Callers treat this as a closed position, not a
// failure.
var ErrNoPositionData = errors.New("no position account data")

// Client represents a rate-limited connection to the Solana blockchain.
// Every RPC call waits for limiter capacity; requests queue rather than drop.
type Client struct {
	rpcClient *rpc.Client
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

// NewClient creates a new Solana client against the given endpoint
func NewClient(endpoint string, maxTPS int, logger zerolog.Logger) *Client {
	return &Client{
		rpcClient: rpc.New(endpoint),
		limiter:   rate.NewLimiter(rate.Limit(maxTPS), maxTPS),
		logger:    logger.With().Str("component", "solana").Logger(),
	}
}

// GetTransaction fetches and decodes a confirmed transaction by signature
func (c *Client) GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %s: %w", signature, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	maxVersion := uint64(0)
	out, err := c.rpcClient.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		metrics.RecordRPCRequest("failed")
		return nil, fmt.Errorf("failed to fetch transaction %s: %w", signature, err)
	}
	if out == nil || out.Transaction == nil {
		metrics.RecordRPCRequest("failed")
		return nil, fmt.Errorf("transaction not found: %s", signature)
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		metrics.RecordRPCRequest("failed")
		return nil, fmt.Errorf("failed to decode transaction %s: %w", signature, err)
	}

	metrics.RecordRPCRequest("success")
	return tx, nil
}
