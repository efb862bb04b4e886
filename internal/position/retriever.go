package position

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/wnt/lpscout/internal/jupiter"
	"github.com/wnt/lpscout/internal/meteora"
	"github.com/wnt/lpscout/internal/metrics"
	"github.com/wnt/lpscout/internal/solana"
	"github.com/wnt/lpscout/internal/utils"
	"golang.org/x/sync/errgroup"
)

// HistorySource serves a position's summary, ledgers and pair data
type HistorySource interface {
	GetPair(ctx context.Context, pairAddress string) (*meteora.Pair, error)
	GetPosition(ctx context.Context, positionAddress string) (*meteora.Position, error)
	GetDeposits(ctx context.Context, positionAddress string) ([]meteora.DepositWithdraw, error)
	GetWithdraws(ctx context.Context, positionAddress string) ([]meteora.DepositWithdraw, error)
	GetClaimFees(ctx context.Context, positionAddress string) ([]meteora.ClaimFee, error)
	GetClaimRewards(ctx context.Context, positionAddress string) ([]meteora.ClaimReward, error)
}

// ChainSource resolves transactions and live position state on chain
type ChainSource interface {
	GetTransaction(ctx context.Context, signature string) (*solanago.Transaction, error)
	GetPositionHoldings(ctx context.Context, address string) (*solana.Holdings, error)
}

// TokenSource resolves token metadata and USD prices
type TokenSource interface {
	GetAllList(ctx context.Context) (jupiter.TokenMap, error)
	GetPrices(ctx context.Context, mints []string) (map[string]float64, error)
}

var inputSeparator = regexp.MustCompile(`[,\s]+`)

// Retriever turns raw user input into per-position profit summaries
type Retriever struct {
	meteora HistorySource
	chain   ChainSource
	tokens  TokenSource
	logger  zerolog.Logger
}

// NewRetriever creates a retriever over the given sources
func NewRetriever(meteora HistorySource, chain ChainSource, tokens TokenSource, logger zerolog.Logger) *Retriever {
	return &Retriever{
		meteora: meteora,
		chain:   chain,
		tokens:  tokens,
		logger:  logger.With().Str("component", "position").Logger(),
	}
}

// ParseInput splits raw input on commas and whitespace into position
// addresses (43 or 44 chars) and transaction signatures (87 or 88 chars).
// Anything else is dropped.
func ParseInput(raw string) (addresses, signatures []string) {
	for _, token := range inputSeparator.Split(strings.TrimSpace(raw), -1) {
		switch len(token) {
		case 43, 44:
			addresses = append(addresses, token)
		case 87, 88:
			signatures = append(signatures, token)
		}
	}
	return addresses, signatures
}

// ResolvePositions maps raw input to the position addresses it names,
// resolving transaction signatures through their DLMM account roles.
// Input naming no usable position yields (nil, nil), not an error. A
// signature whose transaction lacks any of the sender, pair or position
// roles contributes nothing.
func (r *Retriever) ResolvePositions(ctx context.Context, input string) ([]string, error) {
	addresses, signatures := ParseInput(input)
	if len(addresses) == 0 && len(signatures) == 0 {
		return nil, nil
	}

	for _, signature := range signatures {
		tx, err := r.chain.GetTransaction(ctx, signature)
		if err != nil {
			return nil, err
		}

		roles := solana.ExtractRoles(tx)
		if !roles.Complete() {
			r.logger.Debug().Str("signature", signature).Msg("Transaction has no complete position roles")
			continue
		}
		addresses = append(addresses, roles.Positions...)
	}

	addresses = utils.Unique(addresses)
	if len(addresses) == 0 {
		return nil, nil
	}
	return addresses, nil
}

// fetchHistory loads the summary and all four ledgers concurrently. Any
// sub-fetch failing means we cannot account for the position and the whole
// fetch fails.
func (r *Retriever) fetchHistory(ctx context.Context, address string) (*History, error) {
	var history History
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		summary, err := r.meteora.GetPosition(egCtx, address)
		if err != nil {
			return err
		}
		history.Summary = *summary
		return nil
	})
	eg.Go(func() error {
		var err error
		history.Deposits, err = r.meteora.GetDeposits(egCtx, address)
		return err
	})
	eg.Go(func() error {
		var err error
		history.Withdraws, err = r.meteora.GetWithdraws(egCtx, address)
		return err
	})
	eg.Go(func() error {
		var err error
		history.ClaimFees, err = r.meteora.GetClaimFees(egCtx, address)
		return err
	})
	eg.Go(func() error {
		var err error
		history.ClaimRewards, err = r.meteora.GetClaimRewards(egCtx, address)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch history for position %s: %w", address, err)
	}
	return &history, nil
}

func mintsFromPair(pair *meteora.Pair) Mints {
	mints := Mints{MintX: pair.MintX, MintY: pair.MintY}
	if valid := validRewardMint(pair.RewardMintX); valid != "" {
		mints.Reward1Mint = valid
	}
	if valid := validRewardMint(pair.RewardMintY); valid != "" {
		mints.Reward2Mint = valid
	}
	return mints
}

// validRewardMint filters out the system program sentinel a pair reports
// when a reward slot is unused
func validRewardMint(mint string) string {
	if mint == "" || mint == "11111111111111111111111111111111" {
		return ""
	}
	return mint
}

// Result couples a computed profit summary with the data it was derived
// from, so callers can persist the position without re-fetching anything
type Result struct {
	Summary ProfitSummary
	History History
	Mints   Mints
	Pair    meteora.Pair
	TokenX  jupiter.Token
	TokenY  jupiter.Token
}

// Summaries resolves input to positions and computes a profit summary per
// position. Unknown input yields (nil, nil). A position whose account no
// longer exists on chain is treated as closed; any other chain failure
// propagates.
func (r *Retriever) Summaries(ctx context.Context, input string) ([]Result, error) {
	positionAddresses, err := r.ResolvePositions(ctx, input)
	if err != nil {
		return nil, err
	}
	if positionAddresses == nil {
		return nil, nil
	}

	type resolved struct {
		history  *History
		mints    Mints
		pair     *meteora.Pair
		holdings *solana.Holdings
	}

	var positions []resolved
	mintSet := make(map[string]bool)

	for _, address := range positionAddresses {
		history, err := r.fetchHistory(ctx, address)
		if err != nil {
			r.logger.Warn().Err(err).Str("position", address).Msg("Skipping position, history unavailable")
			metrics.RecordPositionProcessed("failed")
			continue
		}

		pair, err := r.meteora.GetPair(ctx, history.Summary.PairAddress)
		if err != nil {
			r.logger.Warn().Err(err).Str("position", address).Msg("Skipping position, pair unavailable")
			metrics.RecordPositionProcessed("failed")
			continue
		}
		mints := mintsFromPair(pair)

		holdings, err := r.chain.GetPositionHoldings(ctx, address)
		if err != nil && !errors.Is(err, solana.ErrNoPositionData) {
			return nil, err
		}

		for _, mint := range []string{mints.MintX, mints.MintY, mints.Reward1Mint, mints.Reward2Mint} {
			if mint != "" {
				mintSet[mint] = true
			}
		}
		positions = append(positions, resolved{history: history, mints: mints, pair: pair, holdings: holdings})
	}

	if len(positions) == 0 {
		return nil, nil
	}

	mints := make([]string, 0, len(mintSet))
	for mint := range mintSet {
		mints = append(mints, mint)
	}

	tokens, err := r.tokens.GetAllList(ctx)
	if err != nil {
		return nil, err
	}
	prices, err := r.tokens.GetPrices(ctx, mints)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	results := make([]Result, 0, len(positions))
	for _, p := range positions {
		summary, err := ComputeProfit(*p.history, p.mints, p.holdings, tokens, prices, now)
		if err != nil {
			r.logger.Warn().Err(err).Str("position", p.history.Summary.Address).Msg("Skipping position, holdings cannot be priced")
			metrics.RecordPositionProcessed("failed")
			continue
		}
		results = append(results, Result{
			Summary: summary,
			History: *p.history,
			Mints:   p.mints,
			Pair:    *p.pair,
			TokenX:  tokens[p.mints.MintX],
			TokenY:  tokens[p.mints.MintY],
		})
		metrics.RecordPositionProcessed("success")
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results, nil
}
