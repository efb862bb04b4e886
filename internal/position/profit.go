package position

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wnt/lpscout/internal/jupiter"
	"github.com/wnt/lpscout/internal/meteora"
	"github.com/wnt/lpscout/internal/solana"
)

type balanceChange struct {
	timestampMs int64
	changeUSD   float64
}

// BuildBalances merges a position's deposits and withdrawals into ordered
// constant-balance intervals. Each interval runs from its own change to the
// next one; the last interval runs to now for an open position and is zero
// width for a closed one, so a closed position's final balance carries no
// time weight.
func BuildBalances(deposits, withdraws []meteora.DepositWithdraw, open bool, now time.Time) []BalanceInterval {
	changes := make([]balanceChange, 0, len(deposits)+len(withdraws))
	for _, tx := range deposits {
		changes = append(changes, balanceChange{
			timestampMs: tx.OnchainTimestamp * 1000,
			changeUSD:   tx.USDAmount(),
		})
	}
	for _, tx := range withdraws {
		changes = append(changes, balanceChange{
			timestampMs: tx.OnchainTimestamp * 1000,
			changeUSD:   -tx.USDAmount(),
		})
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].timestampMs < changes[j].timestampMs
	})

	balances := make([]BalanceInterval, 0, len(changes))
	runningBalance := 0.0
	for i, change := range changes {
		runningBalance += change.changeUSD

		closedAt := change.timestampMs
		if i+1 < len(changes) {
			closedAt = changes[i+1].timestampMs
		}

		transactionType := "deposit"
		if change.changeUSD <= 0 {
			transactionType = "withdraw"
		}

		balances = append(balances, BalanceInterval{
			OpenedAtMs:      change.timestampMs,
			ClosedAtMs:      closedAt,
			TransactionType: transactionType,
			ChangeUSD:       change.changeUSD,
			BalanceUSD:      runningBalance,
		})
	}

	if open && len(balances) > 0 {
		balances[len(balances)-1].ClosedAtMs = now.UnixMilli()
	}
	return balances
}

// AverageBalance is the time-weighted average of the interval balances.
// A lifetime with no elapsed time divides to a non-finite value, which is
// surfaced rather than defaulted.
func AverageBalance(balances []BalanceInterval) float64 {
	if len(balances) == 0 {
		return 0
	}

	var weighted, totalMs float64
	for _, balance := range balances {
		weighted += balance.BalanceUSD * float64(balance.AgeMs())
		totalMs += float64(balance.AgeMs())
	}
	return weighted / totalMs
}

// tokenValueUSD converts a raw amount to its decimal value and prices it.
// A nonzero amount whose mint has no metadata or price fails rather than
// valuing the holding at zero; a zero amount needs neither.
func tokenValueUSD(raw float64, mint string, tokens jupiter.TokenMap, prices map[string]float64) (float64, error) {
	if raw == 0 {
		return 0, nil
	}
	token, ok := tokens[mint]
	if !ok {
		return 0, fmt.Errorf("no token metadata for mint %s", mint)
	}
	price, ok := prices[mint]
	if !ok {
		return 0, fmt.Errorf("no price for mint %s", mint)
	}
	return raw / math.Pow10(token.Decimals) * price, nil
}

// unrealizedValue prices an open position's live holdings and unclaimed
// accruals. Any missing price aborts the valuation.
func unrealizedValue(mints Mints, holdings *solana.Holdings, tokens jupiter.TokenMap, prices map[string]float64) (current, fees, rewards float64, err error) {
	amounts := []struct {
		raw  float64
		mint string
		out  *float64
	}{
		{holdings.TotalXAmount, mints.MintX, &current},
		{holdings.TotalYAmount, mints.MintY, &current},
		{float64(holdings.FeeX), mints.MintX, &fees},
		{float64(holdings.FeeY), mints.MintY, &fees},
		{float64(holdings.Reward1), mints.Reward1Mint, &rewards},
		{float64(holdings.Reward2), mints.Reward2Mint, &rewards},
	}
	for _, amount := range amounts {
		// An unset reward slot has no mint; whatever its counters hold
		// is not claimable value.
		if amount.mint == "" {
			continue
		}
		value, err := tokenValueUSD(amount.raw, amount.mint, tokens, prices)
		if err != nil {
			return 0, 0, 0, err
		}
		*amount.out += value
	}
	return current, fees, rewards, nil
}

// ComputeProfit derives the full profit breakdown for one position.
// holdings is nil for a closed position; the unrealized components are then
// zero and only realized flows count. An open position whose holdings
// cannot be priced returns an error instead of an understated summary.
func ComputeProfit(history History, mints Mints, holdings *solana.Holdings, tokens jupiter.TokenMap, prices map[string]float64, now time.Time) (ProfitSummary, error) {
	summary := ProfitSummary{
		PositionAddress:    history.Summary.Address,
		PairAddress:        history.Summary.PairAddress,
		Owner:              history.Summary.Owner,
		Open:               holdings != nil,
		DepositCount:       len(history.Deposits),
		WithdrawCount:      len(history.Withdraws),
		ClaimedFeeCount:    len(history.ClaimFees),
		ClaimedRewardCount: len(history.ClaimRewards),
	}

	if tokenX, ok := tokens[mints.MintX]; ok {
		if tokenY, ok := tokens[mints.MintY]; ok {
			summary.PairName = tokenX.Symbol + "-" + tokenY.Symbol
		}
	}

	for _, tx := range history.Deposits {
		summary.DepositsUSD += tx.USDAmount()
	}
	for _, tx := range history.Withdraws {
		summary.WithdrawsUSD += tx.USDAmount()
	}
	for _, tx := range history.ClaimFees {
		summary.ClaimedFeesUSD += tx.USDAmount()
	}
	for _, tx := range history.ClaimRewards {
		summary.ClaimedRewardsUSD += tx.TokenUSDAmount
	}

	if holdings != nil {
		current, fees, rewards, err := unrealizedValue(mints, holdings, tokens, prices)
		if err != nil {
			return ProfitSummary{}, fmt.Errorf("failed to value position %s: %w", summary.PositionAddress, err)
		}
		summary.CurrentUSD = current
		summary.UnclaimedFeesUSD = fees
		summary.UnclaimedRewardsUSD = rewards
	}

	summary.Balances = BuildBalances(history.Deposits, history.Withdraws, summary.Open, now)
	summary.AverageBalanceUSD = AverageBalance(summary.Balances)
	if len(summary.Balances) > 0 {
		summary.PositionProfitUSD = -summary.Balances[len(summary.Balances)-1].BalanceUSD
	}
	summary.TotalProfitUSD = summary.PositionProfitUSD +
		summary.ClaimedFeesUSD +
		summary.ClaimedRewardsUSD +
		summary.CurrentUSD +
		summary.UnclaimedFeesUSD +
		summary.UnclaimedRewardsUSD
	summary.ProfitPercent = summary.TotalProfitUSD / summary.DepositsUSD

	return summary, nil
}
