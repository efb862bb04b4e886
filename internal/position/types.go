package position

import "github.com/wnt/lpscout/internal/meteora"

// History is a position summary together with its full transaction ledgers
type History struct {
	Summary      meteora.Position
	Deposits     []meteora.DepositWithdraw
	Withdraws    []meteora.DepositWithdraw
	ClaimFees    []meteora.ClaimFee
	ClaimRewards []meteora.ClaimReward
}

// Mints are the token mints a position can move, resolved from its pair
type Mints struct {
	MintX       string
	MintY       string
	Reward1Mint string
	Reward2Mint string
}

// BalanceInterval is one constant-balance stretch of a position's lifetime.
// Timestamps are unix milliseconds. For the last interval of an open
// position ClosedAtMs is the query time; for a closed position the final
// interval is zero width.
type BalanceInterval struct {
	OpenedAtMs      int64   `json:"openedAtMs"`
	ClosedAtMs      int64   `json:"closedAtMs"`
	TransactionType string  `json:"transactionType"`
	ChangeUSD       float64 `json:"changeUsd"`
	BalanceUSD      float64 `json:"balanceUsd"`
}

// AgeMs is the interval's duration in milliseconds
func (b BalanceInterval) AgeMs() int64 {
	return b.ClosedAtMs - b.OpenedAtMs
}

// ProfitSummary is the full profit breakdown for one position
type ProfitSummary struct {
	PositionAddress string `json:"positionAddress"`
	PairAddress     string `json:"pairAddress"`
	PairName        string `json:"pairName"`
	Owner           string `json:"owner"`
	Open            bool   `json:"open"`

	DepositCount       int `json:"depositCount"`
	WithdrawCount      int `json:"withdrawCount"`
	ClaimedFeeCount    int `json:"claimedFeeCount"`
	ClaimedRewardCount int `json:"claimedRewardCount"`

	DepositsUSD         float64 `json:"depositsUsd"`
	WithdrawsUSD        float64 `json:"withdrawsUsd"`
	ClaimedFeesUSD      float64 `json:"claimedFeesUsd"`
	ClaimedRewardsUSD   float64 `json:"claimedRewardsUsd"`
	CurrentUSD          float64 `json:"currentUsd"`
	UnclaimedFeesUSD    float64 `json:"unclaimedFeesUsd"`
	UnclaimedRewardsUSD float64 `json:"unclaimedRewardsUsd"`

	AverageBalanceUSD float64 `json:"averageBalanceUsd"`
	PositionProfitUSD float64 `json:"positionProfitUsd"`
	TotalProfitUSD    float64 `json:"totalProfitUsd"`
	// ProfitPercent is TotalProfitUSD over DepositsUSD. Positions with no
	// deposit value yield a non-finite number; callers decide how to render
	// that, it is never silently replaced.
	ProfitPercent float64 `json:"profitPercent"`

	Balances []BalanceInterval `json:"balances"`
}
