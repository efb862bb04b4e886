package position

import (
	"math"
	"testing"
	"time"

	"github.com/wnt/lpscout/internal/jupiter"
	"github.com/wnt/lpscout/internal/meteora"
	"github.com/wnt/lpscout/internal/solana"
)

func deposit(timestamp int64, usdX, usdY float64) meteora.DepositWithdraw {
	return meteora.DepositWithdraw{
		OnchainTimestamp: timestamp,
		TokenXUSDAmount:  usdX,
		TokenYUSDAmount:  usdY,
	}
}

// TestBuildBalancesOpenPosition tests the interval construction for an open
// position: deposit 1000 at t=0, withdraw 400 at t=3600, queried at t=7200
func TestBuildBalancesOpenPosition(t *testing.T) {
	deposits := []meteora.DepositWithdraw{deposit(0, 600, 400)}
	withdraws := []meteora.DepositWithdraw{deposit(3600, 400, 0)}
	now := time.UnixMilli(7200 * 1000)

	balances := BuildBalances(deposits, withdraws, true, now)
	if len(balances) != 2 {
		t.Fatalf("got %d intervals, want 2", len(balances))
	}

	if balances[0].BalanceUSD != 1000 {
		t.Errorf("first balance = %v, want 1000", balances[0].BalanceUSD)
	}
	if balances[0].AgeMs() != 3600*1000 {
		t.Errorf("first interval age = %d ms, want %d", balances[0].AgeMs(), 3600*1000)
	}
	if balances[1].BalanceUSD != 600 {
		t.Errorf("second balance = %v, want 600", balances[1].BalanceUSD)
	}
	if balances[1].AgeMs() != 3600*1000 {
		t.Errorf("second interval age = %d ms, want %d", balances[1].AgeMs(), 3600*1000)
	}

	average := AverageBalance(balances)
	if average != 800 {
		t.Errorf("AverageBalance = %v, want 800", average)
	}
}

// TestBuildBalancesClosedPosition tests that a closed position's final
// interval is zero width and carries no time weight
func TestBuildBalancesClosedPosition(t *testing.T) {
	deposits := []meteora.DepositWithdraw{deposit(0, 1000, 0)}
	withdraws := []meteora.DepositWithdraw{deposit(3600, 1100, 0)}
	now := time.UnixMilli(999999 * 1000)

	balances := BuildBalances(deposits, withdraws, false, now)
	if len(balances) != 2 {
		t.Fatalf("got %d intervals, want 2", len(balances))
	}
	if balances[1].AgeMs() != 0 {
		t.Errorf("final interval age = %d ms, want 0", balances[1].AgeMs())
	}

	// Only the first interval counts, so the average is its balance
	if average := AverageBalance(balances); average != 1000 {
		t.Errorf("AverageBalance = %v, want 1000", average)
	}
}

// TestBuildBalancesOrdersByTimestamp tests that out-of-order ledgers are
// sorted by on-chain time before the running balance is formed
func TestBuildBalancesOrdersByTimestamp(t *testing.T) {
	deposits := []meteora.DepositWithdraw{
		deposit(200, 500, 0),
		deposit(100, 300, 0),
	}

	balances := BuildBalances(deposits, nil, false, time.Now())
	if balances[0].ChangeUSD != 300 {
		t.Errorf("first change = %v, want the earlier deposit of 300", balances[0].ChangeUSD)
	}
	if balances[1].BalanceUSD != 800 {
		t.Errorf("final balance = %v, want 800", balances[1].BalanceUSD)
	}
}

// TestComputeProfitClosedPosition tests the realized-only breakdown
func TestComputeProfitClosedPosition(t *testing.T) {
	history := History{
		Summary: meteora.Position{
			Address:     "pos1",
			PairAddress: "pair1",
			Owner:       "owner1",
		},
		Deposits:  []meteora.DepositWithdraw{deposit(0, 1000, 0)},
		Withdraws: []meteora.DepositWithdraw{deposit(3600, 1100, 0)},
		ClaimFees: []meteora.ClaimFee{{
			TokenXUSDAmount:  30,
			TokenYUSDAmount:  20,
			OnchainTimestamp: 3600,
		}},
	}

	summary, err := ComputeProfit(history, Mints{MintX: "mintX", MintY: "mintY"}, nil, jupiter.TokenMap{}, nil, time.Now())
	if err != nil {
		t.Fatalf("ComputeProfit() error = %v", err)
	}

	if summary.Open {
		t.Error("Open = true, want false with nil holdings")
	}
	if summary.DepositsUSD != 1000 {
		t.Errorf("DepositsUSD = %v, want 1000", summary.DepositsUSD)
	}
	if summary.WithdrawsUSD != 1100 {
		t.Errorf("WithdrawsUSD = %v, want 1100", summary.WithdrawsUSD)
	}
	if summary.ClaimedFeesUSD != 50 {
		t.Errorf("ClaimedFeesUSD = %v, want 50", summary.ClaimedFeesUSD)
	}
	// Final running balance is -100, so the position realized +100
	if summary.PositionProfitUSD != 100 {
		t.Errorf("PositionProfitUSD = %v, want 100", summary.PositionProfitUSD)
	}
	if summary.TotalProfitUSD != 150 {
		t.Errorf("TotalProfitUSD = %v, want 150", summary.TotalProfitUSD)
	}
	if summary.ProfitPercent != 0.15 {
		t.Errorf("ProfitPercent = %v, want 0.15", summary.ProfitPercent)
	}
}

// TestComputeProfitOpenPosition tests that unrealized components are priced
// from holdings
func TestComputeProfitOpenPosition(t *testing.T) {
	history := History{
		Summary:  meteora.Position{Address: "pos1"},
		Deposits: []meteora.DepositWithdraw{deposit(0, 1000, 0)},
	}
	holdings := &solana.Holdings{
		TotalXAmount: 2_000_000_000, // 2 tokens at 9 decimals
		TotalYAmount: 500_000_000,   // 500 tokens at 6 decimals
		FeeX:         100_000_000,   // 0.1 token
	}
	tokens := jupiter.TokenMap{
		"mintX": {Address: "mintX", Symbol: "SOL", Decimals: 9},
		"mintY": {Address: "mintY", Symbol: "USDC", Decimals: 6},
	}
	prices := map[string]float64{"mintX": 100, "mintY": 1}

	summary, err := ComputeProfit(history, Mints{MintX: "mintX", MintY: "mintY"}, holdings, tokens, prices, time.Now())
	if err != nil {
		t.Fatalf("ComputeProfit() error = %v", err)
	}

	if !summary.Open {
		t.Error("Open = false, want true with holdings present")
	}
	if summary.CurrentUSD != 700 {
		t.Errorf("CurrentUSD = %v, want 700", summary.CurrentUSD)
	}
	if summary.UnclaimedFeesUSD != 10 {
		t.Errorf("UnclaimedFeesUSD = %v, want 10", summary.UnclaimedFeesUSD)
	}
	if summary.PairName != "SOL-USDC" {
		t.Errorf("PairName = %s, want SOL-USDC", summary.PairName)
	}
	// -1000 realized plus 700 current plus 10 unclaimed fees
	if summary.TotalProfitUSD != -290 {
		t.Errorf("TotalProfitUSD = %v, want -290", summary.TotalProfitUSD)
	}
}

// TestComputeProfitZeroDeposits tests that a zero deposit sum surfaces a
// non-finite percent instead of a default
func TestComputeProfitZeroDeposits(t *testing.T) {
	history := History{
		Summary:   meteora.Position{Address: "pos1"},
		Withdraws: []meteora.DepositWithdraw{deposit(0, 100, 0)},
	}

	summary, err := ComputeProfit(history, Mints{}, nil, jupiter.TokenMap{}, nil, time.Now())
	if err != nil {
		t.Fatalf("ComputeProfit() error = %v", err)
	}

	if !math.IsInf(summary.ProfitPercent, 1) {
		t.Errorf("ProfitPercent = %v, want +Inf", summary.ProfitPercent)
	}
}

// TestComputeProfitMissingPriceFails tests that an open position whose
// holdings cannot be priced errors instead of valuing them at zero
func TestComputeProfitMissingPriceFails(t *testing.T) {
	history := History{
		Summary:  meteora.Position{Address: "pos1"},
		Deposits: []meteora.DepositWithdraw{deposit(0, 1000, 0)},
	}
	holdings := &solana.Holdings{TotalXAmount: 2_000_000_000}
	tokens := jupiter.TokenMap{
		"mintX": {Address: "mintX", Symbol: "SOL", Decimals: 9},
	}

	// Token known but no price for it
	_, err := ComputeProfit(history, Mints{MintX: "mintX", MintY: "mintY"}, holdings, tokens, map[string]float64{}, time.Now())
	if err == nil {
		t.Error("ComputeProfit() = nil error, want failure when the held mint has no price")
	}

	// Mint missing from the token list entirely
	_, err = ComputeProfit(history, Mints{MintX: "unknown", MintY: "mintY"}, holdings, tokens, map[string]float64{"unknown": 1}, time.Now())
	if err == nil {
		t.Error("ComputeProfit() = nil error, want failure when the held mint has no metadata")
	}

	// A closed position needs no prices at all
	if _, err := ComputeProfit(history, Mints{MintX: "mintX", MintY: "mintY"}, nil, jupiter.TokenMap{}, nil, time.Now()); err != nil {
		t.Errorf("ComputeProfit(closed) error = %v, want nil", err)
	}
}
