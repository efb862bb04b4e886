package opportunity

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/wnt/lpscout/internal/dexscreener"
	"github.com/wnt/lpscout/internal/jupiter"
	"github.com/wnt/lpscout/internal/meteora"
)

func testPair(address, liquidity string) meteora.Pair {
	return meteora.Pair{
		Address:           address,
		Name:              "SOL-USDC",
		MintX:             "So11111111111111111111111111111111111111112",
		MintY:             "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		BinStep:           20,
		BaseFeePercentage: "0.25",
		Liquidity:         liquidity,
	}
}

func testMarket(address string, volume dexscreener.ActivityInfo) dexscreener.Pair {
	return dexscreener.Pair{
		PairAddress: address,
		BaseToken:   dexscreener.Token{Symbol: "SOL"},
		QuoteToken:  dexscreener.Token{Symbol: "USDC"},
		Volume:      volume,
	}
}

// TestProjectVolume tests window extrapolation and the min/max spread
func TestProjectVolume(t *testing.T) {
	projected := projectVolume(dexscreener.ActivityInfo{M5: 10, H1: 120, H6: 1200, H24: 9600})

	if projected.M5 != 2880 {
		t.Errorf("M5 projection = %v, want 2880", projected.M5)
	}
	if projected.H1 != 2880 {
		t.Errorf("H1 projection = %v, want 2880", projected.H1)
	}
	if projected.H6 != 4800 {
		t.Errorf("H6 projection = %v, want 4800", projected.H6)
	}
	if projected.H24 != 9600 {
		t.Errorf("H24 projection = %v, want 9600", projected.H24)
	}
	if projected.Min != 2880 {
		t.Errorf("Min = %v, want 2880", projected.Min)
	}
	if projected.Max != 9600 {
		t.Errorf("Max = %v, want 9600", projected.Max)
	}
}

// TestTrendFlatActivityIsUp tests that equal windows read as Up
func TestTrendFlatActivityIsUp(t *testing.T) {
	// Every window projects to 288000
	volume := dexscreener.ActivityInfo{M5: 1000, H1: 12000, H6: 72000, H24: 288000}
	if got := trend(volume); got != "Up" {
		t.Errorf("trend(flat) = %s, want Up", got)
	}
}

// TestTrendDecayingActivityIsDown tests that fading recent volume reads
// as Down
func TestTrendDecayingActivityIsDown(t *testing.T) {
	volume := dexscreener.ActivityInfo{M5: 0, H1: 100, H6: 50000, H24: 900000}
	if got := trend(volume); got != "Down" {
		t.Errorf("trend(decaying) = %s, want Down", got)
	}
}

// TestBuildFeeMath tests fee and fee/TVL derivation for a single pair
func TestBuildFeeMath(t *testing.T) {
	pairs := []meteora.Pair{testPair("pair1", "10000")}
	markets := []dexscreener.Pair{
		testMarket("pair1", dexscreener.ActivityInfo{M5: 1000, H1: 12000, H6: 72000, H24: 288000}),
	}

	opportunities := Build(pairs, markets, jupiter.TokenMap{})
	if len(opportunities) != 1 {
		t.Fatalf("Build returned %d opportunities, want 1", len(opportunities))
	}

	opp := opportunities[0]
	if opp.BaseFeePercent != 0.25 {
		t.Errorf("BaseFeePercent = %v, want 0.25", opp.BaseFeePercent)
	}
	// 0.25% of 288000 projected volume
	if math.Abs(opp.Fees24h.Min-720) > 1e-9 {
		t.Errorf("Fees24h.Min = %v, want 720", opp.Fees24h.Min)
	}
	if math.Abs(opp.FeeToTvl.Min-0.072) > 1e-12 {
		t.Errorf("FeeToTvl.Min = %v, want 0.072", opp.FeeToTvl.Min)
	}
	if opp.FeeToTvl.Max != opp.Fees24h.Max/10000 {
		t.Errorf("FeeToTvl.Max = %v, want %v", opp.FeeToTvl.Max, opp.Fees24h.Max/10000)
	}
}

// TestBuildDropsPairsWithoutMarketData tests that unjoined pairs vanish
func TestBuildDropsPairsWithoutMarketData(t *testing.T) {
	pairs := []meteora.Pair{testPair("pair1", "10000"), testPair("pair2", "10000")}
	markets := []dexscreener.Pair{
		testMarket("pair1", dexscreener.ActivityInfo{H24: 1000}),
	}

	opportunities := Build(pairs, markets, jupiter.TokenMap{})
	if len(opportunities) != 1 {
		t.Fatalf("Build returned %d opportunities, want 1", len(opportunities))
	}
	if opportunities[0].PairAddress != "pair1" {
		t.Errorf("PairAddress = %s, want pair1", opportunities[0].PairAddress)
	}
}

// TestBuildDropsZeroLiquidity tests that zero and unparsable liquidity
// never divide
func TestBuildDropsZeroLiquidity(t *testing.T) {
	pairs := []meteora.Pair{
		testPair("pair1", "0"),
		testPair("pair2", "not-a-number"),
		testPair("pair3", "5000"),
	}
	markets := []dexscreener.Pair{
		testMarket("pair1", dexscreener.ActivityInfo{H24: 1000}),
		testMarket("pair2", dexscreener.ActivityInfo{H24: 1000}),
		testMarket("pair3", dexscreener.ActivityInfo{H24: 1000}),
	}

	opportunities := Build(pairs, markets, jupiter.TokenMap{})
	if len(opportunities) != 1 {
		t.Fatalf("Build returned %d opportunities, want 1", len(opportunities))
	}
	if opportunities[0].PairAddress != "pair3" {
		t.Errorf("PairAddress = %s, want pair3", opportunities[0].PairAddress)
	}
	for _, opp := range opportunities {
		if math.IsInf(opp.FeeToTvl.Min, 0) || math.IsNaN(opp.FeeToTvl.Min) {
			t.Errorf("FeeToTvl.Min is non-finite for %s", opp.PairAddress)
		}
	}
}

// TestBuildSortsByWorstCaseYield tests descending order on FeeToTvl.Min
// with stable ties
func TestBuildSortsByWorstCaseYield(t *testing.T) {
	pairs := []meteora.Pair{
		testPair("low", "100000"),
		testPair("tieA", "10000"),
		testPair("high", "1000"),
		testPair("tieB", "10000"),
	}
	volume := dexscreener.ActivityInfo{M5: 1000, H1: 12000, H6: 72000, H24: 288000}
	markets := []dexscreener.Pair{
		testMarket("low", volume),
		testMarket("tieA", volume),
		testMarket("high", volume),
		testMarket("tieB", volume),
	}

	opportunities := Build(pairs, markets, jupiter.TokenMap{})
	if len(opportunities) != 4 {
		t.Fatalf("Build returned %d opportunities, want 4", len(opportunities))
	}

	wantOrder := []string{"high", "tieA", "tieB", "low"}
	for i, want := range wantOrder {
		if opportunities[i].PairAddress != want {
			t.Errorf("position %d = %s, want %s", i, opportunities[i].PairAddress, want)
		}
	}
}

// TestBuildFlags tests the strict and bluechip classification
func TestBuildFlags(t *testing.T) {
	pair := testPair("pair1", "10000")
	markets := []dexscreener.Pair{
		testMarket("pair1", dexscreener.ActivityInfo{H24: 1000}),
	}

	strictList := jupiter.TokenMap{
		pair.MintX: {Address: pair.MintX, Symbol: "SOL"},
		pair.MintY: {Address: pair.MintY, Symbol: "USDC"},
	}

	opportunities := Build([]meteora.Pair{pair}, markets, strictList)
	if !opportunities[0].Strict {
		t.Error("Strict = false, want true when both mints are listed")
	}
	if !opportunities[0].Bluechip {
		t.Error("Bluechip = false, want true for SOL-USDC")
	}

	// Remove one mint from the strict list
	delete(strictList, pair.MintY)
	opportunities = Build([]meteora.Pair{pair}, markets, strictList)
	if opportunities[0].Strict {
		t.Error("Strict = true, want false when one mint is unlisted")
	}
}

type fakeMeteora struct{ pairs []meteora.Pair }

func (f *fakeMeteora) GetAllPairs(ctx context.Context) ([]meteora.Pair, error) {
	return f.pairs, nil
}

type fakeMarket struct{ requested []string }

func (f *fakeMarket) GetPairs(ctx context.Context, addresses []string) ([]dexscreener.Pair, error) {
	f.requested = addresses
	markets := make([]dexscreener.Pair, 0, len(addresses))
	for _, address := range addresses {
		markets = append(markets, testMarket(address, dexscreener.ActivityInfo{H24: 1000}))
	}
	return markets, nil
}

type fakeTokenList struct{}

func (f *fakeTokenList) GetStrictList(ctx context.Context) (jupiter.TokenMap, error) {
	return jupiter.TokenMap{}, nil
}

// TestScanFiltersIneligiblePairs tests that pairs below the liquidity
// floor never reach the market lookup
func TestScanFiltersIneligiblePairs(t *testing.T) {
	source := &fakeMeteora{pairs: []meteora.Pair{
		testPair("rich", "5000"),
		testPair("poor", "500"),
		testPair("empty", "0"),
	}}
	market := &fakeMarket{}
	engine := NewEngine(source, market, &fakeTokenList{}, 1000, zerolog.Nop())

	opportunities, err := engine.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(market.requested) != 1 || market.requested[0] != "rich" {
		t.Errorf("market lookup requested %v, want [rich]", market.requested)
	}
	if len(opportunities) != 1 {
		t.Fatalf("Scan returned %d opportunities, want 1", len(opportunities))
	}
	if opportunities[0].PairAddress != "rich" {
		t.Errorf("PairAddress = %s, want rich", opportunities[0].PairAddress)
	}
}
