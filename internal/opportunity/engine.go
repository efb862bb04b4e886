package opportunity

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wnt/lpscout/internal/dexscreener"
	"github.com/wnt/lpscout/internal/jupiter"
	"github.com/wnt/lpscout/internal/meteora"
	"github.com/wnt/lpscout/internal/utils"
)

// blueChips are symbols considered settled enough that a pair made of two of
// them carries no meaningful token risk. Matched case-insensitively.
var blueChips = map[string]bool{
	"usdc":     true,
	"sol":      true,
	"usdt":     true,
	"jitosol":  true,
	"bsol":     true,
	"jupsol":   true,
	"inf":      true,
	"jlp":      true,
	"wbtc":     true,
	"weth":     true,
	"bonksol":  true,
	"lst":      true,
	"msol":     true,
	"zippysol": true,
}

// MeteoraSource lists the protocol pairs
type MeteoraSource interface {
	GetAllPairs(ctx context.Context) ([]meteora.Pair, error)
}

// MarketSource resolves market activity for pair addresses
type MarketSource interface {
	GetPairs(ctx context.Context, addresses []string) ([]dexscreener.Pair, error)
}

// TokenListSource resolves the curated token list
type TokenListSource interface {
	GetStrictList(ctx context.Context) (jupiter.TokenMap, error)
}

// Engine joins protocol pairs with market activity and ranks the result
type Engine struct {
	meteora         MeteoraSource
	market          MarketSource
	tokens          TokenListSource
	minLiquidityUSD float64
	logger          zerolog.Logger
}

// NewEngine creates an engine over the given sources
func NewEngine(m MeteoraSource, market MarketSource, tokens TokenListSource, minLiquidityUSD float64, logger zerolog.Logger) *Engine {
	return &Engine{
		meteora:         m,
		market:          market,
		tokens:          tokens,
		minLiquidityUSD: minLiquidityUSD,
		logger:          logger.With().Str("component", "opportunity").Logger(),
	}
}

// Scan fetches all sources and builds the ranked opportunity list
func (e *Engine) Scan(ctx context.Context) ([]Opportunity, error) {
	pairs, err := e.meteora.GetAllPairs(ctx)
	if err != nil {
		return nil, err
	}

	eligible := utils.Filter(pairs, func(pair meteora.Pair) bool {
		liquidity, err := strconv.ParseFloat(pair.Liquidity, 64)
		return err == nil && liquidity > 0 && liquidity >= e.minLiquidityUSD
	})
	addresses := make([]string, 0, len(eligible))
	for _, pair := range eligible {
		addresses = append(addresses, pair.Address)
	}

	markets, err := e.market.GetPairs(ctx, addresses)
	if err != nil {
		return nil, err
	}

	strictList, err := e.tokens.GetStrictList(ctx)
	if err != nil {
		// Token list outages degrade the strict flag, not the scan.
		e.logger.Warn().Err(err).Msg("Strict list unavailable, strict flags disabled")
		strictList = jupiter.TokenMap{}
	}

	opportunities := Build(eligible, markets, strictList)
	e.logger.Info().
		Int("pairs", len(pairs)).
		Int("eligible", len(eligible)).
		Int("opportunities", len(opportunities)).
		Msg("Scan complete")
	return opportunities, nil
}

// Build joins eligible protocol pairs with their market activity. Pairs with
// no market data are dropped. The result is ordered by descending worst-case
// fee yield; equal yields keep their input order.
func Build(pairs []meteora.Pair, markets []dexscreener.Pair, strictList jupiter.TokenMap) []Opportunity {
	marketByAddress := make(map[string]dexscreener.Pair, len(markets))
	for _, market := range markets {
		marketByAddress[market.PairAddress] = market
	}

	opportunities := make([]Opportunity, 0, len(pairs))
	for _, pair := range pairs {
		market, ok := marketByAddress[pair.Address]
		if !ok {
			continue
		}

		liquidity, err := strconv.ParseFloat(pair.Liquidity, 64)
		if err != nil || liquidity <= 0 {
			continue
		}

		baseFeePercent, err := strconv.ParseFloat(pair.BaseFeePercentage, 64)
		if err != nil {
			continue
		}
		baseFee := baseFeePercent / 100

		volume := projectVolume(market.Volume)
		fees := scale(volume, baseFee)
		feeToTvl := divide(fees, liquidity)

		opportunities = append(opportunities, Opportunity{
			PairAddress:    pair.Address,
			Name:           pair.Name,
			MintX:          pair.MintX,
			MintY:          pair.MintY,
			BinStep:        pair.BinStep,
			BaseFeePercent: baseFeePercent,
			LiquidityUSD:   liquidity,
			Volume24h:      volume,
			Fees24h:        fees,
			FeeToTvl:       feeToTvl,
			Trend:          trend(market.Volume),
			Strict:         isStrict(pair, strictList),
			Bluechip:       isBluechip(market),
			RewardMints:    rewardMints(pair),
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].FeeToTvl.Min > opportunities[j].FeeToTvl.Min
	})
	return opportunities
}

// projectVolume extrapolates each trailing window to a 24h horizon
func projectVolume(volume dexscreener.ActivityInfo) WindowedValue {
	projected := WindowedValue{
		M5:  volume.M5 * 288,
		H1:  volume.H1 * 24,
		H6:  volume.H6 * 4,
		H24: volume.H24,
	}
	projected.Min = min4(projected.M5, projected.H1, projected.H6, projected.H24)
	projected.Max = max4(projected.M5, projected.H1, projected.H6, projected.H24)
	return projected
}

func scale(value WindowedValue, factor float64) WindowedValue {
	return WindowedValue{
		M5:  value.M5 * factor,
		H1:  value.H1 * factor,
		H6:  value.H6 * factor,
		H24: value.H24 * factor,
		Min: value.Min * factor,
		Max: value.Max * factor,
	}
}

// divide keeps fee/TVL an exact quotient of the fee estimate; multiplying
// by a reciprocal can drift in the last bit
func divide(value WindowedValue, divisor float64) WindowedValue {
	return WindowedValue{
		M5:  value.M5 / divisor,
		H1:  value.H1 / divisor,
		H6:  value.H6 / divisor,
		H24: value.H24 / divisor,
		Min: value.Min / divisor,
		Max: value.Max / divisor,
	}
}

// trend compares adjacent windows pairwise, counting each recent-window win
// as +1 and each loss as -1. Flat activity reads as Up.
func trend(volume dexscreener.ActivityInfo) string {
	score := 0
	for _, comparison := range [][2]float64{
		{volume.M5 * 288, volume.H1 * 24},
		{volume.H1 * 24, volume.H6 * 4},
		{volume.H6 * 4, volume.H24},
	} {
		if comparison[0] >= comparison[1] {
			score++
		} else {
			score--
		}
	}
	if score > 0 {
		return "Up"
	}
	return "Down"
}

func isStrict(pair meteora.Pair, strictList jupiter.TokenMap) bool {
	_, xOK := strictList[pair.MintX]
	_, yOK := strictList[pair.MintY]
	return xOK && yOK
}

func isBluechip(market dexscreener.Pair) bool {
	return blueChips[strings.ToLower(market.BaseToken.Symbol)] &&
		blueChips[strings.ToLower(market.QuoteToken.Symbol)]
}

func rewardMints(pair meteora.Pair) []string {
	var mints []string
	for _, mint := range []string{pair.RewardMintX, pair.RewardMintY} {
		if mint != "" && !strings.HasPrefix(mint, "11111111") {
			mints = append(mints, mint)
		}
	}
	return mints
}

func min4(a, b, c, d float64) float64 {
	return min(min(a, b), min(c, d))
}

func max4(a, b, c, d float64) float64 {
	return max(max(a, b), max(c, d))
}
