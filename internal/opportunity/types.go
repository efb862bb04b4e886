package opportunity

// WindowedValue carries a quantity projected from each trailing activity
// window to a 24h horizon, plus the spread across the four projections.
type WindowedValue struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Opportunity is an enriched DLMM pair ranked by fee yield
type Opportunity struct {
	PairAddress    string        `json:"pairAddress"`
	Name           string        `json:"name"`
	MintX          string        `json:"mintX"`
	MintY          string        `json:"mintY"`
	BinStep        int32         `json:"binStep"`
	BaseFeePercent float64       `json:"baseFeePercent"`
	LiquidityUSD   float64       `json:"liquidityUsd"`
	Volume24h      WindowedValue `json:"volume24h"`
	Fees24h        WindowedValue `json:"fees24h"`
	FeeToTvl       WindowedValue `json:"feeToTvl"`
	Trend          string        `json:"trend"`
	Strict         bool          `json:"strict"`
	Bluechip       bool          `json:"bluechip"`
	RewardMints    []string      `json:"rewardMints,omitempty"`
}
