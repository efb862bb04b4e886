package dexscreener

// apiData is the envelope returned by the pairs endpoint. A response without
// a pairs field is treated as a failed batch, not a failed call.
type apiData struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

// Pair represents a market pair as reported by the DEX Screener API
type Pair struct {
	ChainID       string       `json:"chainId"`
	DexID         string       `json:"dexId"`
	URL           string       `json:"url"`
	PairAddress   string       `json:"pairAddress"`
	Labels        []string     `json:"labels"`
	BaseToken     Token        `json:"baseToken"`
	QuoteToken    Token        `json:"quoteToken"`
	PriceNative   string       `json:"priceNative"`
	PriceUSD      string       `json:"priceUsd"`
	Txns          Txns         `json:"txns"`
	Volume        ActivityInfo `json:"volume"`
	PriceChange   ActivityInfo `json:"priceChange"`
	Liquidity     Liquidity    `json:"liquidity"`
	FDV           float64      `json:"fdv"`
	PairCreatedAt int64        `json:"pairCreatedAt"`
}

// Token identifies one side of a pair
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// ActivityInfo carries a metric across the four trailing windows
type ActivityInfo struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// Txns carries buy/sell counts across the four trailing windows
type Txns struct {
	M5  TxnInfo `json:"m5"`
	H1  TxnInfo `json:"h1"`
	H6  TxnInfo `json:"h6"`
	H24 TxnInfo `json:"h24"`
}

// TxnInfo is a buy/sell count pair
type TxnInfo struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// Liquidity is the liquidity breakdown reported per pair
type Liquidity struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}
