package meteora

// Pair represents a DLMM liquidity pair as reported by the protocol API
type Pair struct {
	Address               string  `json:"address"`
	Name                  string  `json:"name"`
	MintX                 string  `json:"mint_x"`
	MintY                 string  `json:"mint_y"`
	ReserveX              string  `json:"reserve_x"`
	ReserveY              string  `json:"reserve_y"`
	ReserveXAmount        int64   `json:"reserve_x_amount"`
	ReserveYAmount        int64   `json:"reserve_y_amount"`
	BinStep               int32   `json:"bin_step"`
	BaseFeePercentage     string  `json:"base_fee_percentage"`
	MaxFeePercentage      string  `json:"max_fee_percentage"`
	ProtocolFeePercentage string  `json:"protocol_fee_percentage"`
	Liquidity             string  `json:"liquidity"`
	RewardMintX           string  `json:"reward_mint_x"`
	RewardMintY           string  `json:"reward_mint_y"`
	Fees24h               float64 `json:"fees_24h"`
	TodayFees             float64 `json:"today_fees"`
	TradeVolume24h        float64 `json:"trade_volume_24h"`
	CumulativeTradeVolume string  `json:"cumulative_trade_volume"`
	CumulativeFeeVolume   string  `json:"cumulative_fee_volume"`
	CurrentPrice          float64 `json:"current_price"`
	Apr                   float64 `json:"apr"`
	Apy                   float64 `json:"apy"`
	FarmApr               float64 `json:"farm_apr"`
	FarmApy               float64 `json:"farm_apy"`
	Hide                  bool    `json:"hide"`
}

// Position represents a position summary with cumulative claim totals
type Position struct {
	Address               string  `json:"address"`
	PairAddress           string  `json:"pair_address"`
	Owner                 string  `json:"owner"`
	TotalFeeXClaimed      int64   `json:"total_fee_x_claimed"`
	TotalFeeYClaimed      int64   `json:"total_fee_y_claimed"`
	TotalRewardXClaimed   int64   `json:"total_reward_x_claimed"`
	TotalRewardYClaimed   int64   `json:"total_reward_y_claimed"`
	TotalFeeUSDClaimed    float64 `json:"total_fee_usd_claimed"`
	TotalRewardUSDClaimed float64 `json:"total_reward_usd_claimed"`
	FeeApy24h             float64 `json:"fee_apy_24h"`
	FeeApr24h             float64 `json:"fee_apr_24h"`
	DailyFeeYield         float64 `json:"daily_fee_yield"`
}

// DepositWithdraw represents a deposit or withdraw transaction
type DepositWithdraw struct {
	TxID             string  `json:"tx_id"`
	PositionAddress  string  `json:"position_address"`
	PairAddress      string  `json:"pair_address"`
	ActiveBinID      int64   `json:"active_bin_id"`
	TokenXAmount     int64   `json:"token_x_amount"`
	TokenYAmount     int64   `json:"token_y_amount"`
	Price            float64 `json:"price"`
	TokenXUSDAmount  float64 `json:"token_x_usd_amount"`
	TokenYUSDAmount  float64 `json:"token_y_usd_amount"`
	OnchainTimestamp int64   `json:"onchain_timestamp"`
}

// ClaimFee represents a fee claim transaction
type ClaimFee struct {
	TxID             string  `json:"tx_id"`
	PositionAddress  string  `json:"position_address"`
	PairAddress      string  `json:"pair_address"`
	TokenXAmount     int64   `json:"token_x_amount"`
	TokenYAmount     int64   `json:"token_y_amount"`
	TokenXUSDAmount  float64 `json:"token_x_usd_amount"`
	TokenYUSDAmount  float64 `json:"token_y_usd_amount"`
	OnchainTimestamp int64   `json:"onchain_timestamp"`
}

// ClaimReward represents a reward claim transaction
type ClaimReward struct {
	TxID              string  `json:"tx_id"`
	PositionAddress   string  `json:"position_address"`
	PairAddress       string  `json:"pair_address"`
	RewardMintAddress string  `json:"reward_mint_address"`
	TokenAmount       int64   `json:"token_amount"`
	TokenUSDAmount    float64 `json:"token_usd_amount"`
	OnchainTimestamp  int64   `json:"onchain_timestamp"`
}

// USDAmount returns the combined token X + Y value of a deposit or withdraw
func (t DepositWithdraw) USDAmount() float64 {
	return t.TokenXUSDAmount + t.TokenYUSDAmount
}

// USDAmount returns the combined token X + Y value of a fee claim
func (c ClaimFee) USDAmount() float64 {
	return c.TokenXUSDAmount + c.TokenYUSDAmount
}
