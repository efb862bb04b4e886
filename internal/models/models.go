package models

import (
	"gorm.io/gorm"
)

// User is a leaderboard participant. A user can submit positions from
// several wallets.
type User struct {
	gorm.Model
	ExternalID string `gorm:"size:64;uniqueIndex;not null"`
	Name       string `gorm:"size:128"`

	Wallets []Wallet `gorm:"foreignKey:UserID"`
}

// Wallet is a Solana wallet owned by a user
type Wallet struct {
	gorm.Model
	UserID  uint   `gorm:"index;not null"`
	Address string `gorm:"size:44;uniqueIndex;not null"`

	Positions []Position `gorm:"foreignKey:WalletID"`
}

// Token is a mint referenced by at least one stored pair
type Token struct {
	gorm.Model
	Address  string `gorm:"size:44;uniqueIndex;not null"`
	Symbol   string `gorm:"size:32;index"`
	Decimals int    `gorm:"not null"`
}

// Pair is a DLMM pool
type Pair struct {
	gorm.Model
	Address string `gorm:"size:44;uniqueIndex;not null"`
	Name    string `gorm:"size:64"`
	BinStep int32  `gorm:"default:0"`

	Tokens    []TokenPair `gorm:"foreignKey:PairID"`
	Positions []Position  `gorm:"foreignKey:PairID"`
}

// TokenPair joins a token to a pair with its side, x or y
type TokenPair struct {
	gorm.Model
	PairID  uint   `gorm:"index;not null;uniqueIndex:idx_pair_side"`
	TokenID uint   `gorm:"index;not null"`
	Side    string `gorm:"size:1;not null;uniqueIndex:idx_pair_side"`
}

// Position is a submitted liquidity position with its realized totals.
// The transaction rows carry the flows the ranking query aggregates; the
// USD totals here are denormalized for display.
type Position struct {
	gorm.Model
	WalletID uint   `gorm:"index;not null"`
	PairID   uint   `gorm:"index;not null"`
	Address  string `gorm:"size:44;uniqueIndex;not null"`
	Open     bool   `gorm:"default:false;index"`

	DepositsUSD       float64 `gorm:"default:0"`
	WithdrawalsUSD    float64 `gorm:"default:0"`
	ClaimedFeesUSD    float64 `gorm:"default:0"`
	ClaimedRewardsUSD float64 `gorm:"default:0"`

	Transactions []PositionTransaction `gorm:"foreignKey:PositionID"`
}

// PositionTransaction is one balance-changing event of a position.
// USDBalanceChange is positive for deposits and negative for withdrawals;
// OnchainTimestamp is unix seconds as reported on chain.
type PositionTransaction struct {
	gorm.Model
	PositionID       uint    `gorm:"not null;uniqueIndex:idx_position_sig"`
	Signature        string  `gorm:"size:88;not null;uniqueIndex:idx_position_sig"`
	OnchainTimestamp int64   `gorm:"index;not null"`
	USDBalanceChange float64 `gorm:"not null"`
}
