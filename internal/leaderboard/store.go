package leaderboard

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wnt/lpscout/internal/meteora"
	"github.com/wnt/lpscout/internal/metrics"
	"github.com/wnt/lpscout/internal/models"
	"github.com/wnt/lpscout/internal/position"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenInfo is the token metadata a submission carries for each pair side
type TokenInfo struct {
	Address  string
	Symbol   string
	Decimals int
}

// Submission is one computed position offered to the leaderboard. Saving it
// is additive and idempotent; resubmitting the same position updates its
// totals and never deletes rows.
type Submission struct {
	UserExternalID string
	UserName       string
	WalletAddress  string

	PairAddress string
	PairName    string
	BinStep     int32
	TokenX      TokenInfo
	TokenY      TokenInfo

	Summary   position.ProfitSummary
	Deposits  []meteora.DepositWithdraw
	Withdraws []meteora.DepositWithdraw
}

// Store persists submissions and serves rankings
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewStore creates a store over the given database
func NewStore(db *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "leaderboard").Logger(),
	}
}

// SaveSubmission writes the full row set of one submission in a single
// database transaction. Every table uses upsert-on-conflict so a partial
// earlier submission never blocks a complete later one.
func (s *Store) SaveSubmission(ctx context.Context, sub Submission) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := models.User{ExternalID: sub.UserExternalID, Name: sub.UserName}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).Create(&user).Error; err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}

		wallet := models.Wallet{UserID: user.ID, Address: sub.WalletAddress}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "updated_at"}),
		}).Create(&wallet).Error; err != nil {
			return fmt.Errorf("failed to upsert wallet: %w", err)
		}

		pair := models.Pair{Address: sub.PairAddress, Name: sub.PairName, BinStep: sub.BinStep}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "bin_step", "updated_at"}),
		}).Create(&pair).Error; err != nil {
			return fmt.Errorf("failed to upsert pair: %w", err)
		}

		for side, info := range map[string]TokenInfo{"x": sub.TokenX, "y": sub.TokenY} {
			token := models.Token{Address: info.Address, Symbol: info.Symbol, Decimals: info.Decimals}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "address"}},
				DoUpdates: clause.AssignmentColumns([]string{"symbol", "decimals", "updated_at"}),
			}).Create(&token).Error; err != nil {
				return fmt.Errorf("failed to upsert token %s: %w", info.Address, err)
			}

			tokenPair := models.TokenPair{PairID: pair.ID, TokenID: token.ID, Side: side}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "pair_id"}, {Name: "side"}},
				DoUpdates: clause.AssignmentColumns([]string{"token_id", "updated_at"}),
			}).Create(&tokenPair).Error; err != nil {
				return fmt.Errorf("failed to upsert token pair side %s: %w", side, err)
			}
		}

		positionRow := models.Position{
			WalletID:          wallet.ID,
			PairID:            pair.ID,
			Address:           sub.Summary.PositionAddress,
			Open:              sub.Summary.Open,
			DepositsUSD:       sub.Summary.DepositsUSD,
			WithdrawalsUSD:    sub.Summary.WithdrawsUSD,
			ClaimedFeesUSD:    sub.Summary.ClaimedFeesUSD,
			ClaimedRewardsUSD: sub.Summary.ClaimedRewardsUSD,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"wallet_id", "pair_id", "open",
				"deposits_usd", "withdrawals_usd",
				"claimed_fees_usd", "claimed_rewards_usd",
				"updated_at",
			}),
		}).Create(&positionRow).Error; err != nil {
			return fmt.Errorf("failed to upsert position: %w", err)
		}

		transactions := buildTransactionRows(positionRow.ID, sub.Deposits, sub.Withdraws)
		if len(transactions) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "position_id"}, {Name: "signature"}},
				DoUpdates: clause.AssignmentColumns([]string{"onchain_timestamp", "usd_balance_change", "updated_at"}),
			}).Create(&transactions).Error; err != nil {
				return fmt.Errorf("failed to upsert transactions: %w", err)
			}
		}
		return nil
	})

	if err != nil {
		metrics.RecordDatabaseOperation("save_submission", "failed")
		return err
	}
	metrics.RecordDatabaseOperation("save_submission", "success")
	s.logger.Info().
		Str("position", sub.Summary.PositionAddress).
		Str("wallet", sub.WalletAddress).
		Msg("Submission saved")
	return nil
}

// buildTransactionRows flattens deposit and withdraw ledgers into signed
// balance-change rows
func buildTransactionRows(positionID uint, deposits, withdraws []meteora.DepositWithdraw) []models.PositionTransaction {
	rows := make([]models.PositionTransaction, 0, len(deposits)+len(withdraws))
	for _, tx := range deposits {
		rows = append(rows, models.PositionTransaction{
			PositionID:       positionID,
			Signature:        tx.TxID,
			OnchainTimestamp: tx.OnchainTimestamp,
			USDBalanceChange: tx.USDAmount(),
		})
	}
	for _, tx := range withdraws {
		rows = append(rows, models.PositionTransaction{
			PositionID:       positionID,
			Signature:        tx.TxID,
			OnchainTimestamp: tx.OnchainTimestamp,
			USDBalanceChange: -tx.USDAmount(),
		})
	}
	return rows
}
