package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wnt/lpscout/internal/meteora"
	"github.com/wnt/lpscout/internal/metrics"
	"github.com/wnt/lpscout/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerSource serves the deposit and withdraw ledgers of a position
type LedgerSource interface {
	GetDeposits(ctx context.Context, positionAddress string) ([]meteora.DepositWithdraw, error)
	GetWithdraws(ctx context.Context, positionAddress string) ([]meteora.DepositWithdraw, error)
}

// Backfiller repairs stored positions that have no transaction rows, which
// happens when an earlier submission saved the position but failed before
// its ledgers were written.
type Backfiller struct {
	store   *Store
	ledgers LedgerSource
	logger  zerolog.Logger
}

// NewBackfiller creates a backfiller over the store and ledger source
func NewBackfiller(store *Store, ledgers LedgerSource, logger zerolog.Logger) *Backfiller {
	return &Backfiller{
		store:   store,
		ledgers: ledgers,
		logger:  logger.With().Str("component", "backfill").Logger(),
	}
}

// MissingTransactionPositions lists stored position addresses that have no
// transaction rows
func (s *Store) MissingTransactionPositions(ctx context.Context) ([]string, error) {
	var addresses []string
	err := s.db.WithContext(ctx).
		Model(&models.Position{}).
		Joins("LEFT JOIN position_transactions pt ON pt.position_id = positions.id AND pt.deleted_at IS NULL").
		Where("pt.id IS NULL").
		Pluck("positions.address", &addresses).Error
	if err != nil {
		metrics.RecordDatabaseOperation("missing_transactions", "failed")
		return nil, fmt.Errorf("failed to list positions missing transactions: %w", err)
	}
	metrics.RecordDatabaseOperation("missing_transactions", "success")
	return addresses, nil
}

// Backfill re-fetches a position's ledgers and loads them. A position no
// longer stored is a no-op; ledgers are upserted so repeated runs converge.
func (b *Backfiller) Backfill(ctx context.Context, positionAddress string) error {
	var positionRow models.Position
	err := b.store.db.WithContext(ctx).
		Where("address = ?", positionAddress).
		First(&positionRow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			b.logger.Debug().Str("position", positionAddress).Msg("Position no longer stored, skipping backfill")
			return nil
		}
		return fmt.Errorf("failed to load position %s: %w", positionAddress, err)
	}

	deposits, err := b.ledgers.GetDeposits(ctx, positionAddress)
	if err != nil {
		return fmt.Errorf("failed to fetch deposits for %s: %w", positionAddress, err)
	}
	withdraws, err := b.ledgers.GetWithdraws(ctx, positionAddress)
	if err != nil {
		return fmt.Errorf("failed to fetch withdraws for %s: %w", positionAddress, err)
	}

	rows := buildTransactionRows(positionRow.ID, deposits, withdraws)
	if len(rows) == 0 {
		b.logger.Debug().Str("position", positionAddress).Msg("No ledger rows to backfill")
		return nil
	}

	err = b.store.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "position_id"}, {Name: "signature"}},
		DoUpdates: clause.AssignmentColumns([]string{"onchain_timestamp", "usd_balance_change", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		metrics.RecordDatabaseOperation("backfill", "failed")
		return fmt.Errorf("failed to write backfilled transactions for %s: %w", positionAddress, err)
	}

	metrics.RecordDatabaseOperation("backfill", "success")
	b.logger.Info().
		Str("position", positionAddress).
		Int("transactions", len(rows)).
		Msg("Backfilled position transactions")
	return nil
}
