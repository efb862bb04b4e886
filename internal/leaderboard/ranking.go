package leaderboard

import (
	"context"
	"fmt"

	"github.com/wnt/lpscout/internal/metrics"
)

// Entry is one ranked leaderboard row
type Entry struct {
	Rank              int     `json:"rank"`
	UserName          string  `json:"userName"`
	WalletAddress     string  `json:"walletAddress"`
	PositionAddress   string  `json:"positionAddress"`
	PairName          string  `json:"pairName"`
	AverageBalanceUSD float64 `json:"averageBalanceUsd"`
	TotalProfitUSD    float64 `json:"totalProfitUsd"`
	ProfitPercent     float64 `json:"profitPercent"`
}

// rankingQuery recomputes each position's time-weighted balance from its
// transaction rows with the same interval construction the profit engine
// uses: each balance runs from its own change to the next one, the last
// interval runs to now for an open position and is zero width otherwise.
// Profit here covers realized flows plus claimed accruals; unrealized value
// is not persisted. Positions whose deposits sum to zero rank last.
const rankingQuery = `
WITH changes AS (
    SELECT
        pt.position_id,
        pt.onchain_timestamp,
        pt.usd_balance_change,
        SUM(pt.usd_balance_change) OVER w AS balance_usd,
        LEAD(pt.onchain_timestamp) OVER w AS next_timestamp
    FROM position_transactions pt
    WHERE pt.deleted_at IS NULL
    WINDOW w AS (PARTITION BY pt.position_id ORDER BY pt.onchain_timestamp, pt.id)
),
intervals AS (
    SELECT
        c.position_id,
        c.balance_usd,
        COALESCE(
            c.next_timestamp,
            CASE WHEN p.open THEN EXTRACT(EPOCH FROM NOW())::bigint ELSE c.onchain_timestamp END
        ) - c.onchain_timestamp AS duration,
        c.usd_balance_change
    FROM changes c
    JOIN positions p ON p.id = c.position_id AND p.deleted_at IS NULL
),
per_position AS (
    SELECT
        i.position_id,
        SUM(i.balance_usd * i.duration) / NULLIF(SUM(i.duration), 0) AS average_balance_usd,
        -SUM(i.usd_balance_change) AS realized_usd,
        SUM(CASE WHEN i.usd_balance_change > 0 THEN i.usd_balance_change ELSE 0 END) AS deposits_usd
    FROM intervals i
    GROUP BY i.position_id
)
SELECT
    RANK() OVER (ORDER BY
        (pp.realized_usd + p.claimed_fees_usd + p.claimed_rewards_usd) / NULLIF(pp.deposits_usd, 0)
        DESC NULLS LAST
    ) AS rank,
    u.name AS user_name,
    w.address AS wallet_address,
    p.address AS position_address,
    pr.name AS pair_name,
    COALESCE(pp.average_balance_usd, 0) AS average_balance_usd,
    pp.realized_usd + p.claimed_fees_usd + p.claimed_rewards_usd AS total_profit_usd,
    COALESCE(
        (pp.realized_usd + p.claimed_fees_usd + p.claimed_rewards_usd) / NULLIF(pp.deposits_usd, 0),
        0
    ) AS profit_percent
FROM per_position pp
JOIN positions p ON p.id = pp.position_id
JOIN wallets w ON w.id = p.wallet_id AND w.deleted_at IS NULL
JOIN users u ON u.id = w.user_id AND u.deleted_at IS NULL
JOIN pairs pr ON pr.id = p.pair_id AND pr.deleted_at IS NULL
ORDER BY rank
LIMIT ?
`

// Rankings returns the top entries ordered by profit percent
func (s *Store) Rankings(ctx context.Context, limit int) ([]Entry, error) {
	var entries []Entry
	if err := s.db.WithContext(ctx).Raw(rankingQuery, limit).Scan(&entries).Error; err != nil {
		metrics.RecordDatabaseOperation("rankings", "failed")
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	metrics.RecordDatabaseOperation("rankings", "success")
	return entries, nil
}
