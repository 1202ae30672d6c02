package clickhouse

import (
	"context"
	"fmt"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/storage"
)

// AllocationSnapshotStore implements storage.AllocationSnapshotStore using
// ClickHouse. Each rebalance cycle appends one point per target mint so the
// drift history of a bot can be analyzed after the fact.
type AllocationSnapshotStore struct {
	conn *Conn
}

// NewAllocationSnapshotStore creates a new AllocationSnapshotStore.
func NewAllocationSnapshotStore(conn *Conn) *AllocationSnapshotStore {
	return &AllocationSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AllocationSnapshotStore = (*AllocationSnapshotStore)(nil)

// InsertBulk appends the points of one cycle.
func (s *AllocationSnapshotStore) InsertBulk(ctx context.Context, points []*domain.AllocationSnapshot) error {
	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO allocation_history (
			bot_id, cycle_id, mint, current_pct, target_pct, drift_pct, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.BotID, p.CycleID, p.Mint,
			p.CurrentPct, p.TargetPct, p.DriftPct, uint64(p.TimestampMs),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByBotID retrieves all points for a bot, ordered by timestamp ASC.
func (s *AllocationSnapshotStore) GetByBotID(ctx context.Context, botID string) ([]*domain.AllocationSnapshot, error) {
	query := `
		SELECT bot_id, cycle_id, mint, current_pct, target_pct, drift_pct, timestamp_ms
		FROM allocation_history
		WHERE bot_id = ?
		ORDER BY timestamp_ms ASC, mint ASC
	`

	rows, err := s.conn.Query(ctx, query, botID)
	if err != nil {
		return nil, fmt.Errorf("query by bot id: %w", err)
	}
	defer rows.Close()

	var points []*domain.AllocationSnapshot
	for rows.Next() {
		var (
			p  domain.AllocationSnapshot
			ts uint64
		)
		err := rows.Scan(&p.BotID, &p.CycleID, &p.Mint, &p.CurrentPct, &p.TargetPct, &p.DriftPct, &ts)
		if err != nil {
			return nil, fmt.Errorf("scan allocation point: %w", err)
		}
		p.TimestampMs = int64(ts)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allocation points: %w", err)
	}

	return points, nil
}
