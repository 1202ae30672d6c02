package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/storage"
)

// BotStore implements storage.BotStore using PostgreSQL. The token pair and
// target allocation maps are stored as JSONB, matching how bot configs are
// written by the (out-of-scope) management surface.
type BotStore struct {
	pool *Pool
}

// NewBotStore creates a new BotStore.
func NewBotStore(pool *Pool) *BotStore {
	return &BotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BotStore = (*BotStore)(nil)

// Insert adds a new bot. Returns ErrDuplicateKey if the id exists.
func (s *BotStore) Insert(ctx context.Context, b *domain.Bot) error {
	pairs, err := json.Marshal(b.TokenPairs)
	if err != nil {
		return fmt.Errorf("marshal token pairs: %w", err)
	}
	targets, err := json.Marshal(b.TargetAllocations)
	if err != nil {
		return fmt.Errorf("marshal target allocations: %w", err)
	}

	query := `
		INSERT INTO bots (id, user_id, name, token_pairs, target_allocations, frequency, last_run_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		b.ID, b.UserID, b.Name, pairs, targets, b.Frequency, b.LastRunAt, b.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert bot: %w", err)
	}
	return nil
}

// GetByID retrieves a bot by ID. Returns ErrNotFound if not exists.
func (s *BotStore) GetByID(ctx context.Context, id string) (*domain.Bot, error) {
	query := selectBots + ` WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	b, err := scanBot(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bot by id: %w", err)
	}
	return b, nil
}

// GetByUserID retrieves all bots owned by a user.
func (s *BotStore) GetByUserID(ctx context.Context, userID string) ([]*domain.Bot, error) {
	query := selectBots + ` WHERE user_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get bots by user id: %w", err)
	}
	defer rows.Close()

	return scanBots(rows)
}

// GetByFrequency retrieves all bots of a frequency class.
func (s *BotStore) GetByFrequency(ctx context.Context, frequency string) ([]*domain.Bot, error) {
	query := selectBots + ` WHERE frequency = $1 ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, frequency)
	if err != nil {
		return nil, fmt.Errorf("get bots by frequency: %w", err)
	}
	defer rows.Close()

	return scanBots(rows)
}

// SetLastRunAt records when a bot's cycle last completed.
func (s *BotStore) SetLastRunAt(ctx context.Context, botID string, at time.Time) error {
	query := `UPDATE bots SET last_run_at = $2 WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, botID, at)
	if err != nil {
		return fmt.Errorf("set bot last_run_at: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const selectBots = `
	SELECT id, user_id, name, token_pairs, target_allocations, frequency, last_run_at, created_at
	FROM bots`

// scanBot scans a single row into a Bot, decoding the JSONB maps.
func scanBot(row pgx.Row) (*domain.Bot, error) {
	var (
		b       domain.Bot
		pairs   []byte
		targets []byte
	)

	err := row.Scan(&b.ID, &b.UserID, &b.Name, &pairs, &targets, &b.Frequency, &b.LastRunAt, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(pairs, &b.TokenPairs); err != nil {
		return nil, fmt.Errorf("unmarshal token pairs: %w", err)
	}
	if err := json.Unmarshal(targets, &b.TargetAllocations); err != nil {
		return nil, fmt.Errorf("unmarshal target allocations: %w", err)
	}

	return &b, nil
}

func scanBots(rows pgx.Rows) ([]*domain.Bot, error) {
	var bots []*domain.Bot

	for rows.Next() {
		b, err := scanBot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bot row: %w", err)
		}
		bots = append(bots, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bot rows: %w", err)
	}

	return bots, nil
}
