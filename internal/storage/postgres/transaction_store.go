package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
// Append-only: the engine only ever inserts and reads.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// Insert adds a new transaction record. Returns ErrDuplicateKey if the id
// exists.
func (s *TransactionStore) Insert(ctx context.Context, t *domain.Transaction) error {
	var details []byte
	if t.Details != nil {
		var err error
		details, err = json.Marshal(t.Details)
		if err != nil {
			return fmt.Errorf("marshal transaction details: %w", err)
		}
	}

	query := `
		INSERT INTO transactions (id, bot_id, tx_signature, status, details, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		t.ID, t.BotID, t.TxSignature, t.Status, details, t.ExecutedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByBotID retrieves all records for a bot, ordered by executed_at ASC.
func (s *TransactionStore) GetByBotID(ctx context.Context, botID string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, bot_id, tx_signature, status, details, executed_at
		FROM transactions
		WHERE bot_id = $1
		ORDER BY executed_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, botID)
	if err != nil {
		return nil, fmt.Errorf("get transactions by bot id: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction

	for rows.Next() {
		var (
			t       domain.Transaction
			details []byte
		)

		err := rows.Scan(&t.ID, &t.BotID, &t.TxSignature, &t.Status, &details, &t.ExecutedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		if len(details) > 0 {
			t.Details = &domain.TransactionDetails{}
			if err := json.Unmarshal(details, t.Details); err != nil {
				return nil, fmt.Errorf("unmarshal transaction details: %w", err)
			}
		}

		txs = append(txs, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
