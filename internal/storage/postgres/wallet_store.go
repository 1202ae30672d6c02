package postgres

import (
	"context"
	"fmt"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/storage"
)

// WalletStore implements storage.WalletStore using PostgreSQL.
// The user_id column carries a unique constraint, which enforces the
// one-wallet-per-user invariant at the storage layer.
type WalletStore struct {
	pool *Pool
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(pool *Pool) *WalletStore {
	return &WalletStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// Insert adds a new custodial wallet. Returns ErrDuplicateKey if the user
// already has one.
func (s *WalletStore) Insert(ctx context.Context, w *domain.CustodialWallet) error {
	query := `
		INSERT INTO custodial_wallets (id, user_id, public_key, encrypted_private_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		w.ID, w.UserID, w.PublicKey, w.EncryptedPrivateKey, w.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert custodial wallet: %w", err)
	}
	return nil
}

// GetByUserID retrieves the wallet owned by a user.
// Returns ErrNotFound if the user has no custodial wallet.
func (s *WalletStore) GetByUserID(ctx context.Context, userID string) (*domain.CustodialWallet, error) {
	query := `
		SELECT id, user_id, public_key, encrypted_private_key, created_at
		FROM custodial_wallets
		WHERE user_id = $1
	`

	var w domain.CustodialWallet
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&w.ID, &w.UserID, &w.PublicKey, &w.EncryptedPrivateKey, &w.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get custodial wallet by user id: %w", err)
	}
	return &w, nil
}
