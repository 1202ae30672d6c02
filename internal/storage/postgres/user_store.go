package postgres

import (
	"context"
	"fmt"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/storage"
)

// UserStore implements storage.UserStore using PostgreSQL.
type UserStore struct {
	pool *Pool
}

// NewUserStore creates a new UserStore.
func NewUserStore(pool *Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UserStore = (*UserStore)(nil)

// Insert adds a new user. Returns ErrDuplicateKey if the id or the wallet
// address already exists.
func (s *UserStore) Insert(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, wallet_address, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, u.ID, u.WalletAddress, u.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID. Returns ErrNotFound if not exists.
func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, wallet_address, created_at
		FROM users
		WHERE id = $1
	`

	var u domain.User
	err := s.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.WalletAddress, &u.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// GetByWalletAddress retrieves a user by their wallet address.
// Returns ErrNotFound if not exists.
func (s *UserStore) GetByWalletAddress(ctx context.Context, address string) (*domain.User, error) {
	query := `
		SELECT id, wallet_address, created_at
		FROM users
		WHERE wallet_address = $1
	`

	var u domain.User
	err := s.pool.QueryRow(ctx, query, address).Scan(&u.ID, &u.WalletAddress, &u.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user by wallet address: %w", err)
	}
	return &u, nil
}
