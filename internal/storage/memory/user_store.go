package memory

import (
	"context"
	"sync"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/storage"
)

// UserStore is an in-memory implementation of storage.UserStore.
type UserStore struct {
	mu        sync.RWMutex
	data      map[string]*domain.User // keyed by id
	byAddress map[string]string       // wallet address -> id
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		data:      make(map[string]*domain.User),
		byAddress: make(map[string]string),
	}
}

// Insert adds a new user. Returns ErrDuplicateKey if the id or the wallet
// address already exists.
func (s *UserStore) Insert(_ context.Context, u *domain.User) error {
	if u == nil || u.ID == "" || u.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[u.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.byAddress[u.WalletAddress]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *u
	s.data[u.ID] = &cp
	s.byAddress[u.WalletAddress] = u.ID
	return nil
}

// GetByID retrieves a user by ID. Returns ErrNotFound if not exists.
func (s *UserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *u
	return &cp, nil
}

// GetByWalletAddress retrieves a user by their wallet address.
func (s *UserStore) GetByWalletAddress(_ context.Context, address string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byAddress[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *s.data[id]
	return &cp, nil
}

var _ storage.UserStore = (*UserStore)(nil)
