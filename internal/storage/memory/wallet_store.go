package memory

import (
	"context"
	"sync"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/storage"
)

// WalletStore is an in-memory implementation of storage.WalletStore.
type WalletStore struct {
	mu       sync.RWMutex
	data     map[string]*domain.CustodialWallet // keyed by id
	byUserID map[string]string                  // user id -> wallet id
}

// NewWalletStore creates a new in-memory custodial wallet store.
func NewWalletStore() *WalletStore {
	return &WalletStore{
		data:     make(map[string]*domain.CustodialWallet),
		byUserID: make(map[string]string),
	}
}

// Insert adds a new custodial wallet. Returns ErrDuplicateKey if the user
// already has one.
func (s *WalletStore) Insert(_ context.Context, w *domain.CustodialWallet) error {
	if w == nil || w.ID == "" || w.UserID == "" || w.PublicKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[w.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.byUserID[w.UserID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *w
	s.data[w.ID] = &cp
	s.byUserID[w.UserID] = w.ID
	return nil
}

// GetByUserID retrieves the wallet owned by a user.
func (s *WalletStore) GetByUserID(_ context.Context, userID string) (*domain.CustodialWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byUserID[userID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *s.data[id]
	return &cp, nil
}

var _ storage.WalletStore = (*WalletStore)(nil)
