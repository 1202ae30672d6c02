package memory

import (
	"context"
	"sort"
	"sync"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Transaction // keyed by id
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]*domain.Transaction),
	}
}

// Insert adds a new transaction record. Returns ErrDuplicateKey if the id
// exists.
func (s *TransactionStore) Insert(_ context.Context, t *domain.Transaction) error {
	if t == nil || t.ID == "" || t.BotID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[t.ID] = cloneTransaction(t)
	return nil
}

// GetByBotID retrieves all records for a bot, ordered by executed_at ASC.
func (s *TransactionStore) GetByBotID(_ context.Context, botID string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, t := range s.data {
		if t.BotID == botID {
			result = append(result, cloneTransaction(t))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ExecutedAt.Equal(result[j].ExecutedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].ExecutedAt.Before(result[j].ExecutedAt)
	})

	return result, nil
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	cp := *t
	if t.Details != nil {
		d := *t.Details
		if t.Details.Trade != nil {
			tr := *t.Details.Trade
			d.Trade = &tr
		}
		if t.Details.Error != nil {
			e := *t.Details.Error
			d.Error = &e
		}
		cp.Details = &d
	}
	return &cp
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
