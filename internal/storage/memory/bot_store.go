package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/storage"
)

// BotStore is an in-memory implementation of storage.BotStore.
type BotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Bot // keyed by id
}

// NewBotStore creates a new in-memory bot store.
func NewBotStore() *BotStore {
	return &BotStore{
		data: make(map[string]*domain.Bot),
	}
}

// Insert adds a new bot. Returns ErrDuplicateKey if the id exists.
func (s *BotStore) Insert(_ context.Context, b *domain.Bot) error {
	if b == nil || b.ID == "" || b.UserID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[b.ID] = cloneBot(b)
	return nil
}

// GetByID retrieves a bot by ID. Returns ErrNotFound if not exists.
func (s *BotStore) GetByID(_ context.Context, id string) (*domain.Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return cloneBot(b), nil
}

// GetByUserID retrieves all bots owned by a user, ordered by creation time.
func (s *BotStore) GetByUserID(_ context.Context, userID string) ([]*domain.Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bot
	for _, b := range s.data {
		if b.UserID == userID {
			result = append(result, cloneBot(b))
		}
	}

	sortBots(result)
	return result, nil
}

// GetByFrequency retrieves all bots of a frequency class, ordered by
// creation time.
func (s *BotStore) GetByFrequency(_ context.Context, frequency string) ([]*domain.Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bot
	for _, b := range s.data {
		if b.Frequency == frequency {
			result = append(result, cloneBot(b))
		}
	}

	sortBots(result)
	return result, nil
}

// SetLastRunAt records when a bot's cycle last completed.
func (s *BotStore) SetLastRunAt(_ context.Context, botID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.data[botID]
	if !exists {
		return storage.ErrNotFound
	}

	t := at
	b.LastRunAt = &t
	return nil
}

// cloneBot deep-copies a bot so callers cannot mutate stored state through
// the returned maps.
func cloneBot(b *domain.Bot) *domain.Bot {
	cp := *b
	cp.TokenPairs = make(map[string]domain.TokenInfo, len(b.TokenPairs))
	for k, v := range b.TokenPairs {
		cp.TokenPairs[k] = v
	}
	cp.TargetAllocations = make(map[string]float64, len(b.TargetAllocations))
	for k, v := range b.TargetAllocations {
		cp.TargetAllocations[k] = v
	}
	if b.LastRunAt != nil {
		t := *b.LastRunAt
		cp.LastRunAt = &t
	}
	return &cp
}

func sortBots(bots []*domain.Bot) {
	sort.Slice(bots, func(i, j int) bool {
		if bots[i].CreatedAt.Equal(bots[j].CreatedAt) {
			return bots[i].ID < bots[j].ID
		}
		return bots[i].CreatedAt.Before(bots[j].CreatedAt)
	})
}

var _ storage.BotStore = (*BotStore)(nil)
