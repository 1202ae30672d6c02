package memory

import (
	"context"
	"sort"
	"sync"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/storage"
)

// AllocationSnapshotStore is an in-memory implementation of
// storage.AllocationSnapshotStore.
type AllocationSnapshotStore struct {
	mu   sync.RWMutex
	data []*domain.AllocationSnapshot
}

// NewAllocationSnapshotStore creates a new in-memory snapshot store.
func NewAllocationSnapshotStore() *AllocationSnapshotStore {
	return &AllocationSnapshotStore{}
}

// InsertBulk appends the points of one cycle.
func (s *AllocationSnapshotStore) InsertBulk(_ context.Context, points []*domain.AllocationSnapshot) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if p == nil || p.BotID == "" || p.Mint == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		cp := *p
		s.data = append(s.data, &cp)
	}
	return nil
}

// GetByBotID retrieves all points for a bot, ordered by timestamp ASC.
func (s *AllocationSnapshotStore) GetByBotID(_ context.Context, botID string) ([]*domain.AllocationSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AllocationSnapshot
	for _, p := range s.data {
		if p.BotID == botID {
			cp := *p
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TimestampMs == result[j].TimestampMs {
			return result[i].Mint < result[j].Mint
		}
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

var _ storage.AllocationSnapshotStore = (*AllocationSnapshotStore)(nil)
