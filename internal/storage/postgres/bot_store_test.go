package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/storage"
)

func TestBotStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := createTestUser(t, ctx, pool, "bot-test-user")

	store := NewBotStore(pool)

	bot := &domain.Bot{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   "50/50 SOL-USDC",
		TokenPairs: map[string]domain.TokenInfo{
			"So11111111111111111111111111111111111111112":  {Symbol: "SOL", Name: "Solana"},
			"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {Symbol: "USDC", Name: "USD Coin"},
		},
		TargetAllocations: map[string]float64{
			"So11111111111111111111111111111111111111112":  50,
			"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": 50,
		},
		Frequency: domain.FrequencyDaily,
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, store.Insert(ctx, bot))

	got, err := store.GetByID(ctx, bot.ID)
	require.NoError(t, err)
	assert.Equal(t, bot.Name, got.Name)
	assert.Equal(t, bot.Frequency, got.Frequency)
	assert.Equal(t, bot.TargetAllocations, got.TargetAllocations)
	assert.Equal(t, bot.TokenPairs, got.TokenPairs)
	assert.Nil(t, got.LastRunAt)
}

func TestBotStore_GetByFrequency(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := createTestUser(t, ctx, pool, "freq-test-user")

	store := NewBotStore(pool)

	mkBot := func(name, freq string) *domain.Bot {
		return &domain.Bot{
			ID:                uuid.NewString(),
			UserID:            userID,
			Name:              name,
			TokenPairs:        map[string]domain.TokenInfo{"mint1": {Symbol: "AAA"}},
			TargetAllocations: map[string]float64{"mint1": 100},
			Frequency:         freq,
			CreatedAt:         time.Now().UTC(),
		}
	}

	require.NoError(t, store.Insert(ctx, mkBot("h1", domain.FrequencyHourly)))
	require.NoError(t, store.Insert(ctx, mkBot("h2", domain.FrequencyHourly)))
	require.NoError(t, store.Insert(ctx, mkBot("d1", domain.FrequencyDaily)))

	hourly, err := store.GetByFrequency(ctx, domain.FrequencyHourly)
	require.NoError(t, err)
	assert.Len(t, hourly, 2)

	weekly, err := store.GetByFrequency(ctx, domain.FrequencyWeekly)
	require.NoError(t, err)
	assert.Empty(t, weekly)
}

func TestBotStore_SetLastRunAt(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := createTestUser(t, ctx, pool, "lastrun-test-user")
	botID := createTestBot(t, ctx, pool, userID)

	store := NewBotStore(pool)

	at := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, store.SetLastRunAt(ctx, botID, at))

	got, err := store.GetByID(ctx, botID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRunAt)
	assert.WithinDuration(t, at, *got.LastRunAt, time.Millisecond)

	err = store.SetLastRunAt(ctx, uuid.NewString(), at)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
