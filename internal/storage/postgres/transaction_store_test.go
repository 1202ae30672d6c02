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

func TestTransactionStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := createTestUser(t, ctx, pool, "tx-test-user")
	botID := createTestBot(t, ctx, pool, userID)

	store := NewTransactionStore(pool)

	tx := &domain.Transaction{
		ID:          uuid.NewString(),
		BotID:       botID,
		TxSignature: "5UfDuX1svXRTjmPuSDpGyzWp8iK4QxQWhpt7nnLC1zrMrWZvJ6DvqxuZMyzVtkU8",
		Status:      domain.TxStatusSuccess,
		Details: &domain.TransactionDetails{
			Trade: &domain.TradeDetails{
				Action:         domain.TradeActionBuy,
				TokenMint:      "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
				FromAllocation: 0,
				ToAllocation:   50,
			},
		},
		ExecutedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	require.NoError(t, store.Insert(ctx, tx))

	got, err := store.GetByBotID(ctx, botID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tx.TxSignature, got[0].TxSignature)
	assert.Equal(t, domain.TxStatusSuccess, got[0].Status)
	require.NotNil(t, got[0].Details)
	require.NotNil(t, got[0].Details.Trade)
	assert.Nil(t, got[0].Details.Error)
	assert.Equal(t, domain.TradeActionBuy, got[0].Details.Trade.Action)
	assert.InDelta(t, 50, got[0].Details.Trade.ToAllocation, 0.0001)
}

func TestTransactionStore_ErrorDetails(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := createTestUser(t, ctx, pool, "tx-error-user")
	botID := createTestBot(t, ctx, pool, userID)

	store := NewTransactionStore(pool)

	tx := &domain.Transaction{
		ID:          uuid.NewString(),
		BotID:       botID,
		TxSignature: "error_1700000000",
		Status:      domain.TxStatusError,
		Details: &domain.TransactionDetails{
			Error: &domain.ErrorDetails{Message: "quote unavailable: no route"},
		},
		ExecutedAt: time.Now().UTC(),
	}

	require.NoError(t, store.Insert(ctx, tx))

	got, err := store.GetByBotID(ctx, botID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Details)
	require.NotNil(t, got[0].Details.Error)
	assert.Nil(t, got[0].Details.Trade)
	assert.Equal(t, "quote unavailable: no route", got[0].Details.Error.Message)
}

func TestTransactionStore_DuplicateID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := createTestUser(t, ctx, pool, "tx-dup-user")
	botID := createTestBot(t, ctx, pool, userID)

	store := NewTransactionStore(pool)

	tx := &domain.Transaction{
		ID:          uuid.NewString(),
		BotID:       botID,
		TxSignature: "sig",
		Status:      domain.TxStatusSuccess,
		ExecutedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.Insert(ctx, tx))

	err := store.Insert(ctx, tx)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTransactionStore_OrderedByExecutedAt(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := createTestUser(t, ctx, pool, "tx-order-user")
	botID := createTestBot(t, ctx, pool, userID)

	store := NewTransactionStore(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	sigs := []string{"sig-c", "sig-a", "sig-b"}
	offsets := []time.Duration{2 * time.Minute, 0, time.Minute}

	for i, sig := range sigs {
		tx := &domain.Transaction{
			ID:          uuid.NewString(),
			BotID:       botID,
			TxSignature: sig,
			Status:      domain.TxStatusSuccess,
			ExecutedAt:  base.Add(offsets[i]),
		}
		require.NoError(t, store.Insert(ctx, tx))
	}

	got, err := store.GetByBotID(ctx, botID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "sig-a", got[0].TxSignature)
	assert.Equal(t, "sig-b", got[1].TxSignature)
	assert.Equal(t, "sig-c", got[2].TxSignature)
}
