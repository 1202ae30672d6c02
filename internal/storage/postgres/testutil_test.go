package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"solana-rebalancer/internal/domain"
)

// setupTestDB starts a PostgreSQL container and provisions the schema.
// Schema migration is owned by the deployment, not this engine, so the
// tests create the tables the stores expect.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	createSchema(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

func createSchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	statements := []string{
		`CREATE TABLE users (
			id UUID PRIMARY KEY,
			wallet_address TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE custodial_wallets (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL UNIQUE REFERENCES users (id),
			public_key TEXT NOT NULL,
			encrypted_private_key TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE bots (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users (id),
			name TEXT NOT NULL,
			token_pairs JSONB NOT NULL,
			target_allocations JSONB NOT NULL,
			frequency TEXT NOT NULL,
			last_run_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE transactions (
			id UUID PRIMARY KEY,
			bot_id UUID NOT NULL REFERENCES bots (id),
			tx_signature TEXT NOT NULL,
			status TEXT NOT NULL,
			details JSONB,
			executed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX transactions_bot_id_idx ON transactions (bot_id, executed_at)`,
	}

	for _, stmt := range statements {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err, "failed to create schema")
	}
}

// createTestUser inserts a user and returns its id.
func createTestUser(t *testing.T, ctx context.Context, pool *Pool, address string) string {
	t.Helper()

	u := &domain.User{
		ID:            uuid.NewString(),
		WalletAddress: address,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, NewUserStore(pool).Insert(ctx, u))
	return u.ID
}

// createTestBot inserts a bot owned by userID and returns its id.
func createTestBot(t *testing.T, ctx context.Context, pool *Pool, userID string) string {
	t.Helper()

	b := &domain.Bot{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   "test bot",
		TokenPairs: map[string]domain.TokenInfo{
			"So11111111111111111111111111111111111111112": {Symbol: "SOL", Name: "Solana"},
		},
		TargetAllocations: map[string]float64{
			"So11111111111111111111111111111111111111112": 100,
		},
		Frequency: domain.FrequencyHourly,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, NewBotStore(pool).Insert(ctx, b))
	return b.ID
}
