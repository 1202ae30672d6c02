// Command walletgen provisions a user with a custodial wallet: it
// generates a keypair, encrypts the private key at rest, and stores
// both records. The plaintext key is never printed or persisted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/storage"
	pgstore "solana-rebalancer/internal/storage/postgres"
	"solana-rebalancer/internal/vault"
)

func main() {
	_ = godotenv.Load()

	walletAddress := flag.String("wallet-address", "", "User's own (non-custodial) wallet address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")

	flag.Parse()

	logger := log.New(os.Stdout, "[walletgen] ", log.LstdFlags)

	if err := run(context.Background(), logger, *walletAddress, *postgresDSN); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, walletAddress, postgresDSN string) error {
	if walletAddress == "" {
		return fmt.Errorf("--wallet-address is required")
	}
	if postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required")
	}

	v, err := vault.New(os.Getenv("WALLET_ENCRYPTION_KEY"))
	if err != nil {
		return fmt.Errorf("WALLET_ENCRYPTION_KEY: %w", err)
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	users := pgstore.NewUserStore(pool)
	wallets := pgstore.NewWalletStore(pool)

	// Reuse the user if the address is already registered
	user, err := users.GetByWalletAddress(ctx, walletAddress)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		user = &domain.User{
			ID:            uuid.NewString(),
			WalletAddress: walletAddress,
			CreatedAt:     time.Now(),
		}
		if err := users.Insert(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		logger.Printf("Created user %s", user.ID)
	case err != nil:
		return fmt.Errorf("look up user: %w", err)
	default:
		logger.Printf("User %s already registered", user.ID)
	}

	publicKey, encryptedKey, err := v.Generate()
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}

	wallet := &domain.CustodialWallet{
		ID:                  uuid.NewString(),
		UserID:              user.ID,
		PublicKey:           publicKey,
		EncryptedPrivateKey: encryptedKey,
		CreatedAt:           time.Now(),
	}
	if err := wallets.Insert(ctx, wallet); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			existing, lookupErr := wallets.GetByUserID(ctx, user.ID)
			if lookupErr == nil {
				return fmt.Errorf("user already has custodial wallet %s", existing.PublicKey)
			}
			return fmt.Errorf("user already has a custodial wallet")
		}
		return fmt.Errorf("store wallet: %w", err)
	}

	logger.Printf("Created custodial wallet %s", wallet.PublicKey)
	return nil
}
