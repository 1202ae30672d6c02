package storage

import (
	"context"
	"time"

	"solana-rebalancer/internal/domain"
)

// UserStore provides access to users storage.
type UserStore interface {
	// Insert adds a new user. Returns ErrDuplicateKey if the id or the
	// wallet address already exists.
	Insert(ctx context.Context, u *domain.User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByWalletAddress retrieves a user by their wallet address.
	// Returns ErrNotFound if not exists.
	GetByWalletAddress(ctx context.Context, address string) (*domain.User, error)
}

// WalletStore provides access to custodial_wallets storage.
type WalletStore interface {
	// Insert adds a new custodial wallet. Returns ErrDuplicateKey if the
	// user already has one (at most one wallet per user).
	Insert(ctx context.Context, w *domain.CustodialWallet) error

	// GetByUserID retrieves the wallet owned by a user.
	// Returns ErrNotFound if the user has no custodial wallet.
	GetByUserID(ctx context.Context, userID string) (*domain.CustodialWallet, error)
}

// BotStore provides access to bots storage.
type BotStore interface {
	// Insert adds a new bot. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, b *domain.Bot) error

	// GetByID retrieves a bot by ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Bot, error)

	// GetByUserID retrieves all bots owned by a user.
	GetByUserID(ctx context.Context, userID string) ([]*domain.Bot, error)

	// GetByFrequency retrieves all bots of a frequency class.
	GetByFrequency(ctx context.Context, frequency string) ([]*domain.Bot, error)

	// SetLastRunAt records when a bot's cycle last completed. This is the
	// only bot mutation the engine performs.
	SetLastRunAt(ctx context.Context, botID string, at time.Time) error
}

// TransactionStore provides access to transactions storage. Append-only:
// there is deliberately no update or delete operation.
type TransactionStore interface {
	// Insert adds a new transaction record. Returns ErrDuplicateKey if the
	// id exists.
	Insert(ctx context.Context, t *domain.Transaction) error

	// GetByBotID retrieves all records for a bot, ordered by executed_at ASC.
	GetByBotID(ctx context.Context, botID string) ([]*domain.Transaction, error)
}

// AllocationSnapshotStore provides access to the allocation_history
// timeseries: per-cycle per-mint allocation points.
type AllocationSnapshotStore interface {
	// InsertBulk appends the points of one cycle.
	InsertBulk(ctx context.Context, points []*domain.AllocationSnapshot) error

	// GetByBotID retrieves all points for a bot, ordered by timestamp ASC.
	GetByBotID(ctx context.Context, botID string) ([]*domain.AllocationSnapshot, error)
}
