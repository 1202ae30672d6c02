// Package holdings reads a wallet's current token balances from the
// ledger and presents them as a point-in-time snapshot.
package holdings

import (
	"context"
	"errors"
	"fmt"
	"log"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/ledger"
)

// ErrLedgerUnavailable is returned when the ledger cannot be queried.
var ErrLedgerUnavailable = errors.New("ledger unavailable")

// Reader captures holdings snapshots for wallet public keys.
type Reader struct {
	client ledger.Client
	logger *log.Logger
}

// NewReader creates a new holdings reader.
func NewReader(client ledger.Client, logger *log.Logger) *Reader {
	if logger == nil {
		logger = log.Default()
	}
	return &Reader{client: client, logger: logger}
}

// Snapshot returns the wallet's current balances keyed by mint address.
// A wallet with no token accounts yields an empty map, not an error.
// Zero-balance accounts are dropped; duplicate accounts for the same
// mint are summed.
func (r *Reader) Snapshot(ctx context.Context, pubkey string) (map[string]domain.TokenHolding, error) {
	accounts, err := r.client.GetTokenAccountsByOwner(ctx, pubkey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	snapshot := make(map[string]domain.TokenHolding, len(accounts))
	for _, acct := range accounts {
		if acct.Balance <= 0 {
			continue
		}
		if held, ok := snapshot[acct.Mint]; ok {
			held.Balance += acct.Balance
			snapshot[acct.Mint] = held
			continue
		}
		snapshot[acct.Mint] = domain.TokenHolding{
			Mint:     acct.Mint,
			Balance:  acct.Balance,
			Decimals: acct.Decimals,
		}
	}

	r.logger.Printf("snapshot: wallet=%s accounts=%d held=%d", pubkey, len(accounts), len(snapshot))
	return snapshot, nil
}
