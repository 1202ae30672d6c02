// Package ledger provides read and submit access to the Solana ledger:
// token balances by owner, transaction submission, and settlement status.
package ledger

import "context"

// TokenProgramID is the SPL token program that owns fungible token accounts.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// Client defines the ledger RPC interface the engine depends on.
type Client interface {
	// GetTokenAccountsByOwner retrieves all SPL token balances held by an
	// owner. An owner with no token accounts yields an empty slice.
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error)

	// SendTransaction submits a signed, base64-encoded transaction and
	// returns its signature.
	SendTransaction(ctx context.Context, signedTxBase64 string) (string, error)

	// GetSignatureStatuses retrieves confirmation status for signatures.
	// A nil entry means the ledger does not know the signature.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}

// TokenAccount is one parsed SPL token balance.
type TokenAccount struct {
	Mint     string
	Balance  float64 // UI amount
	Decimals int
}

// SignatureStatus is the confirmation state of a submitted transaction.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int
	ConfirmationStatus string // processed | confirmed | finalized
	Err                interface{}
}
