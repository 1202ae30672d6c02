package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"solana-rebalancer/internal/ledger"
)

// ErrUnavailable simulates a ledger endpoint failure.
var ErrUnavailable = errors.New("ledger unavailable")

// RPCClient implements ledger.Client for testing.
type RPCClient struct {
	mu sync.Mutex

	Accounts map[string][]ledger.TokenAccount
	Statuses map[string]*ledger.SignatureStatus

	// FailAccounts makes GetTokenAccountsByOwner return ErrUnavailable.
	FailAccounts bool
	// FailSend makes SendTransaction return ErrUnavailable.
	FailSend bool

	// Sent collects all transactions submitted through SendTransaction,
	// in order. Signatures returned are "sig-1", "sig-2", ...
	Sent []string
}

var _ ledger.Client = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts: make(map[string][]ledger.TokenAccount),
		Statuses: make(map[string]*ledger.SignatureStatus),
	}
}

// GetTokenAccountsByOwner returns the accounts seeded for the owner.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner string) ([]ledger.TokenAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailAccounts {
		return nil, ErrUnavailable
	}
	return c.Accounts[owner], nil
}

// SendTransaction records the submitted transaction and returns a
// synthetic signature.
func (c *RPCClient) SendTransaction(_ context.Context, signedTxBase64 string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailSend {
		return "", ErrUnavailable
	}
	c.Sent = append(c.Sent, signedTxBase64)
	return fmt.Sprintf("sig-%d", len(c.Sent)), nil
}

// GetSignatureStatuses returns one entry per requested signature, nil
// for unknown signatures.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*ledger.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	statuses := make([]*ledger.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		statuses[i] = c.Statuses[sig]
	}
	return statuses, nil
}

// AddAccount seeds a token account for an owner.
func (c *RPCClient) AddAccount(owner string, account ledger.TokenAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[owner] = append(c.Accounts[owner], account)
}

// SetStatus seeds a signature status.
func (c *RPCClient) SetStatus(signature string, status *ledger.SignatureStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses[signature] = status
}
