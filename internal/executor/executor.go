// Package executor turns a trade intent into a settled swap: it sizes
// the trade, obtains a venue quote and swap transaction, signs it with
// the wallet key, and submits it to the ledger.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/ledger"
	"solana-rebalancer/internal/pricing"
	"solana-rebalancer/internal/vault"
	"solana-rebalancer/internal/venue"
)

// DefaultConfirmTimeout bounds the post-submission confirmation wait.
const DefaultConfirmTimeout = 60 * time.Second

// quoteMintDecimals is the decimal count of the USDC quote asset.
const quoteMintDecimals = 6

// ErrTradeTooSmall is returned when a sized trade rounds to zero base
// units.
var ErrTradeTooSmall = errors.New("trade too small")

// VenueClient is the swap venue surface the executor needs.
type VenueClient interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64) (*venue.Quote, error)
	BuildSwapTransaction(ctx context.Context, quote *venue.Quote, userPublicKey string) (string, error)
}

// Confirmer waits for a submitted signature to confirm.
type Confirmer interface {
	Confirm(ctx context.Context, signature string) error
}

// Executor executes trade intents against the venue and ledger.
type Executor struct {
	venue          VenueClient
	ledger         ledger.Client
	confirmer      Confirmer
	quoteMint      string
	confirmTimeout time.Duration
	logger         *log.Logger
}

// Options configures Executor.
type Options struct {
	Venue  VenueClient
	Ledger ledger.Client
	// Confirmer is optional. When nil, Execute returns as soon as the
	// ledger accepts the transaction.
	Confirmer Confirmer
	// QuoteMint is the counter-asset every trade routes through.
	// Defaults to USDC.
	QuoteMint      string
	ConfirmTimeout time.Duration
	Logger         *log.Logger
}

// New creates a new executor.
func New(opts Options) (*Executor, error) {
	if opts.Venue == nil {
		return nil, errors.New("venue client is required")
	}
	if opts.Ledger == nil {
		return nil, errors.New("ledger client is required")
	}

	quoteMint := opts.QuoteMint
	if quoteMint == "" {
		quoteMint = pricing.USDCMint
	}
	confirmTimeout := opts.ConfirmTimeout
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Executor{
		venue:          opts.Venue,
		ledger:         opts.Ledger,
		confirmer:      opts.Confirmer,
		quoteMint:      quoteMint,
		confirmTimeout: confirmTimeout,
		logger:         logger,
	}, nil
}

// Execute carries out one trade intent and returns the transaction
// signature. The valuation and holdings must come from the same
// snapshot the intent was computed from.
func (e *Executor) Execute(ctx context.Context, key *vault.SigningKey, intent domain.TradeIntent, valuation pricing.Valuation, holdings map[string]domain.TokenHolding) (string, error) {
	inputMint, outputMint, amount, err := e.sizeTrade(intent, valuation, holdings)
	if err != nil {
		return "", err
	}

	quote, err := e.venue.GetQuote(ctx, inputMint, outputMint, amount)
	if err != nil {
		return "", err
	}

	owner := key.PublicKey()
	unsigned, err := e.venue.BuildSwapTransaction(ctx, quote, owner)
	if err != nil {
		return "", err
	}

	signed, err := signTransaction(unsigned, key)
	if err != nil {
		return "", err
	}

	signature, err := e.ledger.SendTransaction(ctx, signed)
	if err != nil {
		return "", fmt.Errorf("submit transaction: %w", err)
	}

	e.logger.Printf("executed %s %s: drift=%.2fpp amount=%d sig=%s",
		intent.Action, intent.Mint, intent.Drift, amount, signature)

	if e.confirmer != nil {
		confirmCtx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
		defer cancel()
		if err := e.confirmer.Confirm(confirmCtx, signature); err != nil {
			return signature, fmt.Errorf("confirm %s: %w", signature, err)
		}
	}

	return signature, nil
}

// sizeTrade converts a percentage-point drift into a base-unit swap.
// Sells dispose of the over-allocated fraction of the held balance;
// buys spend the drift's share of portfolio value in the quote asset.
func (e *Executor) sizeTrade(intent domain.TradeIntent, valuation pricing.Valuation, holdings map[string]domain.TokenHolding) (inputMint, outputMint string, amount uint64, err error) {
	if intent.Mint == e.quoteMint {
		return "", "", 0, fmt.Errorf("no venue route for quote asset %s", e.quoteMint)
	}

	switch intent.Action {
	case domain.TradeActionSell:
		holding, ok := holdings[intent.Mint]
		if !ok || intent.CurrentAllocation <= 0 {
			return "", "", 0, fmt.Errorf("sell %s: nothing held", intent.Mint)
		}
		fraction := intent.Drift / intent.CurrentAllocation
		amountUI := holding.Balance * fraction
		amount = uint64(amountUI * math.Pow10(holding.Decimals))
		inputMint, outputMint = intent.Mint, e.quoteMint

	case domain.TradeActionBuy:
		usd := valuation.Total * intent.Drift / 100
		amount = uint64(usd * math.Pow10(quoteMintDecimals))
		inputMint, outputMint = e.quoteMint, intent.Mint

	default:
		return "", "", 0, fmt.Errorf("unknown trade action %q", intent.Action)
	}

	if amount == 0 {
		return "", "", 0, fmt.Errorf("%w: %s %s sized to zero", ErrTradeTooSmall, intent.Action, intent.Mint)
	}

	return inputMint, outputMint, amount, nil
}
