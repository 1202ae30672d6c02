// Package pricing values a holdings snapshot in USD and derives the
// portfolio's current allocation percentages.
package pricing

import (
	"context"
	"log"
	"math"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/venue"
)

// USDCMint is the quote currency every holding is priced against.
const USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

const usdcDecimals = 6

// Quoter is the venue surface the valuer needs.
type Quoter interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64) (*venue.Quote, error)
}

// Valuation is a priced snapshot: per-mint USD values, the portfolio
// total, and each mint's share of it in percent.
type Valuation struct {
	Values      map[string]float64
	Total       float64
	Allocations map[string]float64
}

// Valuer prices holdings through venue quotes.
type Valuer struct {
	quoter Quoter
	logger *log.Logger
}

// NewValuer creates a new valuer.
func NewValuer(quoter Quoter, logger *log.Logger) *Valuer {
	if logger == nil {
		logger = log.Default()
	}
	return &Valuer{quoter: quoter, logger: logger}
}

// Value prices each holding by quoting one whole unit of its mint into
// USDC. USDC itself is valued at face. A mint the venue cannot quote is
// valued at its raw balance so it still counts toward the total.
func (v *Valuer) Value(ctx context.Context, holdings map[string]domain.TokenHolding) Valuation {
	values := make(map[string]float64, len(holdings))

	for mint, holding := range holdings {
		if mint == USDCMint {
			values[mint] = holding.Balance
			continue
		}

		oneUnit := uint64(math.Pow10(holding.Decimals))
		quote, err := v.quoter.GetQuote(ctx, mint, USDCMint, oneUnit)
		if err != nil {
			v.logger.Printf("pricing: no quote for %s, using raw balance: %v", mint, err)
			values[mint] = holding.Balance
			continue
		}

		price := float64(quote.OutAmount) / math.Pow10(usdcDecimals)
		values[mint] = holding.Balance * price
	}

	total := 0.0
	for _, value := range values {
		total += value
	}

	return Valuation{
		Values:      values,
		Total:       total,
		Allocations: AllocationsFromValues(values, total),
	}
}

// AllocationsFromValues converts per-mint USD values into percentages
// of the total. A zero or negative total yields an empty map.
func AllocationsFromValues(values map[string]float64, total float64) map[string]float64 {
	allocations := make(map[string]float64, len(values))
	if total <= 0 {
		return allocations
	}
	for mint, value := range values {
		allocations[mint] = value / total * 100
	}
	return allocations
}
