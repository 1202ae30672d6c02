// Package drift compares current portfolio allocations against targets
// and decides which trades bring the portfolio back in line.
package drift

import (
	"math"
	"sort"

	"solana-rebalancer/internal/domain"
)

// DefaultThreshold is the drift, in percentage points, below which a
// position is left alone.
const DefaultThreshold = 5.0

// Calculator produces trade intents from allocation drift.
type Calculator struct {
	threshold float64
}

// NewCalculator creates a calculator with the given drift threshold in
// percentage points. A non-positive threshold falls back to
// DefaultThreshold.
func NewCalculator(threshold float64) *Calculator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Calculator{threshold: threshold}
}

// Threshold returns the configured drift threshold.
func (c *Calculator) Threshold() float64 {
	return c.threshold
}

// ComputeIntents compares current allocations (percent of portfolio
// value per mint) against targets and returns one intent per target
// mint whose drift strictly exceeds the threshold. A target mint absent
// from current is treated as held at 0%. Mints held but not targeted
// are ignored. Intents come back in ascending mint order so a given
// input always yields the same plan.
func (c *Calculator) ComputeIntents(current, targets map[string]float64) []domain.TradeIntent {
	mints := make([]string, 0, len(targets))
	for mint := range targets {
		mints = append(mints, mint)
	}
	sort.Strings(mints)

	var intents []domain.TradeIntent
	for _, mint := range mints {
		target := targets[mint]
		cur := current[mint]

		drift := math.Abs(cur - target)
		if drift <= c.threshold {
			continue
		}

		action := domain.TradeActionBuy
		if cur > target {
			action = domain.TradeActionSell
		}

		intents = append(intents, domain.TradeIntent{
			Mint:              mint,
			CurrentAllocation: cur,
			TargetAllocation:  target,
			Action:            action,
			Drift:             drift,
		})
	}

	return intents
}
