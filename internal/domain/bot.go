package domain

import "time"

// Rebalance frequency classes.
const (
	FrequencyHourly = "hourly"
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// TokenInfo is display metadata for a token in a bot's pair map.
type TokenInfo struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Bot is a user's rebalancing configuration: which tokens to hold, in what
// proportion, and how often to check. The engine never mutates a bot except
// for LastRunAt bookkeeping. Corresponds to the bots table.
type Bot struct {
	ID                string               // UUID primary key
	UserID            string               // FK to users
	Name              string
	TokenPairs        map[string]TokenInfo // mint -> display metadata (JSONB)
	TargetAllocations map[string]float64   // mint -> target percent, 0-100 (JSONB)
	Frequency         string               // hourly | daily | weekly
	LastRunAt         *time.Time           // nil until the first completed cycle
	CreatedAt         time.Time
}

// TargetSum returns the sum of the bot's target allocation percentages.
// A well-formed bot sums to 100; the engine re-checks this before trading.
func (b *Bot) TargetSum() float64 {
	var sum float64
	for _, pct := range b.TargetAllocations {
		sum += pct
	}
	return sum
}
