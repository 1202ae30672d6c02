package domain

// Trade actions.
const (
	TradeActionBuy  = "buy"
	TradeActionSell = "sell"
)

// TradeIntent is one trade the drift calculator decided is needed.
// Ephemeral: computed fresh every cycle, never persisted directly (a
// Transaction record echoes it after execution).
type TradeIntent struct {
	Mint              string
	CurrentAllocation float64 // estimated percent of portfolio value
	TargetAllocation  float64 // percent
	Action            string  // buy | sell
	Drift             float64 // |current - target| in percentage points
}
