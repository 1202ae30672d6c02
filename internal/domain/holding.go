package domain

// TokenHolding is one token balance from a wallet snapshot.
type TokenHolding struct {
	Mint     string
	Balance  float64 // UI amount (already divided by 10^decimals)
	Decimals int
}

// AllocationSnapshot is one per-mint allocation point captured during a
// rebalance cycle, for the allocation_history timeseries.
type AllocationSnapshot struct {
	BotID       string
	CycleID     string
	Mint        string
	CurrentPct  float64
	TargetPct   float64
	DriftPct    float64
	TimestampMs int64
}
