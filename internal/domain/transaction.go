package domain

import "time"

// Transaction statuses.
const (
	TxStatusPending = "pending"
	TxStatusSuccess = "success"
	TxStatusError   = "error"
)

// Transaction is one trade attempt, successful or not. Records are
// append-only: created once per attempt, never updated or deleted. They are
// the sole durable evidence of what the engine did.
// Corresponds to the transactions table.
type Transaction struct {
	ID          string // UUID primary key
	BotID       string // FK to bots
	TxSignature string // venue/ledger-assigned signature, or synthetic for failures
	Status      string // pending | success | error
	Details     *TransactionDetails
	ExecutedAt  time.Time
}

// TransactionDetails is the tagged detail payload on a transaction record.
// Exactly one of Trade or Error is set. Stored as JSONB.
type TransactionDetails struct {
	Trade *TradeDetails `json:"trade,omitempty"`
	Error *ErrorDetails `json:"error,omitempty"`
}

// TradeDetails echoes the intent a successful (or attempted) trade came from.
type TradeDetails struct {
	Action         string  `json:"action"` // buy | sell
	TokenMint      string  `json:"tokenMint"`
	FromAllocation float64 `json:"fromAllocation"` // percent before
	ToAllocation   float64 `json:"toAllocation"`   // target percent
}

// ErrorDetails carries the failure message for an error-status record.
type ErrorDetails struct {
	Message string `json:"error"`
}
