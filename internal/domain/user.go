package domain

import "time"

// User represents a registered user, identified by their on-chain wallet
// address. Corresponds to the users table.
type User struct {
	ID            string // UUID primary key
	WalletAddress string // unique, the address the user authenticated with
	CreatedAt     time.Time
}
