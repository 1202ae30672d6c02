package domain

import "time"

// CustodialWallet is a keypair held on the user's behalf for automated
// trading. The private key is stored encrypted as an "iv:ciphertext" hex
// pair; only the vault can open it. At most one per user.
// Corresponds to the custodial_wallets table.
type CustodialWallet struct {
	ID                  string // UUID primary key
	UserID              string // FK to users
	PublicKey           string // base58 public key
	EncryptedPrivateKey string // "iv:ciphertext" hex pair
	CreatedAt           time.Time
}
