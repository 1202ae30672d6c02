package vault

import (
	"crypto/ed25519"
	"errors"
)

// ErrKeyWiped is returned when signing is attempted after Wipe.
var ErrKeyWiped = errors.New("signing key has been wiped")

// SigningKey is an in-memory signing capability scoped to a single
// rebalance cycle. It must not be cached across cycles or bots; callers
// Wipe it when the cycle's EXECUTING phase finishes.
type SigningKey struct {
	priv   ed25519.PrivateKey
	public string
}

// PublicKey returns the base58 public key.
func (k *SigningKey) PublicKey() string {
	return k.public
}

// Sign signs a message. Returns ErrKeyWiped after Wipe.
func (k *SigningKey) Sign(message []byte) ([]byte, error) {
	if k.priv == nil {
		return nil, ErrKeyWiped
	}
	return ed25519.Sign(k.priv, message), nil
}

// Wipe zeroes the private key material. Safe to call more than once.
func (k *SigningKey) Wipe() {
	wipe(k.priv)
	k.priv = nil
}
