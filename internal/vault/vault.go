// Package vault owns encryption and decryption of custodial signing keys.
// Private keys are encrypted with AES-256-CBC immediately on generation and
// stored as an "iv:ciphertext" hex pair; the plaintext key exists only
// inside a SigningKey scoped to one rebalance cycle.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Vault errors.
var (
	// ErrDecryption is returned when an encrypted key blob is malformed or
	// was encrypted under a different vault secret. Not a transient
	// condition: it means the stored wallet and the running process
	// disagree about the encryption key.
	ErrDecryption = errors.New("key decryption failed")

	// ErrInvalidSecret is returned when the vault secret is not exactly
	// 32 bytes (AES-256).
	ErrInvalidSecret = errors.New("vault secret must be 32 bytes")
)

// Vault encrypts and decrypts custodial wallet keys with a process-wide
// secret fixed at startup.
type Vault struct {
	secret []byte
}

// New creates a Vault from a 32-byte secret.
func New(secret string) (*Vault, error) {
	if len(secret) != 32 {
		return nil, ErrInvalidSecret
	}
	return &Vault{secret: []byte(secret)}, nil
}

// Generate produces a fresh keypair and returns the base58 public key
// together with the encrypted private key blob. The plaintext private key
// never leaves this function.
func (v *Vault) Generate() (publicKey, encryptedKey string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate keypair: %w", err)
	}

	publicKey = base58.Encode(pub)
	secretKey := base58.Encode(priv)

	encryptedKey, err = v.encrypt([]byte(secretKey))
	// secretKey is a string and cannot be zeroed, but the backing private
	// key slice can.
	wipe(priv)
	if err != nil {
		return "", "", fmt.Errorf("encrypt private key: %w", err)
	}

	return publicKey, encryptedKey, nil
}

// Unlock decrypts an encrypted key blob into an in-memory signing
// capability. Callers must Wipe the key once the cycle that needed it is
// finished.
func (v *Vault) Unlock(encryptedKey string) (*SigningKey, error) {
	plaintext, err := v.decrypt(encryptedKey)
	if err != nil {
		return nil, err
	}

	raw, err := base58.Decode(string(plaintext))
	wipe(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: decode secret key: %v", ErrDecryption, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		wipe(raw)
		return nil, fmt.Errorf("%w: unexpected secret key length %d", ErrDecryption, len(raw))
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)

	// A decryption under the wrong secret that still base58-decodes would
	// yield garbage; requiring the public half to be a valid curve point
	// catches that before anything gets signed.
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		wipe(raw)
		return nil, fmt.Errorf("%w: public key not on curve", ErrDecryption)
	}

	return &SigningKey{priv: priv, public: base58.Encode(pub)}, nil
}

// encrypt seals plaintext under the vault secret, returning the
// "iv:ciphertext" hex pair.
func (v *Vault) encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(v.secret)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	padded := padPKCS7(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// decrypt opens an "iv:ciphertext" hex pair.
func (v *Vault) decrypt(blob string) ([]byte, error) {
	parts := strings.SplitN(blob, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: blob is not an iv:ciphertext pair", ErrDecryption)
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: bad iv", ErrDecryption)
	}

	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: bad ciphertext", ErrDecryption)
	}

	block, err := aes.NewCipher(v.secret)
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := unpadPKCS7(plaintext, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	return unpadded, nil
}

func padPKCS7(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
