package executor

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/mr-tron/base58"

	"solana-rebalancer/internal/vault"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testSigningKey(t *testing.T) *vault.SigningKey {
	t.Helper()

	v, err := vault.New(testSecret)
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}

	_, encrypted, err := v.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	key, err := v.Unlock(encrypted)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	return key
}

// unsignedTransaction builds a serialized transaction with the given
// number of empty signature slots.
func unsignedTransaction(numSigs int, message []byte) string {
	raw := append([]byte{byte(numSigs)}, make([]byte, numSigs*signatureLen)...)
	raw = append(raw, message...)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestSignTransaction(t *testing.T) {
	key := testSigningKey(t)
	message := []byte("swap message bytes")

	signed, err := signTransaction(unsignedTransaction(1, message), key)
	if err != nil {
		t.Fatalf("signTransaction: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(signed)
	if err != nil {
		t.Fatalf("decode signed tx: %v", err)
	}

	if raw[0] != 1 {
		t.Fatalf("expected 1 signature slot, got %d", raw[0])
	}

	signature := raw[1 : 1+signatureLen]
	gotMessage := raw[1+signatureLen:]

	if !bytes.Equal(gotMessage, message) {
		t.Error("message bytes changed during signing")
	}

	pub, err := base58.Decode(key.PublicKey())
	if err != nil {
		t.Fatalf("decode pubkey: %v", err)
	}

	if !ed25519.Verify(ed25519.PublicKey(pub), message, signature) {
		t.Error("signature does not verify against wallet pubkey")
	}
}

func TestSignTransaction_MultipleSlots(t *testing.T) {
	key := testSigningKey(t)
	message := []byte("multi-signer message")

	signed, err := signTransaction(unsignedTransaction(2, message), key)
	if err != nil {
		t.Fatalf("signTransaction: %v", err)
	}

	raw, _ := base64.StdEncoding.DecodeString(signed)

	// Only slot 0 is filled
	slot0 := raw[1 : 1+signatureLen]
	slot1 := raw[1+signatureLen : 1+2*signatureLen]

	if bytes.Equal(slot0, make([]byte, signatureLen)) {
		t.Error("slot 0 should hold the wallet signature")
	}
	if !bytes.Equal(slot1, make([]byte, signatureLen)) {
		t.Error("slot 1 should remain empty")
	}

	pub, _ := base58.Decode(key.PublicKey())
	if !ed25519.Verify(ed25519.PublicKey(pub), message, slot0) {
		t.Error("signature does not verify")
	}
}

func TestSignTransaction_Malformed(t *testing.T) {
	key := testSigningKey(t)

	tests := []struct {
		name string
		tx   string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"empty", base64.StdEncoding.EncodeToString(nil)},
		{"zero signature slots", base64.StdEncoding.EncodeToString([]byte{0x00, 0x01, 0x02})},
		{"truncated signatures", base64.StdEncoding.EncodeToString([]byte{0x02, 0x00, 0x00})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := signTransaction(tt.tx, key); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSignTransaction_WipedKey(t *testing.T) {
	key := testSigningKey(t)
	key.Wipe()

	_, err := signTransaction(unsignedTransaction(1, []byte("msg")), key)
	if !errors.Is(err, vault.ErrKeyWiped) {
		t.Fatalf("expected ErrKeyWiped, got %v", err)
	}
}

func TestDecodeCompactU16(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantValue int
		wantLen   int
		wantErr   bool
	}{
		{"single byte", []byte{0x05, 0xff}, 5, 1, false},
		{"zero", []byte{0x00}, 0, 1, false},
		{"max single byte", []byte{0x7f}, 127, 1, false},
		{"two bytes", []byte{0x80, 0x01}, 128, 2, false},
		{"two bytes mid", []byte{0xff, 0x01}, 255, 2, false},
		{"three bytes", []byte{0x80, 0x80, 0x01}, 16384, 3, false},
		{"empty", nil, 0, 0, true},
		{"truncated continuation", []byte{0x80}, 0, 0, true},
		{"overlong", []byte{0x80, 0x80, 0x80, 0x01}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, n, err := decodeCompactU16(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeCompactU16: %v", err)
			}
			if value != tt.wantValue {
				t.Errorf("expected value %d, got %d", tt.wantValue, value)
			}
			if n != tt.wantLen {
				t.Errorf("expected %d bytes consumed, got %d", tt.wantLen, n)
			}
		})
	}
}
