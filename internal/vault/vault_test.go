package vault

import (
	"crypto/ed25519"
	"errors"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNew_SecretLength(t *testing.T) {
	if _, err := New(testSecret); err != nil {
		t.Fatalf("New with 32-byte secret failed: %v", err)
	}

	_, err := New("too short")
	if !errors.Is(err, ErrInvalidSecret) {
		t.Errorf("Expected ErrInvalidSecret, got %v", err)
	}
}

func TestGenerateAndUnlock_Roundtrip(t *testing.T) {
	v, err := New(testSecret)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	pub, blob, err := v.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !strings.Contains(blob, ":") {
		t.Errorf("Expected iv:ciphertext blob, got %q", blob)
	}
	if strings.Contains(blob, pub) {
		t.Error("Encrypted blob should not contain the public key")
	}

	key, err := v.Unlock(blob)
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	defer key.Wipe()

	if key.PublicKey() != pub {
		t.Errorf("Unlocked public key %q does not match generated %q", key.PublicKey(), pub)
	}

	// Signature must verify against the generated public key
	msg := []byte("rebalance cycle message")
	sig, err := key.Sign(msg)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	rawPub, err := base58.Decode(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(rawPub), msg, sig) {
		t.Error("Signature did not verify")
	}
}

func TestGenerate_UniqueKeys(t *testing.T) {
	v, _ := New(testSecret)

	pub1, blob1, err := v.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	pub2, blob2, err := v.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if pub1 == pub2 {
		t.Error("Two generated wallets share a public key")
	}
	if blob1 == blob2 {
		t.Error("Two generated wallets share an encrypted blob")
	}
}

func TestUnlock_WrongSecret(t *testing.T) {
	v1, _ := New(testSecret)
	v2, _ := New("ffffffffffffffffffffffffffffffff")

	_, blob, err := v1.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	_, err = v2.Unlock(blob)
	if !errors.Is(err, ErrDecryption) {
		t.Errorf("Expected ErrDecryption for wrong secret, got %v", err)
	}
}

func TestUnlock_MalformedBlob(t *testing.T) {
	v, _ := New(testSecret)

	cases := []string{
		"",
		"no-separator",
		"zz:zz",
		"00112233445566778899aabbccddeeff:",
		"00112233445566778899aabbccddeeff:abc", // not block-aligned
	}

	for _, blob := range cases {
		if _, err := v.Unlock(blob); !errors.Is(err, ErrDecryption) {
			t.Errorf("Unlock(%q): expected ErrDecryption, got %v", blob, err)
		}
	}
}

func TestSigningKey_Wipe(t *testing.T) {
	v, _ := New(testSecret)

	_, blob, err := v.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	key, err := v.Unlock(blob)
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	key.Wipe()
	key.Wipe() // idempotent

	if _, err := key.Sign([]byte("msg")); !errors.Is(err, ErrKeyWiped) {
		t.Errorf("Expected ErrKeyWiped after Wipe, got %v", err)
	}
}

func TestPadPKCS7_Roundtrip(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 64} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i)
		}

		padded := padPKCS7(data, 16)
		if len(padded)%16 != 0 {
			t.Errorf("len %d: padded length %d not block-aligned", n, len(padded))
		}

		unpadded, err := unpadPKCS7(padded, 16)
		if err != nil {
			t.Errorf("len %d: unpad failed: %v", n, err)
			continue
		}
		if len(unpadded) != n {
			t.Errorf("len %d: roundtrip length %d", n, len(unpadded))
		}
	}
}
