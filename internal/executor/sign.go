package executor

import (
	"encoding/base64"
	"errors"
	"fmt"

	"solana-rebalancer/internal/vault"
)

const signatureLen = 64

var errMalformedTransaction = errors.New("malformed transaction")

// signTransaction signs a base64-encoded serialized transaction with
// the wallet key and returns the signed transaction, base64-encoded.
//
// A serialized transaction is a compact-u16 signature count, that many
// 64-byte signatures, then the message. The venue reserves slot 0 for
// the fee payer, so the wallet's signature lands there.
func signTransaction(txBase64 string, key *vault.SigningKey) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return "", fmt.Errorf("decode transaction: %w", err)
	}

	numSigs, offset, err := decodeCompactU16(raw)
	if err != nil {
		return "", err
	}
	if numSigs == 0 {
		return "", fmt.Errorf("%w: no signature slots", errMalformedTransaction)
	}

	messageStart := offset + numSigs*signatureLen
	if messageStart >= len(raw) {
		return "", fmt.Errorf("%w: truncated signatures", errMalformedTransaction)
	}

	signature, err := key.Sign(raw[messageStart:])
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}

	copy(raw[offset:offset+signatureLen], signature)

	return base64.StdEncoding.EncodeToString(raw), nil
}

// decodeCompactU16 reads a compact-u16 length prefix and returns the
// value and the number of bytes consumed.
func decodeCompactU16(data []byte) (int, int, error) {
	value := 0
	for i := 0; i < 3; i++ {
		if i >= len(data) {
			return 0, 0, fmt.Errorf("%w: truncated length prefix", errMalformedTransaction)
		}
		b := data[i]
		value |= int(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: length prefix too long", errMalformedTransaction)
}
