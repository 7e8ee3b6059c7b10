// ==================================
// File: internal/wallet/codec.go
// ==================================
package wallet

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// SecretKeyLength длина секретного ключа Solana: 32 байта seed + 32 байта публичного ключа.
const SecretKeyLength = 64

var (
	ErrInvalidBase58     = errors.New("invalid base58 private key")
	ErrInvalidSecretKey  = errors.New("invalid secret key")
	ErrInvalidArrayValue = errors.New("invalid secret key array value")
)

// FromBase58 восстанавливает кошелёк из base58-строки секретного ключа.
func FromBase58(s string) (*Wallet, error) {
	decoded, err := base58.Decode(strings.TrimSpace(s))
	if err != nil || len(decoded) != SecretKeyLength {
		return nil, ErrInvalidBase58
	}
	w, err := FromSecretKey(decoded)
	if err != nil {
		return nil, ErrInvalidBase58
	}
	return w, nil
}

// Base58 кодирует 64-байтовый секретный ключ в base58.
func (w *Wallet) Base58() string {
	return base58.Encode(w.PrivateKey)
}

// ParseSecretKeyArray разбирает строку вида "[1, 2, ...]" или "1,2,..." в 64 байта.
func ParseSecretKeyArray(s string) ([]byte, error) {
	cleaned := strings.NewReplacer("[", "", "]", "").Replace(s)
	parts := strings.Split(cleaned, ",")
	if len(parts) != SecretKeyLength {
		return nil, fmt.Errorf("invalid secret key array length: expected %d numbers, got %d", SecretKeyLength, len(parts))
	}

	secret := make([]byte, 0, SecretKeyLength)
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w at position %d: %q", ErrInvalidArrayValue, i, strings.TrimSpace(part))
		}
		secret = append(secret, byte(v))
	}
	return secret, nil
}

// FormatSecretKeyArray форматирует байты как JSON-массив с разделителем ", ".
func FormatSecretKeyArray(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	sb.WriteByte(']')
	return sb.String()
}

// FromSecretKeyArray кошелёк из строкового массива чисел.
func FromSecretKeyArray(s string) (*Wallet, error) {
	secret, err := ParseSecretKeyArray(s)
	if err != nil {
		return nil, err
	}
	return FromSecretKey(secret)
}

// validateSecretKey проверяет, что вторая половина ключа совпадает с публичным ключом seed.
func validateSecretKey(secret []byte) error {
	if len(secret) != SecretKeyLength {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSecretKey, SecretKeyLength, len(secret))
	}
	derived := ed25519.NewKeyFromSeed(secret[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], secret[ed25519.SeedSize:]) {
		return fmt.Errorf("%w: public key does not match seed", ErrInvalidSecretKey)
	}
	return nil
}
