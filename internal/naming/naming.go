// internal/naming/naming.go
package naming

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain"
	"go.uber.org/zap"
)

var (
	// NameServiceProgramID программа SPL Name Service.
	NameServiceProgramID = solana.MustPublicKeyFromBase58("namesLPneVptA9Z5rqUDD9tMTWEJwofgaYwp8cawRkX")
	// SOLTLDAuthority родительский аккаунт домена .sol.
	SOLTLDAuthority = solana.MustPublicKeyFromBase58("58PwtjSDuFHuUkYjH9BYnnQKHfwo9reZhC2zMJv9JPkx")

	ErrEmptyInput       = errors.New("provide a .sol domain or a public key")
	ErrRegistryTooShort = errors.New("name registry account data too short")
)

const (
	hashPrefix = "SPL Name Service"
	// parent(32) | owner(32) | class(32)
	registryHeaderLen = 96
)

// HashName возвращает sha256(prefix + name), как в SPL Name Service.
func HashName(name string) []byte {
	sum := sha256.Sum256([]byte(hashPrefix + name))
	return sum[:]
}

// DomainKey адрес аккаунта регистрации домена (без суффикса .sol) под TLD .sol.
func DomainKey(domain string) (solana.PublicKey, error) {
	name := strings.Replace(domain, ".sol", "", 1)
	var class [32]byte
	key, _, err := solana.FindProgramAddress(
		[][]byte{HashName(name), class[:], SOLTLDAuthority.Bytes()},
		NameServiceProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive name account: %w", err)
	}
	return key, nil
}

// Resolver превращает .sol домены и строки публичных ключей в solana.PublicKey.
type Resolver struct {
	client blockchain.Client // клиент mainnet: домены существуют только там
	logger *zap.Logger
}

// NewResolver создает resolver поверх клиента сети, где зарегистрированы домены.
func NewResolver(client blockchain.Client, logger *zap.Logger) *Resolver {
	return &Resolver{client: client, logger: logger.Named("naming")}
}

// Resolve принимает домен вида "name.sol" или base58 публичный ключ.
func (r *Resolver) Resolve(ctx context.Context, input string) (solana.PublicKey, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return solana.PublicKey{}, ErrEmptyInput
	}

	if !strings.Contains(input, ".sol") {
		pk, err := solana.PublicKeyFromBase58(input)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("failed to resolve the input %s: %w", input, err)
		}
		return pk, nil
	}

	owner, err := r.resolveDomain(ctx, input)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to resolve the input %s: %w", input, err)
	}
	r.logger.Debug("domain resolved", zap.String("domain", input), zap.String("owner", owner.String()))
	return owner, nil
}

func (r *Resolver) resolveDomain(ctx context.Context, domain string) (solana.PublicKey, error) {
	key, err := DomainKey(domain)
	if err != nil {
		return solana.PublicKey{}, err
	}

	info, err := r.client.GetAccountInfo(ctx, key)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if info == nil || info.Value == nil || info.Value.Data == nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", blockchain.ErrAccountNotFound, key)
	}

	data := info.Value.Data.GetBinary()
	if len(data) < registryHeaderLen {
		return solana.PublicKey{}, fmt.Errorf("%w: %d bytes", ErrRegistryTooShort, len(data))
	}
	return solana.PublicKeyFromBytes(data[32:64]), nil
}
