// =================================
// File: internal/amount/amount.go
// =================================
package amount

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL количество лампортов в одном SOL.
const LamportsPerSOL uint64 = 1_000_000_000

var (
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrAmountOverflow = errors.New("amount does not fit into u64")
	ErrInvalidAmount  = errors.New("invalid amount")
)

var maxUint64 = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// Parse разбирает десятичную строку ("1.5", "0.000000001").
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// ToBaseUnits переводит человекочитаемое количество в минимальные единицы: floor(amount * 10^decimals).
func ToBaseUnits(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}
	scaled := amount.Shift(int32(decimals)).Floor()
	if scaled.GreaterThan(maxUint64) {
		return 0, ErrAmountOverflow
	}
	return scaled.BigInt().Uint64(), nil
}

// FromBaseUnits обратное преобразование без потери точности.
func FromBaseUnits(units uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals))
}

// SOLToLamports переводит SOL в лампорты (9 знаков).
func SOLToLamports(sol decimal.Decimal) (uint64, error) {
	return ToBaseUnits(sol, 9)
}

// LamportsToSOL переводит лампорты в SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return FromBaseUnits(lamports, 9)
}
