package amount

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		want     uint64
		wantErr  error
	}{
		{name: "whole tokens", amount: "5", decimals: 2, want: 500},
		{name: "fraction floored", amount: "1.239", decimals: 2, want: 123},
		{name: "zero decimals", amount: "7.99", decimals: 0, want: 7},
		{name: "one lamport", amount: "0.000000001", decimals: 9, want: 1},
		{name: "below smallest unit", amount: "0.0000000009", decimals: 9, want: 0},
		{name: "zero", amount: "0", decimals: 6, want: 0},
		{name: "negative", amount: "-1", decimals: 6, wantErr: ErrNegativeAmount},
		{name: "overflow", amount: "18446744073709551616", decimals: 0, wantErr: ErrAmountOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(decimal.RequireFromString(tt.amount), tt.decimals)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToBaseUnitsMaxUint64(t *testing.T) {
	got, err := ToBaseUnits(decimal.RequireFromString("18446744073709551615"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got)
}

func TestFromBaseUnits(t *testing.T) {
	assert.Equal(t, "1.5", FromBaseUnits(150, 2).String())
	assert.Equal(t, "0.000000001", FromBaseUnits(1, 9).String())
	assert.Equal(t, "42", FromBaseUnits(42, 0).String())
}

func TestSOLConversion(t *testing.T) {
	lamports, err := SOLToLamports(decimal.RequireFromString("1.5"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), lamports)
	assert.Equal(t, LamportsPerSOL, uint64(1_000_000_000))

	sol := LamportsToSOL(2_000_000_000)
	assert.True(t, sol.Equal(decimal.NewFromInt(2)))
}

func TestParse(t *testing.T) {
	d, err := Parse("  0.25 ")
	require.NoError(t, err)
	assert.Equal(t, "0.25", d.String())

	_, err = Parse("abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
