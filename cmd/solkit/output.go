package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/solana-devkit/internal/amount"
	"github.com/rovshanmuradov/solana-devkit/internal/app"
	"github.com/shopspring/decimal"
)

func printSignature(w io.Writer, a *app.App, sig solana.Signature) {
	fmt.Fprintf(w, "Transaction signature: %s\n", sig)
	fmt.Fprintf(w, "Explorer: %s\n", a.TxLink(sig.String()))
}

func parsePublicKey(label, s string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s: %w", label, err)
	}
	return pk, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	return amount.Parse(strings.TrimSpace(s))
}

// parseSince принимает длительность ("24h") или RFC3339 время.
func parseSince(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use a duration like 24h or RFC3339", s)
	}
	return t, nil
}
