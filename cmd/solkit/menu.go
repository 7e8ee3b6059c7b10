package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/solana-devkit/internal/account"
	"github.com/rovshanmuradov/solana-devkit/internal/ui"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive menu for keypairs, airdrops and SOL transfers",
	Args:  cobra.NoArgs,
	RunE:  runMenu,
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

func runMenu(cmd *cobra.Command, args []string) error {
	return ui.Run(cmd.Context(), "Solana Devkit", menuItems())
}

func menuItems() []ui.Item {
	return []ui.Item{
		{
			Label:       "Create New Keypair",
			Description: "Generate a random keypair and print both keys",
			Run:         menuNewKeypair,
		},
		{
			Label:       "Request Airdrop",
			Description: "Request up to 2 SOL on devnet",
			Prompts: []ui.Prompt{
				{Label: "Enter the public key to receive the airdrop", Validate: validatePublicKey},
				{Label: "Enter the amount of SOL (max 2)", Placeholder: "1", Validate: validateAirdropAmount},
			},
			Run: menuAirdrop,
		},
		{
			Label:       "Send SOL",
			Description: "Transfer SOL from a base58 secret key",
			Prompts: []ui.Prompt{
				{Label: "Enter the sender's private key (base58)", Secret: true, Validate: validateSecretKey},
				{Label: "Enter the recipient's public key", Validate: validatePublicKey},
				{Label: "Enter the amount of SOL to send", Placeholder: "0.1", Validate: validatePositiveAmount},
			},
			Run: menuSendSOL,
		},
		{
			Label:       "Utils",
			Description: "Convert keys between base58 and the byte array format",
			Children: []ui.Item{
				{
					Label: "Base58 to Keypair",
					Prompts: []ui.Prompt{
						{Label: "Enter the base58 private key", Secret: true, Validate: validateSecretKey},
					},
					Run: menuBase58ToKeypair,
				},
				{
					Label: "Keypair to Base58",
					Prompts: []ui.Prompt{
						{Label: "Enter the secret key array", Placeholder: "[1, 2, 3, ...]", Secret: true},
					},
					Run: menuKeypairToBase58,
				},
			},
		},
		{Label: "Exit", Exit: true},
	}
}

func validatePublicKey(s string) error {
	_, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
	if err != nil {
		return errors.New("invalid public key")
	}
	return nil
}

func validateSecretKey(s string) error {
	_, err := wallet.FromBase58(strings.TrimSpace(s))
	return err
}

func validatePositiveAmount(s string) error {
	d, err := parseAmount(s)
	if err != nil {
		return err
	}
	if !d.IsPositive() {
		return account.ErrInvalidAmount
	}
	return nil
}

func validateAirdropAmount(s string) error {
	d, err := parseAmount(s)
	if err != nil {
		return err
	}
	if !d.IsPositive() || d.GreaterThan(account.DefaultMaxAirdropSOL) {
		return &account.AirdropAmountError{Max: account.DefaultMaxAirdropSOL}
	}
	return nil
}

func menuNewKeypair(ctx context.Context, inputs []string) (string, error) {
	w, err := wallet.Generate()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("New Keypair created:\nPublic Key: %s\nPrivate Key (Base58): %s", w.PublicKey, w.Base58()), nil
}

func menuAirdrop(ctx context.Context, inputs []string) (string, error) {
	a, err := loadApp()
	if err != nil {
		return "", err
	}
	to := solana.MustPublicKeyFromBase58(strings.TrimSpace(inputs[0]))
	sol := decimal.RequireFromString(strings.TrimSpace(inputs[1]))

	sig, err := a.Accounts.Airdrop(ctx, to, sol)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Airdrop successful.\nTransaction signature: %s\nExplorer: %s", sig, a.TxLink(sig.String())), nil
}

func menuSendSOL(ctx context.Context, inputs []string) (string, error) {
	a, err := loadApp()
	if err != nil {
		return "", err
	}
	from, err := wallet.FromBase58(strings.TrimSpace(inputs[0]))
	if err != nil {
		return "", err
	}
	to := solana.MustPublicKeyFromBase58(strings.TrimSpace(inputs[1]))
	sol := decimal.RequireFromString(strings.TrimSpace(inputs[2]))

	sig, err := a.Accounts.TransferSOL(ctx, from, to, sol)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Sent %s SOL to %s\nTransaction signature: %s\nExplorer: %s",
		sol, to, sig, a.TxLink(sig.String())), nil
}

func menuBase58ToKeypair(ctx context.Context, inputs []string) (string, error) {
	w, err := wallet.FromBase58(strings.TrimSpace(inputs[0]))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Public Key: %s\nPrivate Key (Array Format): %s",
		w.PublicKey, wallet.FormatSecretKeyArray(w.PrivateKey)), nil
}

func menuKeypairToBase58(ctx context.Context, inputs []string) (string, error) {
	w, err := wallet.FromSecretKeyArray(inputs[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Base58 Private Key: %s", w.Base58()), nil
}
