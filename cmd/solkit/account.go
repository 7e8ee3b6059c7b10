package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/solana-devkit/internal/amount"
	"github.com/rovshanmuradov/solana-devkit/internal/app"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Inspect accounts",
}

var accountInfoCmd = &cobra.Command{
	Use:   "info <address|domain.sol>",
	Short: "Check whether an account exists and show its owner and size",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountInfo,
}

var accountBalanceCmd = &cobra.Command{
	Use:   "balance [address|domain.sol ...]",
	Short: "Show SOL balances; defaults to the signer's address",
	RunE:  runAccountBalance,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <domain.sol|address>",
	Short: "Resolve a .sol domain to its owner public key",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	accountCmd.AddCommand(accountInfoCmd, accountBalanceCmd)
	rootCmd.AddCommand(accountCmd, resolveCmd)
}

// resolveAddress принимает .sol домен или публичный ключ.
func resolveAddress(cmd *cobra.Command, a *app.App, input string) (solana.PublicKey, error) {
	return a.Resolver.Resolve(cmd.Context(), input)
}

func runAccountInfo(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	address, err := resolveAddress(cmd, a, args[0])
	if err != nil {
		return err
	}
	info, err := a.Accounts.Info(cmd.Context(), address)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Address: %s\n", info.Address)
	fmt.Fprintln(out, info.Status())
	if info.Exists {
		fmt.Fprintf(out, "Owner: %s\n", info.Owner)
		fmt.Fprintf(out, "Balance: %s SOL\n", amount.LamportsToSOL(info.Lamports))
		fmt.Fprintf(out, "Executable: %t\n", info.Executable)
		fmt.Fprintf(out, "Data length: %d bytes\n", info.DataLen)
	}
	fmt.Fprintf(out, "Explorer: %s\n", a.AddressLink(info.Address.String()))
	return nil
}

func runAccountBalance(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	var addresses []solana.PublicKey
	if len(args) == 0 {
		signer, err := a.Signer(keypair)
		if err != nil {
			return err
		}
		addresses = append(addresses, signer.PublicKey)
	}
	for _, arg := range args {
		address, err := resolveAddress(cmd, a, arg)
		if err != nil {
			return err
		}
		addresses = append(addresses, address)
	}

	balances, err := a.Accounts.Balances(cmd.Context(), addresses...)
	if err != nil {
		return err
	}
	for _, b := range balances {
		fmt.Fprintf(cmd.OutOrStdout(), "The balance for the wallet at address %s is %s SOL\n", b.Address, b.SOL)
	}
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	address, err := resolveAddress(cmd, a, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "The public key for %s is %s\n", args[0], address)
	return nil
}
