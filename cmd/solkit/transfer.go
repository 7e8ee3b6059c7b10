package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var airdropCmd = &cobra.Command{
	Use:   "airdrop <address|domain.sol> <sol>",
	Short: "Request an airdrop (devnet/testnet, max 2 SOL)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAirdrop,
}

var transferCmd = &cobra.Command{
	Use:   "transfer <to> <sol>",
	Short: "Send SOL from the signer to another address",
	Args:  cobra.ExactArgs(2),
	RunE:  runTransfer,
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send a ping instruction to the ping program",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

var transferDryRun bool

func init() {
	transferCmd.Flags().BoolVar(&transferDryRun, "dry-run", false, "simulate the transfer without sending it")
	rootCmd.AddCommand(airdropCmd, transferCmd, pingCmd)
}

func runAirdrop(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	to, err := resolveAddress(cmd, a, args[0])
	if err != nil {
		return err
	}
	sol, err := parseAmount(args[1])
	if err != nil {
		return err
	}

	sig, err := a.Accounts.Airdrop(cmd.Context(), to, sol)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Airdrop successful.")
	printSignature(cmd.OutOrStdout(), a, sig)
	return nil
}

func runTransfer(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	from, err := a.Signer(keypair)
	if err != nil {
		return err
	}
	to, err := resolveAddress(cmd, a, args[0])
	if err != nil {
		return err
	}
	sol, err := parseAmount(args[1])
	if err != nil {
		return err
	}

	if transferDryRun {
		res, err := a.Accounts.SimulateTransferSOL(cmd.Context(), from, to, sol)
		if res != nil {
			for _, line := range res.Logs {
				fmt.Fprintln(cmd.OutOrStdout(), "  "+line)
			}
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Simulation succeeded: %d compute units\n", res.UnitsConsumed)
		return nil
	}

	sig, err := a.Accounts.TransferSOL(cmd.Context(), from, to, sol)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent %s SOL from %s to %s\n", sol, from, to)
	printSignature(cmd.OutOrStdout(), a, sig)
	return nil
}

func runPing(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	payer, err := a.Signer(keypair)
	if err != nil {
		return err
	}
	sig, err := a.Ping.Ping(cmd.Context(), payer)
	if err != nil {
		return err
	}
	printSignature(cmd.OutOrStdout(), a, sig)
	return nil
}
