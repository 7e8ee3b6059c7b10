package main

import (
	"fmt"
	"strings"

	"github.com/rovshanmuradov/solana-devkit/internal/config"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
	"github.com/spf13/cobra"
)

var keypairEnvName string

var keypairCmd = &cobra.Command{
	Use:   "keypair",
	Short: "Generate and convert keypairs (offline)",
}

var keypairNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new random keypair",
	Args:  cobra.NoArgs,
	RunE:  runKeypairNew,
}

var keypairFromBase58Cmd = &cobra.Command{
	Use:   "from-base58 <private-key>",
	Short: "Convert a base58 private key to the [n, n, ...] secret key array",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeypairFromBase58,
}

var keypairToBase58Cmd = &cobra.Command{
	Use:   "to-base58 <secret-key-array>",
	Short: "Convert a comma-separated secret key (e.g. 111, 222, ...) to base58",
	Long: `Accepts the 64 numbers of a secret key separated by commas, optionally
wrapped in brackets. Quote the argument or pass every number as its own argument.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runKeypairToBase58,
}

var keypairFromEnvCmd = &cobra.Command{
	Use:   "from-env",
	Short: "Load the keypair from an environment variable (.env supported)",
	Args:  cobra.NoArgs,
	RunE:  runKeypairFromEnv,
}

func init() {
	keypairFromEnvCmd.Flags().StringVar(&keypairEnvName, "env", config.DefaultKeypairEnv, "environment variable with the secret key")

	keypairCmd.AddCommand(keypairNewCmd, keypairFromBase58Cmd, keypairToBase58Cmd, keypairFromEnvCmd)
	rootCmd.AddCommand(keypairCmd)
}

func runKeypairNew(cmd *cobra.Command, args []string) error {
	w, err := wallet.Generate()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "New Keypair created:")
	fmt.Fprintf(out, "Public Key: %s\n", w.PublicKey)
	fmt.Fprintf(out, "Private Key (Base58): %s\n", w.Base58())
	return nil
}

func runKeypairFromBase58(cmd *cobra.Command, args []string) error {
	w, err := wallet.FromBase58(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Public Key: %s\n", w.PublicKey)
	fmt.Fprintf(out, "Private Key (Array Format): %s\n", wallet.FormatSecretKeyArray(w.PrivateKey))
	return nil
}

func runKeypairToBase58(cmd *cobra.Command, args []string) error {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.Trim(strings.TrimSpace(a), ","); a != "" {
			parts = append(parts, a)
		}
	}
	w, err := wallet.FromSecretKeyArray(strings.Join(parts, ","))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Base58 Private Key: %s\n", w.Base58())
	return nil
}

func runKeypairFromEnv(cmd *cobra.Command, args []string) error {
	w, err := wallet.FromEnvironment(keypairEnvName)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Public Key: %s\n", w.PublicKey)
	fmt.Fprintln(out, "Finished! The secret key was loaded from the environment.")
	return nil
}
