package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/solana-devkit/internal/token"
	"github.com/spf13/cobra"
)

var (
	tokenDecimals  uint8
	tokenFreeze    bool
	tokenOwner     string
	tokenRecipient string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "SPL token program operations",
}

var tokenCreateMintCmd = &cobra.Command{
	Use:   "create-mint",
	Short: "Create a new token mint with the signer as mint authority",
	Args:  cobra.NoArgs,
	RunE:  runTokenCreateMint,
}

var tokenMintInfoCmd = &cobra.Command{
	Use:   "mint-info <mint>",
	Short: "Show decimals, supply and authorities of a mint",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenMintInfo,
}

var tokenCreateAccountCmd = &cobra.Command{
	Use:   "create-account <mint>",
	Short: "Get or create the associated token account of --owner (default: signer)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenCreateAccount,
}

var tokenMintCmd = &cobra.Command{
	Use:   "mint <mint> <amount>",
	Short: "Mint tokens to --to (default: signer)",
	Args:  cobra.ExactArgs(2),
	RunE:  runTokenMint,
}

var tokenTransferCmd = &cobra.Command{
	Use:   "transfer <mint> <to> <amount>",
	Short: "Transfer tokens from the signer's token account",
	Args:  cobra.ExactArgs(3),
	RunE:  runTokenTransfer,
}

var tokenBurnCmd = &cobra.Command{
	Use:   "burn <mint> <amount>",
	Short: "Burn tokens from the signer's token account",
	Args:  cobra.ExactArgs(2),
	RunE:  runTokenBurn,
}

var tokenDelegateCmd = &cobra.Command{
	Use:   "delegate <mint> <delegate> <amount>",
	Short: "Approve a delegate to spend tokens from the signer's token account",
	Args:  cobra.ExactArgs(3),
	RunE:  runTokenDelegate,
}

var tokenBalanceCmd = &cobra.Command{
	Use:   "balance <mint>",
	Short: "Show the token balance of --owner (default: signer)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenBalance,
}

func init() {
	tokenCreateMintCmd.Flags().Uint8Var(&tokenDecimals, "decimals", token.DefaultDecimals, "mint decimals")
	tokenCreateMintCmd.Flags().BoolVar(&tokenFreeze, "freeze", false, "set the signer as freeze authority")
	tokenCreateAccountCmd.Flags().StringVar(&tokenOwner, "owner", "", "token account owner")
	tokenBalanceCmd.Flags().StringVar(&tokenOwner, "owner", "", "token account owner")
	tokenMintCmd.Flags().StringVar(&tokenRecipient, "to", "", "recipient wallet")

	tokenCmd.AddCommand(
		tokenCreateMintCmd,
		tokenMintInfoCmd,
		tokenCreateAccountCmd,
		tokenMintCmd,
		tokenTransferCmd,
		tokenBurnCmd,
		tokenDelegateCmd,
		tokenBalanceCmd,
	)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenCreateMint(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	payer, err := a.Signer(keypair)
	if err != nil {
		return err
	}

	var freeze *solana.PublicKey
	if tokenFreeze {
		freeze = &payer.PublicKey
	}
	res, err := a.Tokens.CreateMint(cmd.Context(), payer, tokenDecimals, payer.PublicKey, freeze)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Token Mint: %s\n", a.AddressLink(res.Mint.String()))
	printSignature(out, a, res.Signature)
	return nil
}

func runTokenMintInfo(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	mint, err := parsePublicKey("mint", args[0])
	if err != nil {
		return err
	}
	info, err := a.Tokens.GetMint(cmd.Context(), mint)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mint: %s\n", info.Address)
	fmt.Fprintf(out, "Decimals: %d\n", info.Decimals)
	fmt.Fprintf(out, "Supply: %s\n", info.UISupply())
	fmt.Fprintf(out, "Mint authority: %s\n", optionalKey(info.MintAuthority))
	fmt.Fprintf(out, "Freeze authority: %s\n", optionalKey(info.FreezeAuthority))
	return nil
}

func optionalKey(k *solana.PublicKey) string {
	if k == nil {
		return "none"
	}
	return k.String()
}

// ownerOrSigner возвращает --owner или адрес подписанта.
func ownerOrSigner(owner string, signer solana.PublicKey) (solana.PublicKey, error) {
	if owner == "" {
		return signer, nil
	}
	return parsePublicKey("owner", owner)
}

func runTokenCreateAccount(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	payer, err := a.Signer(keypair)
	if err != nil {
		return err
	}
	mint, err := parsePublicKey("mint", args[0])
	if err != nil {
		return err
	}
	owner, err := ownerOrSigner(tokenOwner, payer.PublicKey)
	if err != nil {
		return err
	}

	res, err := a.Tokens.GetOrCreateATA(cmd.Context(), payer, owner, mint)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Token Account: %s\n", a.AddressLink(res.Address.String()))
	if res.Created {
		printSignature(out, a, res.Signature)
	} else {
		fmt.Fprintln(out, "Token account already exists")
	}
	return nil
}

func runTokenMint(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	authority, err := a.Signer(keypair)
	if err != nil {
		return err
	}
	mint, err := parsePublicKey("mint", args[0])
	if err != nil {
		return err
	}
	value, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	recipient := authority.PublicKey
	if tokenRecipient != "" {
		if recipient, err = resolveAddress(cmd, a, tokenRecipient); err != nil {
			return err
		}
	}

	sig, err := a.Tokens.MintTo(cmd.Context(), authority, mint, recipient, value)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Minted %s tokens to %s\n", value, recipient)
	printSignature(cmd.OutOrStdout(), a, sig)
	return nil
}

func runTokenTransfer(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	owner, err := a.Signer(keypair)
	if err != nil {
		return err
	}
	mint, err := parsePublicKey("mint", args[0])
	if err != nil {
		return err
	}
	to, err := resolveAddress(cmd, a, args[1])
	if err != nil {
		return err
	}
	value, err := parseAmount(args[2])
	if err != nil {
		return err
	}

	sig, err := a.Tokens.Transfer(cmd.Context(), owner, mint, to, value)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Transferred %s tokens to %s\n", value, to)
	printSignature(cmd.OutOrStdout(), a, sig)
	return nil
}

func runTokenBurn(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	owner, err := a.Signer(keypair)
	if err != nil {
		return err
	}
	mint, err := parsePublicKey("mint", args[0])
	if err != nil {
		return err
	}
	value, err := parseAmount(args[1])
	if err != nil {
		return err
	}

	sig, err := a.Tokens.Burn(cmd.Context(), owner, mint, value)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Burned %s tokens\n", value)
	printSignature(cmd.OutOrStdout(), a, sig)
	return nil
}

func runTokenDelegate(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	owner, err := a.Signer(keypair)
	if err != nil {
		return err
	}
	mint, err := parsePublicKey("mint", args[0])
	if err != nil {
		return err
	}
	delegate, err := parsePublicKey("delegate", args[1])
	if err != nil {
		return err
	}
	value, err := parseAmount(args[2])
	if err != nil {
		return err
	}

	sig, err := a.Tokens.Approve(cmd.Context(), owner, mint, delegate, value)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Delegated %s tokens to %s\n", value, delegate)
	printSignature(cmd.OutOrStdout(), a, sig)
	return nil
}

func runTokenBalance(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	mint, err := parsePublicKey("mint", args[0])
	if err != nil {
		return err
	}

	var owner solana.PublicKey
	if tokenOwner != "" {
		if owner, err = resolveAddress(cmd, a, tokenOwner); err != nil {
			return err
		}
	} else {
		signer, err := a.Signer(keypair)
		if err != nil {
			return err
		}
		owner = signer.PublicKey
	}

	balance, err := a.Tokens.TokenBalance(cmd.Context(), owner, mint)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Token balance of %s: %s\n", owner, balance)
	return nil
}
