package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/rovshanmuradov/solana-devkit/internal/app"
	"github.com/rovshanmuradov/solana-devkit/internal/nft"
	"github.com/spf13/cobra"
)

var (
	nftData       nft.NFTData
	nftURI        string
	nftCollection string
)

var nftCmd = &cobra.Command{
	Use:   "nft",
	Short: "Metaplex NFT and collection operations",
}

var nftUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload an image and its off-chain metadata JSON",
	Args:  cobra.NoArgs,
	RunE:  runNFTUpload,
}

var nftCreateCollectionCmd = &cobra.Command{
	Use:   "create-collection",
	Short: "Create a sized collection NFT",
	Args:  cobra.NoArgs,
	RunE:  runNFTCreateCollection,
}

var nftCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an NFT and verify it as a member of --collection",
	Args:  cobra.NoArgs,
	RunE:  runNFTCreate,
}

var nftUpdateURICmd = &cobra.Command{
	Use:   "update-uri <mint>",
	Short: "Point the NFT metadata at a new URI",
	Args:  cobra.ExactArgs(1),
	RunE:  runNFTUpdateURI,
}

var nftShowCmd = &cobra.Command{
	Use:   "show <mint>",
	Short: "Show the on-chain metadata of an NFT",
	Args:  cobra.ExactArgs(1),
	RunE:  runNFTShow,
}

var nftDemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Create a collection, an NFT in it, then update its URI",
	Args:  cobra.NoArgs,
	RunE:  runNFTDemo,
}

func init() {
	for _, c := range []*cobra.Command{nftUploadCmd, nftCreateCollectionCmd, nftCreateCmd, nftUpdateURICmd} {
		f := c.Flags()
		f.StringVar(&nftData.Name, "name", "", "NFT name (max 32 bytes)")
		f.StringVar(&nftData.Symbol, "symbol", "", "NFT symbol (max 10 bytes)")
		f.StringVar(&nftData.Description, "description", "", "off-chain description")
		f.StringVar(&nftData.ImageFile, "image", "", "image file to upload")
		f.Uint16Var(&nftData.SellerFeeBasisPoints, "fee", 0, "seller fee in basis points")
	}
	for _, c := range []*cobra.Command{nftCreateCollectionCmd, nftCreateCmd, nftUpdateURICmd} {
		c.Flags().StringVar(&nftURI, "uri", "", "existing metadata URI (skips upload)")
	}
	nftCreateCmd.Flags().StringVar(&nftCollection, "collection", "", "collection mint")
	_ = nftCreateCmd.MarkFlagRequired("collection")
	nftDemoCmd.Flags().StringVar(&nftData.ImageFile, "image", "", "image file used for all demo steps")
	_ = nftDemoCmd.MarkFlagRequired("image")

	nftCmd.AddCommand(
		nftUploadCmd,
		nftCreateCollectionCmd,
		nftCreateCmd,
		nftUpdateURICmd,
		nftShowCmd,
		nftDemoCmd,
	)
	rootCmd.AddCommand(nftCmd)
}

// metadataURI возвращает --uri либо загружает данные из флагов.
func metadataURI(cmd *cobra.Command, a *app.App) (string, error) {
	if nftURI != "" {
		if len(nftURI) > nft.MaxURILength {
			return "", fmt.Errorf("uri exceeds %d bytes", nft.MaxURILength)
		}
		return nftURI, nil
	}
	if nftData.ImageFile == "" {
		return "", errors.New("either --uri or --image must be set")
	}
	uri, err := a.NFTs.UploadMetadata(cmd.Context(), nftData)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Metadata URI: %s\n", uri)
	return uri, nil
}

func printNFTResult(w io.Writer, a *app.App, label string, res *nft.Result) {
	fmt.Fprintf(w, "%s mint: %s\n", label, a.AddressLink(res.Mint.String()))
	fmt.Fprintf(w, "Metadata: %s\n", res.Metadata)
	fmt.Fprintf(w, "Master edition: %s\n", res.MasterEdition)
	fmt.Fprintf(w, "Token account: %s\n", res.TokenAccount)
	printSignature(w, a, res.Signature)
}

func runNFTUpload(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	uri, err := a.NFTs.UploadMetadata(cmd.Context(), nftData)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Metadata URI: %s\n", uri)
	return nil
}

func runNFTCreateCollection(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	owner, err := a.Signer(keypair)
	if err != nil {
		return err
	}
	if err := nftData.Validate(); err != nil {
		return err
	}
	uri, err := metadataURI(cmd, a)
	if err != nil {
		return err
	}

	res, err := a.NFTs.CreateCollection(cmd.Context(), owner, uri, nftData)
	if err != nil {
		return err
	}
	printNFTResult(cmd.OutOrStdout(), a, "Collection", res)
	return nil
}

func runNFTCreate(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	owner, err := a.Signer(keypair)
	if err != nil {
		return err
	}
	collection, err := parsePublicKey("collection", nftCollection)
	if err != nil {
		return err
	}
	if err := nftData.Validate(); err != nil {
		return err
	}
	uri, err := metadataURI(cmd, a)
	if err != nil {
		return err
	}

	res, err := a.NFTs.CreateNFT(cmd.Context(), owner, uri, nftData, collection)
	if res != nil {
		printNFTResult(cmd.OutOrStdout(), a, "NFT", res)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Verified as a member of collection %s\n", collection)
	return nil
}

func runNFTUpdateURI(cmd *cobra.Command, args []string) error {
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
	if nftURI == "" {
		if err := nftData.Validate(); err != nil {
			return err
		}
	}
	uri, err := metadataURI(cmd, a)
	if err != nil {
		return err
	}

	sig, err := a.NFTs.UpdateURI(cmd.Context(), authority, mint, uri)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Metadata URI updated to %s\n", uri)
	printSignature(cmd.OutOrStdout(), a, sig)
	return nil
}

func runNFTShow(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	mint, err := parsePublicKey("mint", args[0])
	if err != nil {
		return err
	}
	meta, err := a.NFTs.FindByMint(cmd.Context(), mint)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mint: %s\n", meta.Mint)
	fmt.Fprintf(out, "Name: %s\n", meta.Name)
	fmt.Fprintf(out, "Symbol: %s\n", meta.Symbol)
	fmt.Fprintf(out, "URI: %s\n", meta.URI)
	fmt.Fprintf(out, "Seller fee: %d bps\n", meta.SellerFeeBasisPoints)
	fmt.Fprintf(out, "Update authority: %s\n", meta.UpdateAuthority)
	fmt.Fprintf(out, "Mutable: %t\n", meta.IsMutable)
	for _, c := range meta.Creators {
		fmt.Fprintf(out, "Creator: %s share=%d verified=%t\n", c.Address, c.Share, c.Verified)
	}
	if meta.Collection != nil {
		fmt.Fprintf(out, "Collection: %s verified=%t\n", meta.Collection.Key, meta.Collection.Verified)
	}
	if meta.CollectionSize != nil {
		fmt.Fprintf(out, "Collection size: %d\n", *meta.CollectionSize)
	}
	return nil
}

func runNFTDemo(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	owner, err := a.Signer(keypair)
	if err != nil {
		return err
	}

	res, err := a.NFTs.RunDemo(cmd.Context(), owner, nft.DefaultDemoConfig(nftData.ImageFile))
	out := cmd.OutOrStdout()
	if res.Collection != nil {
		printNFTResult(out, a, "Collection", res.Collection)
	}
	if res.NFT != nil {
		printNFTResult(out, a, "NFT", res.NFT)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated URI: %s\n", res.UpdatedURI)
	printSignature(out, a, res.UpdateSignature)
	return nil
}
