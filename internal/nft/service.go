// internal/nft/service.go
package nft

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	tokenprog "github.com/gagliardetto/solana-go/programs/token"
	json "github.com/goccy/go-json"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain"
	"github.com/rovshanmuradov/solana-devkit/internal/events"
	"github.com/rovshanmuradov/solana-devkit/internal/token"
	"github.com/rovshanmuradov/solana-devkit/internal/transaction"
	"github.com/rovshanmuradov/solana-devkit/internal/uploader"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
	"go.uber.org/zap"
)

// Лимиты полей метаданных в программе.
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
	MaxSellerFee    = 10000
)

var (
	ErrMetadataNotFound = errors.New("metadata account not found")
	ErrImmutable        = errors.New("metadata is immutable")
)

// NFTData описание NFT для загрузки и создания.
type NFTData struct {
	Name                 string `json:"name" yaml:"name"`
	Symbol               string `json:"symbol" yaml:"symbol"`
	Description          string `json:"description" yaml:"description"`
	SellerFeeBasisPoints uint16 `json:"seller_fee_basis_points" yaml:"seller_fee_basis_points"`
	ImageFile            string `json:"image_file" yaml:"image_file"`
}

// Validate проверяет лимиты длины и роялти.
func (d NFTData) Validate() error {
	switch {
	case d.Name == "":
		return errors.New("nft name is required")
	case len(d.Name) > MaxNameLength:
		return fmt.Errorf("nft name exceeds %d bytes", MaxNameLength)
	case len(d.Symbol) > MaxSymbolLength:
		return fmt.Errorf("nft symbol exceeds %d bytes", MaxSymbolLength)
	case d.SellerFeeBasisPoints > MaxSellerFee:
		return fmt.Errorf("seller fee must be between 0 and %d basis points", MaxSellerFee)
	}
	return nil
}

// offChainMetadata JSON по стандарту Metaplex.
type offChainMetadata struct {
	Name        string     `json:"name"`
	Symbol      string     `json:"symbol"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	Properties  properties `json:"properties"`
}

type properties struct {
	Files []fileRef `json:"files"`
}

type fileRef struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

// Result адреса созданного NFT.
type Result struct {
	Mint          solana.PublicKey
	Metadata      solana.PublicKey
	MasterEdition solana.PublicKey
	TokenAccount  solana.PublicKey
	Signature     solana.Signature
}

// Service операции с NFT через Token Metadata program.
type Service struct {
	client   blockchain.Client
	sender   *transaction.Sender
	uploader uploader.Uploader
	logger   *zap.Logger
}

func NewService(sender *transaction.Sender, up uploader.Uploader, logger *zap.Logger) *Service {
	return &Service{
		client:   sender.Client(),
		sender:   sender,
		uploader: up,
		logger:   logger.Named("nft"),
	}
}

// UploadMetadata загружает изображение, затем off-chain JSON. Возвращает URI метаданных.
func (s *Service) UploadMetadata(ctx context.Context, data NFTData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}
	image, err := os.ReadFile(data.ImageFile)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	name := filepath.Base(data.ImageFile)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	imageURI, err := s.uploader.Upload(ctx, name, contentType, image)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	s.logger.Info("image uploaded", zap.String("uri", imageURI))

	payload, err := json.Marshal(offChainMetadata{
		Name:        data.Name,
		Symbol:      data.Symbol,
		Description: data.Description,
		Image:       imageURI,
		Properties: properties{
			Files: []fileRef{{URI: imageURI, Type: contentType}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	uri, err := s.uploader.Upload(ctx, "metadata.json", "application/json", payload)
	if err != nil {
		return "", fmt.Errorf("upload metadata: %w", err)
	}
	if len(uri) > MaxURILength {
		return "", fmt.Errorf("metadata uri exceeds %d bytes", MaxURILength)
	}
	s.logger.Info("metadata uploaded", zap.String("uri", uri))
	return uri, nil
}

// mintArgs параметры общего пути создания NFT.
type mintArgs struct {
	uri            string
	data           NFTData
	collection     *Collection
	collectionSize *uint64
	kind           string
}

// mint создает mint (0 decimals), ATA владельца, выпускает 1 токен,
// создает метаданные и master edition с max supply 0 одной транзакцией.
func (s *Service) mint(ctx context.Context, owner *wallet.Wallet, args mintArgs) (*Result, error) {
	if err := args.data.Validate(); err != nil {
		return nil, err
	}
	if args.uri == "" || len(args.uri) > MaxURILength {
		return nil, fmt.Errorf("metadata uri must be 1..%d bytes", MaxURILength)
	}

	mintKeypair, err := wallet.Generate()
	if err != nil {
		return nil, err
	}
	mint := mintKeypair.PublicKey

	metadata, err := MetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	edition, err := MasterEditionAddress(mint)
	if err != nil {
		return nil, err
	}
	ata, err := token.AssociatedAddress(owner.PublicKey, mint)
	if err != nil {
		return nil, err
	}

	rent, err := s.client.GetMinimumBalanceForRentExemption(ctx, token.MintSize)
	if err != nil {
		return nil, fmt.Errorf("get rent exemption: %w", err)
	}

	initMint, err := tokenprog.NewInitializeMintInstructionBuilder().
		SetDecimals(0).
		SetMintAuthority(owner.PublicKey).
		SetFreezeAuthority(owner.PublicKey).
		SetMintAccount(mint).
		SetSysVarRentPubkeyAccount(solana.SysVarRentPubkey).
		ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("build initialize mint: %w", err)
	}

	createMetadata, err := NewCreateMetadataAccountV3Instruction(
		CreateMetadataAccountV3Args{
			Data: DataV2{
				Name:                 args.data.Name,
				Symbol:               args.data.Symbol,
				URI:                  args.uri,
				SellerFeeBasisPoints: args.data.SellerFeeBasisPoints,
				Creators:             []Creator{{Address: owner.PublicKey, Verified: true, Share: 100}},
				Collection:           args.collection,
			},
			IsMutable:      true,
			CollectionSize: args.collectionSize,
		},
		metadata, mint, owner.PublicKey, owner.PublicKey, owner.PublicKey,
	)
	if err != nil {
		return nil, fmt.Errorf("build create metadata: %w", err)
	}

	maxSupply := uint64(0)
	createEdition, err := NewCreateMasterEditionV3Instruction(
		&maxSupply, edition, mint, owner.PublicKey, owner.PublicKey, owner.PublicKey, metadata,
	)
	if err != nil {
		return nil, fmt.Errorf("build create master edition: %w", err)
	}

	b := transaction.NewBuilder().
		AddInstruction(
			system.NewCreateAccountInstruction(rent, token.MintSize, solana.TokenProgramID, owner.PublicKey, mint).Build(),
			initMint,
			associatedtokenaccount.NewCreateInstruction(owner.PublicKey, owner.PublicKey, mint).Build(),
			tokenprog.NewMintToCheckedInstruction(1, 0, mint, ata, owner.PublicKey, []solana.PublicKey{}).Build(),
			createMetadata,
			createEdition,
		).
		AddSigner(owner, mintKeypair)

	op := events.Operation{
		Kind:   args.kind,
		Wallet: owner.String(),
		Mint:   mint.String(),
		Amount: "1",
	}
	sig, err := s.sender.Send(ctx, op, b)
	if err != nil {
		return nil, err
	}

	return &Result{
		Mint:          mint,
		Metadata:      metadata,
		MasterEdition: edition,
		TokenAccount:  ata,
		Signature:     sig,
	}, nil
}

// CreateCollection создает NFT коллекции (sized, размер 0).
func (s *Service) CreateCollection(ctx context.Context, owner *wallet.Wallet, uri string, data NFTData) (*Result, error) {
	size := uint64(0)
	res, err := s.mint(ctx, owner, mintArgs{
		uri:            uri,
		data:           data,
		collectionSize: &size,
		kind:           "nft.create-collection",
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("collection created", zap.String("mint", res.Mint.String()))
	return res, nil
}

// CreateNFT создает NFT в коллекции и затем верифицирует его.
// При ошибке верификации возвращает созданный NFT вместе с ошибкой.
func (s *Service) CreateNFT(ctx context.Context, owner *wallet.Wallet, uri string, data NFTData, collectionMint solana.PublicKey) (*Result, error) {
	res, err := s.mint(ctx, owner, mintArgs{
		uri:        uri,
		data:       data,
		collection: &Collection{Verified: false, Key: collectionMint},
		kind:       "nft.create",
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("nft created", zap.String("mint", res.Mint.String()))

	if _, err := s.VerifyCollection(ctx, owner, res.Mint, collectionMint); err != nil {
		return res, fmt.Errorf("verify collection: %w", err)
	}
	return res, nil
}

// VerifyCollection подтверждает принадлежность NFT коллекции. authority - update authority коллекции.
func (s *Service) VerifyCollection(ctx context.Context, authority *wallet.Wallet, nftMint, collectionMint solana.PublicKey) (solana.Signature, error) {
	metadata, err := MetadataAddress(nftMint)
	if err != nil {
		return solana.Signature{}, err
	}
	collectionMetadata, err := MetadataAddress(collectionMint)
	if err != nil {
		return solana.Signature{}, err
	}
	collectionEdition, err := MasterEditionAddress(collectionMint)
	if err != nil {
		return solana.Signature{}, err
	}

	b := transaction.NewBuilder().
		AddInstruction(NewVerifySizedCollectionItemInstruction(
			metadata, authority.PublicKey, authority.PublicKey, collectionMint, collectionMetadata, collectionEdition,
		)).
		AddSigner(authority)

	op := events.Operation{
		Kind:         "nft.verify-collection",
		Wallet:       authority.String(),
		Counterparty: collectionMint.String(),
		Mint:         nftMint.String(),
	}
	return s.sender.Send(ctx, op, b)
}

// FindByMint читает и декодирует метаданные NFT.
func (s *Service) FindByMint(ctx context.Context, mint solana.PublicKey) (*Metadata, error) {
	address, err := MetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	res, err := s.client.GetAccountInfo(ctx, address)
	if err != nil {
		if blockchain.IsAccountNotFoundError(err) {
			return nil, fmt.Errorf("%w: mint %s", ErrMetadataNotFound, mint)
		}
		return nil, fmt.Errorf("get metadata account: %w", err)
	}
	if res == nil || res.Value == nil {
		return nil, fmt.Errorf("%w: mint %s", ErrMetadataNotFound, mint)
	}
	if !res.Value.Owner.Equals(TokenMetadataProgramID) {
		return nil, fmt.Errorf("%w: owner %s", ErrNotMetadataAccount, res.Value.Owner)
	}
	return DecodeMetadata(res.Value.Data.GetBinary())
}

// UpdateURI заменяет URI метаданных, остальные данные сохраняются.
func (s *Service) UpdateURI(ctx context.Context, authority *wallet.Wallet, mint solana.PublicKey, uri string) (solana.Signature, error) {
	if uri == "" || len(uri) > MaxURILength {
		return solana.Signature{}, fmt.Errorf("metadata uri must be 1..%d bytes", MaxURILength)
	}
	current, err := s.FindByMint(ctx, mint)
	if err != nil {
		return solana.Signature{}, err
	}
	if !current.IsMutable {
		return solana.Signature{}, ErrImmutable
	}
	if !current.UpdateAuthority.Equals(authority.PublicKey) {
		return solana.Signature{}, fmt.Errorf("wallet %s is not the update authority (%s)", authority, current.UpdateAuthority)
	}

	data := current.Data()
	data.URI = uri

	metadata, err := MetadataAddress(mint)
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := NewUpdateMetadataAccountV2Instruction(UpdateMetadataAccountV2Args{Data: &data}, metadata, authority.PublicKey)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build update metadata: %w", err)
	}

	b := transaction.NewBuilder().AddInstruction(ix).AddSigner(authority)
	op := events.Operation{
		Kind:   "nft.update-uri",
		Wallet: authority.String(),
		Mint:   mint.String(),
	}
	return s.sender.Send(ctx, op, b)
}
