// internal/nft/demo.go
package nft

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
	"go.uber.org/zap"
)

// DemoConfig данные трех шагов демо: коллекция, NFT, обновление.
type DemoConfig struct {
	Collection NFTData
	NFT        NFTData
	Update     NFTData
}

// DefaultDemoConfig данные демо с общим изображением.
func DefaultDemoConfig(imageFile string) DemoConfig {
	return DemoConfig{
		Collection: NFTData{
			Name:                 "TestCollectionNFT",
			Symbol:               "TEST",
			Description:          "Test Description Collection",
			SellerFeeBasisPoints: 100,
			ImageFile:            imageFile,
		},
		NFT: NFTData{
			Name:                 "Test",
			Symbol:               "TEST",
			Description:          "Test Description",
			SellerFeeBasisPoints: 100,
			ImageFile:            imageFile,
		},
		Update: NFTData{
			Name:                 "Update",
			Symbol:               "UPDATE",
			Description:          "Update Description",
			SellerFeeBasisPoints: 100,
			ImageFile:            imageFile,
		},
	}
}

// DemoResult итог демо.
type DemoResult struct {
	Collection      *Result
	NFT             *Result
	UpdatedURI      string
	UpdateSignature solana.Signature
}

// RunDemo: загрузка и создание коллекции, NFT в коллекции, затем смена URI.
func (s *Service) RunDemo(ctx context.Context, owner *wallet.Wallet, cfg DemoConfig) (*DemoResult, error) {
	out := &DemoResult{}

	collectionURI, err := s.UploadMetadata(ctx, cfg.Collection)
	if err != nil {
		return out, fmt.Errorf("collection metadata: %w", err)
	}
	if out.Collection, err = s.CreateCollection(ctx, owner, collectionURI, cfg.Collection); err != nil {
		return out, fmt.Errorf("create collection: %w", err)
	}

	uri, err := s.UploadMetadata(ctx, cfg.NFT)
	if err != nil {
		return out, fmt.Errorf("nft metadata: %w", err)
	}
	if out.NFT, err = s.CreateNFT(ctx, owner, uri, cfg.NFT, out.Collection.Mint); err != nil {
		return out, fmt.Errorf("create nft: %w", err)
	}

	if out.UpdatedURI, err = s.UploadMetadata(ctx, cfg.Update); err != nil {
		return out, fmt.Errorf("updated metadata: %w", err)
	}
	if out.UpdateSignature, err = s.UpdateURI(ctx, owner, out.NFT.Mint, out.UpdatedURI); err != nil {
		return out, fmt.Errorf("update uri: %w", err)
	}

	s.logger.Info("demo finished",
		zap.String("collection", out.Collection.Mint.String()),
		zap.String("nft", out.NFT.Mint.String()))
	return out, nil
}
