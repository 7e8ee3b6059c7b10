// internal/nft/instructions.go
package nft

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Дискриминаторы инструкций Token Metadata.
const (
	InstructionUpdateMetadataAccountV2   uint8 = 15
	InstructionCreateMasterEditionV3     uint8 = 17
	InstructionVerifySizedCollectionItem uint8 = 30
	InstructionCreateMetadataAccountV3   uint8 = 33
)

func encode(fn func(enc *bin.Encoder) error) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := fn(bin.NewBorshEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CreateMetadataAccountV3Args аргументы создания метаданных.
type CreateMetadataAccountV3Args struct {
	Data           DataV2
	IsMutable      bool
	CollectionSize *uint64 // не nil для sized коллекции
}

// NewCreateMetadataAccountV3Instruction создает аккаунт метаданных для mint.
func NewCreateMetadataAccountV3Instruction(
	args CreateMetadataAccountV3Args,
	metadata, mint, mintAuthority, payer, updateAuthority solana.PublicKey,
) (solana.Instruction, error) {
	data, err := encode(func(enc *bin.Encoder) error {
		if err := enc.WriteUint8(InstructionCreateMetadataAccountV3); err != nil {
			return err
		}
		if err := args.Data.MarshalWithEncoder(enc); err != nil {
			return err
		}
		if err := enc.WriteBool(args.IsMutable); err != nil {
			return err
		}
		return writeCollectionDetails(enc, args.CollectionSize)
	})
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		solana.Meta(metadata).WRITE(),
		solana.Meta(mint),
		solana.Meta(mintAuthority).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(updateAuthority).SIGNER(),
		solana.Meta(solana.SystemProgramID),
	}
	return solana.NewInstruction(TokenMetadataProgramID, accounts, data), nil
}

// NewCreateMasterEditionV3Instruction создает master edition. maxSupply nil означает неограниченный тираж.
func NewCreateMasterEditionV3Instruction(
	maxSupply *uint64,
	edition, mint, updateAuthority, mintAuthority, payer, metadata solana.PublicKey,
) (solana.Instruction, error) {
	data, err := encode(func(enc *bin.Encoder) error {
		if err := enc.WriteUint8(InstructionCreateMasterEditionV3); err != nil {
			return err
		}
		if err := writeOption(enc, maxSupply != nil); err != nil || maxSupply == nil {
			return err
		}
		return enc.WriteUint64(*maxSupply, binary.LittleEndian)
	})
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		solana.Meta(edition).WRITE(),
		solana.Meta(mint).WRITE(),
		solana.Meta(updateAuthority).SIGNER(),
		solana.Meta(mintAuthority).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(metadata).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),
	}
	return solana.NewInstruction(TokenMetadataProgramID, accounts, data), nil
}

// UpdateMetadataAccountV2Args аргументы обновления; nil поля не меняются.
type UpdateMetadataAccountV2Args struct {
	Data                *DataV2
	NewUpdateAuthority  *solana.PublicKey
	PrimarySaleHappened *bool
	IsMutable           *bool
}

// NewUpdateMetadataAccountV2Instruction обновляет метаданные.
func NewUpdateMetadataAccountV2Instruction(
	args UpdateMetadataAccountV2Args,
	metadata, updateAuthority solana.PublicKey,
) (solana.Instruction, error) {
	data, err := encode(func(enc *bin.Encoder) error {
		if err := enc.WriteUint8(InstructionUpdateMetadataAccountV2); err != nil {
			return err
		}
		if err := writeOption(enc, args.Data != nil); err != nil {
			return err
		}
		if args.Data != nil {
			if err := args.Data.MarshalWithEncoder(enc); err != nil {
				return err
			}
		}
		if err := writeOption(enc, args.NewUpdateAuthority != nil); err != nil {
			return err
		}
		if args.NewUpdateAuthority != nil {
			if err := enc.WriteBytes(args.NewUpdateAuthority.Bytes(), false); err != nil {
				return err
			}
		}
		for _, flag := range []*bool{args.PrimarySaleHappened, args.IsMutable} {
			if err := writeOption(enc, flag != nil); err != nil {
				return err
			}
			if flag != nil {
				if err := enc.WriteBool(*flag); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		solana.Meta(metadata).WRITE(),
		solana.Meta(updateAuthority).SIGNER(),
	}
	return solana.NewInstruction(TokenMetadataProgramID, accounts, data), nil
}

// NewVerifySizedCollectionItemInstruction помечает NFT как проверенный элемент sized коллекции.
func NewVerifySizedCollectionItemInstruction(
	metadata, collectionAuthority, payer, collectionMint, collectionMetadata, collectionEdition solana.PublicKey,
) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		solana.Meta(metadata).WRITE(),
		solana.Meta(collectionAuthority).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(collectionMint),
		solana.Meta(collectionMetadata).WRITE(),
		solana.Meta(collectionEdition),
	}
	return solana.NewInstruction(TokenMetadataProgramID, accounts, []byte{InstructionVerifySizedCollectionItem})
}
