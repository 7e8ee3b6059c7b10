// internal/transaction/builder.go
package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
)

var (
	ErrNoSigners      = errors.New("no signers provided")
	ErrNoInstructions = errors.New("no instructions provided")
)

// BlockhashSource определяет интерфейс для получения blockhash.
type BlockhashSource interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
}

// Builder помогает конструировать транзакции. Первый подписант оплачивает комиссию.
type Builder struct {
	instructions []solana.Instruction
	signers      []*wallet.Wallet
	unitLimit    uint32
	unitPrice    uint64 // микролампорты за compute unit
}

// NewBuilder создает новый билдер транзакций
func NewBuilder() *Builder {
	return &Builder{}
}

// SetComputeBudget устанавливает лимит и цену compute units. Нули означают "не добавлять инструкцию".
func (b *Builder) SetComputeBudget(units uint32, microLamports uint64) *Builder {
	b.unitLimit = units
	b.unitPrice = microLamports
	return b
}

// AddInstruction добавляет инструкции в транзакцию
func (b *Builder) AddInstruction(instructions ...solana.Instruction) *Builder {
	b.instructions = append(b.instructions, instructions...)
	return b
}

// AddSigner добавляет подписантов транзакции; повторы игнорируются.
func (b *Builder) AddSigner(signers ...*wallet.Wallet) *Builder {
	for _, s := range signers {
		if s == nil || b.hasSigner(s.PublicKey) {
			continue
		}
		b.signers = append(b.signers, s)
	}
	return b
}

func (b *Builder) hasSigner(key solana.PublicKey) bool {
	for _, s := range b.signers {
		if s.PublicKey.Equals(key) {
			return true
		}
	}
	return false
}

// Payer возвращает плательщика комиссии.
func (b *Builder) Payer() (solana.PublicKey, error) {
	if len(b.signers) == 0 {
		return solana.PublicKey{}, ErrNoSigners
	}
	return b.signers[0].PublicKey, nil
}

// Instructions возвращает итоговый список инструкций, включая compute budget.
func (b *Builder) Instructions() []solana.Instruction {
	instructions := make([]solana.Instruction, 0, len(b.instructions)+2)
	if b.unitLimit > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitLimitInstruction(b.unitLimit).Build())
	}
	if b.unitPrice > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitPriceInstruction(b.unitPrice).Build())
	}
	return append(instructions, b.instructions...)
}

// Build получает blockhash, создает и подписывает транзакцию.
func (b *Builder) Build(ctx context.Context, client BlockhashSource) (*solana.Transaction, error) {
	payer, err := b.Payer()
	if err != nil {
		return nil, err
	}
	if len(b.instructions) == 0 {
		return nil, ErrNoInstructions
	}

	blockhash, err := client.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(b.Instructions(), blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for _, signer := range b.signers {
			if signer.PublicKey.Equals(key) {
				privateCopy := signer.PrivateKey
				return &privateCopy
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return tx, nil
}
