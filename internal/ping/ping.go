// internal/ping/ping.go
package ping

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/solana-devkit/internal/events"
	"github.com/rovshanmuradov/solana-devkit/internal/transaction"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
	"go.uber.org/zap"
)

// Программа ping на devnet и ее аккаунт со счетчиком.
const (
	DefaultProgramID   = "ChT1B39WKLS8qUrkLvFDXMhEJ4F1XZzwUNHUt4AU9aVa"
	DefaultDataAccount = "Ah9K7dQ8EHaZqcAsgBW8w37yN2eAy3koFmUn4x3CJtod"
)

// Service отправляет инструкцию ping.
type Service struct {
	sender      *transaction.Sender
	programID   solana.PublicKey
	dataAccount solana.PublicKey
	logger      *zap.Logger
}

// NewService разбирает адреса программы и аккаунта. Пустые значения заменяются дефолтными.
func NewService(sender *transaction.Sender, logger *zap.Logger, programID, dataAccount string) (*Service, error) {
	if programID == "" {
		programID = DefaultProgramID
	}
	if dataAccount == "" {
		dataAccount = DefaultDataAccount
	}
	program, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid ping program id %q: %w", programID, err)
	}
	data, err := solana.PublicKeyFromBase58(dataAccount)
	if err != nil {
		return nil, fmt.Errorf("invalid ping data account %q: %w", dataAccount, err)
	}
	return &Service{
		sender:      sender,
		programID:   program,
		dataAccount: data,
		logger:      logger.Named("ping"),
	}, nil
}

// Instruction инструкция без данных; единственный ключ - writable аккаунт счетчика.
func (s *Service) Instruction() solana.Instruction {
	return solana.NewInstruction(
		s.programID,
		solana.AccountMetaSlice{solana.Meta(s.dataAccount).WRITE()},
		[]byte{},
	)
}

// Ping отправляет транзакцию с одной инструкцией ping.
func (s *Service) Ping(ctx context.Context, payer *wallet.Wallet) (solana.Signature, error) {
	b := transaction.NewBuilder().AddInstruction(s.Instruction()).AddSigner(payer)

	op := events.Operation{
		Kind:         "ping",
		Wallet:       payer.String(),
		Counterparty: s.programID.String(),
	}
	sig, err := s.sender.Send(ctx, op, b)
	if err != nil {
		return sig, err
	}
	s.logger.Debug("ping sent", zap.String("signature", sig.String()))
	return sig, nil
}
