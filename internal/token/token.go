// internal/token/token.go
package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	tokenprog "github.com/gagliardetto/solana-go/programs/token"
	"github.com/rovshanmuradov/solana-devkit/internal/amount"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain"
	"github.com/rovshanmuradov/solana-devkit/internal/events"
	"github.com/rovshanmuradov/solana-devkit/internal/transaction"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MintSize размер аккаунта mint в SPL Token program.
const MintSize = 82

// DefaultDecimals как в примере create-token-mint.
const DefaultDecimals uint8 = 2

var (
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrMintNotFound  = errors.New("mint account not found")
	ErrZeroBaseUnits = errors.New("amount is smaller than one base unit")
)

// MintInfo состояние mint аккаунта.
type MintInfo struct {
	Address         solana.PublicKey
	Decimals        uint8
	Supply          uint64
	MintAuthority   *solana.PublicKey
	FreezeAuthority *solana.PublicKey
	IsInitialized   bool
}

// UISupply supply с учетом decimals.
func (m MintInfo) UISupply() decimal.Decimal {
	return amount.FromBaseUnits(m.Supply, m.Decimals)
}

// CreateMintResult результат создания mint.
type CreateMintResult struct {
	Mint      solana.PublicKey
	Signature solana.Signature
}

// ATAResult результат GetOrCreateATA.
type ATAResult struct {
	Address   solana.PublicKey
	Created   bool
	Signature solana.Signature // пустая, если аккаунт уже существовал
}

// Service операции SPL Token program.
type Service struct {
	client blockchain.Client
	sender *transaction.Sender
	logger *zap.Logger
}

// NewService создает сервис токенов.
func NewService(sender *transaction.Sender, logger *zap.Logger) *Service {
	return &Service{
		client: sender.Client(),
		sender: sender,
		logger: logger.Named("token"),
	}
}

// AssociatedAddress вычисляет ATA владельца для mint.
func AssociatedAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated token address: %w", err)
	}
	return ata, nil
}

// CreateMint создает новый mint: аккаунт 82 байта (rent-exempt) + InitializeMint.
// freezeAuthority может быть nil.
func (s *Service) CreateMint(
	ctx context.Context,
	payer *wallet.Wallet,
	decimals uint8,
	mintAuthority solana.PublicKey,
	freezeAuthority *solana.PublicKey,
) (*CreateMintResult, error) {
	mintKeypair, err := wallet.Generate()
	if err != nil {
		return nil, err
	}

	rent, err := s.client.GetMinimumBalanceForRentExemption(ctx, MintSize)
	if err != nil {
		return nil, fmt.Errorf("get rent exemption: %w", err)
	}

	createAccount := system.NewCreateAccountInstruction(
		rent,
		MintSize,
		solana.TokenProgramID,
		payer.PublicKey,
		mintKeypair.PublicKey,
	).Build()

	initBuilder := tokenprog.NewInitializeMintInstructionBuilder().
		SetDecimals(decimals).
		SetMintAuthority(mintAuthority).
		SetMintAccount(mintKeypair.PublicKey).
		SetSysVarRentPubkeyAccount(solana.SysVarRentPubkey)
	if freezeAuthority != nil {
		initBuilder.SetFreezeAuthority(*freezeAuthority)
	}
	initMint, err := initBuilder.ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("build initialize mint: %w", err)
	}

	b := transaction.NewBuilder().
		AddInstruction(createAccount, initMint).
		AddSigner(payer, mintKeypair)

	op := events.Operation{
		Kind:   "token.create-mint",
		Wallet: payer.String(),
		Mint:   mintKeypair.PublicKey.String(),
	}
	sig, err := s.sender.Send(ctx, op, b)
	if err != nil {
		return nil, err
	}

	s.logger.Info("mint created",
		zap.String("mint", mintKeypair.PublicKey.String()),
		zap.Uint8("decimals", decimals))
	return &CreateMintResult{Mint: mintKeypair.PublicKey, Signature: sig}, nil
}

// GetMint читает и декодирует mint аккаунт.
func (s *Service) GetMint(ctx context.Context, mint solana.PublicKey) (*MintInfo, error) {
	var m tokenprog.Mint
	if err := s.client.GetAccountDataInto(ctx, mint, &m); err != nil {
		if blockchain.IsAccountNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrMintNotFound, mint)
		}
		return nil, fmt.Errorf("decode mint %s: %w", mint, err)
	}
	return &MintInfo{
		Address:         mint,
		Decimals:        m.Decimals,
		Supply:          m.Supply,
		MintAuthority:   m.MintAuthority,
		FreezeAuthority: m.FreezeAuthority,
		IsInitialized:   m.IsInitialized,
	}, nil
}

// accountExists проверяет существование аккаунта.
func (s *Service) accountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	res, err := s.client.GetAccountInfo(ctx, address)
	if err != nil {
		if blockchain.IsAccountNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return res != nil && res.Value != nil, nil
}

// ensureATAInstruction возвращает инструкцию создания ATA, если его нет, иначе nil.
func (s *Service) ensureATAInstruction(ctx context.Context, payer, owner, mint solana.PublicKey) (solana.PublicKey, solana.Instruction, error) {
	ata, err := AssociatedAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	exists, err := s.accountExists(ctx, ata)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("check token account %s: %w", ata, err)
	}
	if exists {
		return ata, nil, nil
	}
	return ata, associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build(), nil
}

// GetOrCreateATA возвращает ATA владельца и создает его, если он отсутствует.
func (s *Service) GetOrCreateATA(ctx context.Context, payer *wallet.Wallet, owner, mint solana.PublicKey) (*ATAResult, error) {
	ata, create, err := s.ensureATAInstruction(ctx, payer.PublicKey, owner, mint)
	if err != nil {
		return nil, err
	}
	if create == nil {
		return &ATAResult{Address: ata}, nil
	}

	b := transaction.NewBuilder().AddInstruction(create).AddSigner(payer)
	op := events.Operation{
		Kind:         "token.create-account",
		Wallet:       payer.String(),
		Counterparty: owner.String(),
		Mint:         mint.String(),
	}
	sig, err := s.sender.Send(ctx, op, b)
	if err != nil {
		return nil, err
	}
	return &ATAResult{Address: ata, Created: true, Signature: sig}, nil
}

// toBaseUnits проверяет сумму и переводит ее в минимальные единицы mint.
func toBaseUnits(value decimal.Decimal, decimals uint8) (uint64, error) {
	if !value.IsPositive() {
		return 0, ErrInvalidAmount
	}
	units, err := amount.ToBaseUnits(value, decimals)
	if err != nil {
		return 0, err
	}
	if units == 0 {
		return 0, fmt.Errorf("%w: %s with %d decimals", ErrZeroBaseUnits, value, decimals)
	}
	return units, nil
}

// MintTo выпускает токены получателю; ATA получателя создается в той же транзакции.
func (s *Service) MintTo(ctx context.Context, authority *wallet.Wallet, mint, recipient solana.PublicKey, value decimal.Decimal) (solana.Signature, error) {
	if !value.IsPositive() {
		return solana.Signature{}, ErrInvalidAmount
	}
	info, err := s.GetMint(ctx, mint)
	if err != nil {
		return solana.Signature{}, err
	}
	units, err := toBaseUnits(value, info.Decimals)
	if err != nil {
		return solana.Signature{}, err
	}

	ata, create, err := s.ensureATAInstruction(ctx, authority.PublicKey, recipient, mint)
	if err != nil {
		return solana.Signature{}, err
	}

	b := transaction.NewBuilder().AddSigner(authority)
	if create != nil {
		b.AddInstruction(create)
	}
	b.AddInstruction(tokenprog.NewMintToCheckedInstruction(
		units, info.Decimals, mint, ata, authority.PublicKey, []solana.PublicKey{},
	).Build())

	op := events.Operation{
		Kind:         "token.mint",
		Wallet:       authority.String(),
		Counterparty: recipient.String(),
		Mint:         mint.String(),
		Amount:       value.String(),
	}
	return s.sender.Send(ctx, op, b)
}

// Transfer переводит токены с ATA владельца на ATA получателя (создается при отсутствии).
func (s *Service) Transfer(ctx context.Context, owner *wallet.Wallet, mint, to solana.PublicKey, value decimal.Decimal) (solana.Signature, error) {
	if !value.IsPositive() {
		return solana.Signature{}, ErrInvalidAmount
	}
	info, err := s.GetMint(ctx, mint)
	if err != nil {
		return solana.Signature{}, err
	}
	units, err := toBaseUnits(value, info.Decimals)
	if err != nil {
		return solana.Signature{}, err
	}

	source, err := owner.GetATA(mint)
	if err != nil {
		return solana.Signature{}, err
	}
	dest, create, err := s.ensureATAInstruction(ctx, owner.PublicKey, to, mint)
	if err != nil {
		return solana.Signature{}, err
	}

	b := transaction.NewBuilder().AddSigner(owner)
	if create != nil {
		b.AddInstruction(create)
	}
	b.AddInstruction(tokenprog.NewTransferCheckedInstruction(
		units, info.Decimals, source, mint, dest, owner.PublicKey, []solana.PublicKey{},
	).Build())

	op := events.Operation{
		Kind:         "token.transfer",
		Wallet:       owner.String(),
		Counterparty: to.String(),
		Mint:         mint.String(),
		Amount:       value.String(),
	}
	return s.sender.Send(ctx, op, b)
}

// Burn сжигает токены с ATA владельца.
func (s *Service) Burn(ctx context.Context, owner *wallet.Wallet, mint solana.PublicKey, value decimal.Decimal) (solana.Signature, error) {
	if !value.IsPositive() {
		return solana.Signature{}, ErrInvalidAmount
	}
	info, err := s.GetMint(ctx, mint)
	if err != nil {
		return solana.Signature{}, err
	}
	units, err := toBaseUnits(value, info.Decimals)
	if err != nil {
		return solana.Signature{}, err
	}
	source, err := owner.GetATA(mint)
	if err != nil {
		return solana.Signature{}, err
	}

	b := transaction.NewBuilder().
		AddInstruction(tokenprog.NewBurnCheckedInstruction(
			units, info.Decimals, source, mint, owner.PublicKey, []solana.PublicKey{},
		).Build()).
		AddSigner(owner)

	op := events.Operation{
		Kind:   "token.burn",
		Wallet: owner.String(),
		Mint:   mint.String(),
		Amount: value.String(),
	}
	return s.sender.Send(ctx, op, b)
}

// Approve делегирует право распоряжаться суммой токенов с ATA владельца.
func (s *Service) Approve(ctx context.Context, owner *wallet.Wallet, mint, delegate solana.PublicKey, value decimal.Decimal) (solana.Signature, error) {
	if !value.IsPositive() {
		return solana.Signature{}, ErrInvalidAmount
	}
	info, err := s.GetMint(ctx, mint)
	if err != nil {
		return solana.Signature{}, err
	}
	units, err := toBaseUnits(value, info.Decimals)
	if err != nil {
		return solana.Signature{}, err
	}
	source, err := owner.GetATA(mint)
	if err != nil {
		return solana.Signature{}, err
	}

	b := transaction.NewBuilder().
		AddInstruction(tokenprog.NewApproveCheckedInstruction(
			units, info.Decimals, source, mint, delegate, owner.PublicKey, []solana.PublicKey{},
		).Build()).
		AddSigner(owner)

	op := events.Operation{
		Kind:         "token.approve",
		Wallet:       owner.String(),
		Counterparty: delegate.String(),
		Mint:         mint.String(),
		Amount:       value.String(),
	}
	return s.sender.Send(ctx, op, b)
}

// TokenBalance баланс ATA владельца. Отсутствующий ATA дает ноль.
func (s *Service) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (decimal.Decimal, error) {
	ata, err := AssociatedAddress(owner, mint)
	if err != nil {
		return decimal.Zero, err
	}
	res, err := s.client.GetTokenAccountBalance(ctx, ata)
	if err != nil {
		if blockchain.IsAccountNotFoundError(err) || isMissingTokenAccount(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("get token balance: %w", err)
	}
	if res == nil || res.Value == nil {
		return decimal.Zero, nil
	}
	units, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse token amount %q: %w", res.Value.Amount, err)
	}
	return amount.FromBaseUnits(units, res.Value.Decimals), nil
}

// isMissingTokenAccount RPC отвечает "Invalid param: could not find account"
// для несуществующего token account. Прочие invalid param остаются ошибками.
func isMissingTokenAccount(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "could not find account")
}
