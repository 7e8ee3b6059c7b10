// internal/account/account.go
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/solana-devkit/internal/amount"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain"
	"github.com/rovshanmuradov/solana-devkit/internal/events"
	"github.com/rovshanmuradov/solana-devkit/internal/transaction"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxAirdropSOL лимит faucet devnet на один запрос.
var DefaultMaxAirdropSOL = decimal.NewFromInt(2)

var (
	ErrInvalidAmount       = errors.New("amount must be greater than 0")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// AirdropAmountError возвращается при сумме airdrop вне (0, max].
type AirdropAmountError struct {
	Max decimal.Decimal
}

func (e *AirdropAmountError) Error() string {
	return fmt.Sprintf("airdrop amount must be between 0 and %s SOL", e.Max.String())
}

// Is позволяет errors.Is(err, ErrInvalidAmount).
func (e *AirdropAmountError) Is(target error) bool {
	return target == ErrInvalidAmount
}

// Info состояние аккаунта. Отсутствующий аккаунт не считается ошибкой.
type Info struct {
	Address    solana.PublicKey
	Exists     bool
	Lamports   uint64
	Owner      solana.PublicKey
	Executable bool
	DataLen    int
}

// Status строка для вывода пользователю.
func (i Info) Status() string {
	if !i.Exists {
		return "Account does not exist"
	}
	return "Account exists and is initialized"
}

// Balance баланс аккаунта в лампортах и SOL.
type Balance struct {
	Address  solana.PublicKey
	Lamports uint64
	SOL      decimal.Decimal
}

// Service операции с системными аккаунтами: баланс, airdrop, перевод SOL.
type Service struct {
	client     blockchain.Client
	sender     *transaction.Sender
	logger     *zap.Logger
	maxAirdrop decimal.Decimal
	commitment rpc.CommitmentType
}

// NewService создает сервис. maxAirdrop <= 0 означает значение по умолчанию.
func NewService(sender *transaction.Sender, logger *zap.Logger, maxAirdrop decimal.Decimal) *Service {
	if !maxAirdrop.IsPositive() {
		maxAirdrop = DefaultMaxAirdropSOL
	}
	return &Service{
		client:     sender.Client(),
		sender:     sender,
		logger:     logger.Named("account"),
		maxAirdrop: maxAirdrop,
		commitment: rpc.CommitmentConfirmed,
	}
}

// Info возвращает сведения об аккаунте.
func (s *Service) Info(ctx context.Context, address solana.PublicKey) (*Info, error) {
	res, err := s.client.GetAccountInfo(ctx, address)
	if err != nil {
		if blockchain.IsAccountNotFoundError(err) {
			return &Info{Address: address}, nil
		}
		return nil, fmt.Errorf("get account info: %w", err)
	}
	if res == nil || res.Value == nil {
		return &Info{Address: address}, nil
	}

	info := &Info{
		Address:    address,
		Exists:     true,
		Lamports:   res.Value.Lamports,
		Owner:      res.Value.Owner,
		Executable: res.Value.Executable,
	}
	if res.Value.Data != nil {
		info.DataLen = len(res.Value.Data.GetBinary())
	}
	return info, nil
}

// Balance возвращает баланс аккаунта.
func (s *Service) Balance(ctx context.Context, address solana.PublicKey) (Balance, error) {
	lamports, err := s.client.GetBalance(ctx, address, s.commitment)
	if err != nil {
		return Balance{}, fmt.Errorf("get balance of %s: %w", address, err)
	}
	return Balance{Address: address, Lamports: lamports, SOL: amount.LamportsToSOL(lamports)}, nil
}

// Balances запрашивает балансы параллельно; порядок результата совпадает с порядком адресов.
func (s *Service) Balances(ctx context.Context, addresses ...solana.PublicKey) ([]Balance, error) {
	result := make([]Balance, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, addr := range addresses {
		g.Go(func() error {
			b, err := s.Balance(gctx, addr)
			if err != nil {
				return err
			}
			result[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// Airdrop запрашивает тестовые SOL и ждет подтверждения.
func (s *Service) Airdrop(ctx context.Context, to solana.PublicKey, sol decimal.Decimal) (solana.Signature, error) {
	if !sol.IsPositive() || sol.GreaterThan(s.maxAirdrop) {
		return solana.Signature{}, &AirdropAmountError{Max: s.maxAirdrop}
	}
	lamports, err := amount.SOLToLamports(sol)
	if err != nil {
		return solana.Signature{}, err
	}

	op := events.Operation{Kind: "airdrop", Wallet: to.String(), Amount: sol.String()}
	return s.sender.Track(ctx, op, func(ctx context.Context) (solana.Signature, error) {
		sig, err := s.client.RequestAirdrop(ctx, to, lamports, s.commitment)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("request airdrop: %w", err)
		}
		s.logger.Info("airdrop requested",
			zap.String("to", to.String()),
			zap.String("sol", sol.String()),
			zap.String("signature", sig.String()))
		return sig, nil
	})
}

// TransferSOL переводит SOL после проверки баланса отправителя.
func (s *Service) TransferSOL(ctx context.Context, from *wallet.Wallet, to solana.PublicKey, sol decimal.Decimal) (solana.Signature, error) {
	b, err := s.transferBuilder(ctx, from, to, sol)
	if err != nil {
		return solana.Signature{}, err
	}
	op := events.Operation{
		Kind:         "transfer",
		Wallet:       from.String(),
		Counterparty: to.String(),
		Amount:       sol.String(),
	}
	return s.sender.Send(ctx, op, b)
}

// SimulateTransferSOL проверяет перевод симуляцией без отправки в сеть.
func (s *Service) SimulateTransferSOL(ctx context.Context, from *wallet.Wallet, to solana.PublicKey, sol decimal.Decimal) (*blockchain.SimulationResult, error) {
	b, err := s.transferBuilder(ctx, from, to, sol)
	if err != nil {
		return nil, err
	}
	return s.sender.Simulate(ctx, b)
}

func (s *Service) transferBuilder(ctx context.Context, from *wallet.Wallet, to solana.PublicKey, sol decimal.Decimal) (*transaction.Builder, error) {
	if !sol.IsPositive() {
		return nil, ErrInvalidAmount
	}
	lamports, err := amount.SOLToLamports(sol)
	if err != nil {
		return nil, err
	}
	if lamports == 0 {
		return nil, ErrInvalidAmount
	}

	balance, err := s.Balance(ctx, from.PublicKey)
	if err != nil {
		return nil, err
	}
	if balance.Lamports < lamports {
		return nil, fmt.Errorf("%w: have %s SOL, need %s SOL",
			ErrInsufficientBalance, balance.SOL.String(), sol.String())
	}

	return transaction.NewBuilder().
		AddInstruction(system.NewTransferInstruction(lamports, from.PublicKey, to).Build()).
		AddSigner(from), nil
}
