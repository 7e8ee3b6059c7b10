// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain"
	"go.uber.org/zap"
)

const (
	defaultPollInterval   = 500 * time.Millisecond
	defaultConfirmTimeout = 60 * time.Second
)

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
type Client struct {
	rpc            *rpc.Client
	logger         *zap.Logger
	commitment     rpc.CommitmentType
	pollInterval   time.Duration
	confirmTimeout time.Duration
	observer       RPCObserver
}

// RPCObserver получает метод, длительность и результат каждого JSON-RPC вызова.
type RPCObserver func(method string, d time.Duration, err error)

// Option настраивает клиент.
type Option func(*Client)

// WithConfirmTimeout задаёт максимальное время ожидания подтверждения.
func WithConfirmTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.confirmTimeout = d
		}
	}
}

// WithPollInterval задаёт интервал опроса статусов подписей.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithCommitment задаёт уровень commitment для запросов чтения.
func WithCommitment(commitment rpc.CommitmentType) Option {
	return func(c *Client) {
		if commitment != "" {
			c.commitment = commitment
		}
	}
}

// WithRPCObserver подключает наблюдателя за JSON-RPC вызовами (метрики задержек).
func WithRPCObserver(o RPCObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient создаёт новый клиент, принимая RPC URL и логгер через dependency injection.
func NewClient(rpcURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		logger:         logger.Named("solbc-client"),
		commitment:     rpc.CommitmentConfirmed,
		pollInterval:   defaultPollInterval,
		confirmTimeout: defaultConfirmTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.observer == nil {
		c.rpc = rpc.New(rpcURL)
	} else {
		c.rpc = rpc.NewWithCustomRPCClient(&observedRPC{
			JSONRPCClient: jsonrpc.NewClient(rpcURL),
			observe:       c.observer,
		})
	}
	return c
}

// observedRPC замеряет каждый вызов CallForInto.
type observedRPC struct {
	rpc.JSONRPCClient
	observe RPCObserver
}

func (o *observedRPC) CallForInto(ctx context.Context, out interface{}, method string, params []interface{}) error {
	start := time.Now()
	err := o.JSONRPCClient.CallForInto(ctx, out, method, params)
	o.observe(method, time.Since(start), err)
	return err
}

// GetRecentBlockhash получает последний blockhash.
func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		c.logger.Error("GetRecentBlockhash error", zap.Error(err))
		return solana.Hash{}, err
	}
	return result.Value.Blockhash, nil
}

// SendTransaction отправляет транзакцию.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransaction(ctx, tx)
	if err != nil {
		err = analyzeRPCError(err)
		c.logger.Error("SendTransaction error", zap.Error(err), simulationLogs(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// SendTransactionWithOpts отправляет транзакцию с заданными опциями.
func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: opts.PreflightCommitment,
	})
	if err != nil {
		err = analyzeRPCError(err)
		c.logger.Error("SendTransactionWithOpts error", zap.Error(err), simulationLogs(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// SimulateTransaction симулирует транзакцию и возвращает результат симуляции.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*blockchain.SimulationResult, error) {
	result, err := c.rpc.SimulateTransaction(ctx, tx)
	if err != nil {
		c.logger.Error("SimulateTransaction error", zap.Error(err))
		return nil, err
	}
	units := uint64(0)
	if result.Value.UnitsConsumed != nil {
		units = *result.Value.UnitsConsumed
	}
	return &blockchain.SimulationResult{
		Err:           result.Value.Err,
		Logs:          result.Value.Logs,
		UnitsConsumed: units,
	}, nil
}

// GetAccountInfo получает информацию об аккаунте.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", blockchain.ErrAccountNotFound, pubkey)
		}
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// GetAccountDataInto получает данные аккаунта и декодирует их в указанную структуру.
func (c *Client) GetAccountDataInto(ctx context.Context, pubkey solana.PublicKey, dst interface{}) error {
	err := c.rpc.GetAccountDataInto(ctx, pubkey, dst)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return fmt.Errorf("%w: %s", blockchain.ErrAccountNotFound, pubkey)
		}
		c.logger.Debug("GetAccountDataInto error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return err
	}
	return nil
}

// GetBalance получает баланс аккаунта.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, pubkey, commitment)
	if err != nil {
		c.logger.Error("GetBalance error", zap.Error(err))
		return 0, err
	}
	return result.Value, nil
}

// GetSignatureStatuses получает статусы транзакций.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	result, err := c.rpc.GetSignatureStatuses(ctx, false, signatures...)
	if err != nil {
		c.logger.Error("GetSignatureStatuses error", zap.Error(err))
		return nil, err
	}
	return result, nil
}

// RequestAirdrop запрашивает перевод тестовых лампортов.
func (c *Client) RequestAirdrop(ctx context.Context, pubkey solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error) {
	sig, err := c.rpc.RequestAirdrop(ctx, pubkey, lamports, commitment)
	if err != nil {
		c.logger.Error("RequestAirdrop error",
			zap.String("pubkey", pubkey.String()),
			zap.Uint64("lamports", lamports),
			zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// GetMinimumBalanceForRentExemption возвращает минимальный rent-exempt баланс для размера данных.
func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	lamports, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, dataSize, c.commitment)
	if err != nil {
		c.logger.Error("GetMinimumBalanceForRentExemption error", zap.Uint64("size", dataSize), zap.Error(err))
		return 0, err
	}
	return lamports, nil
}

// GetTokenAccountBalance получает баланс токенного аккаунта
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.GetTokenAccountBalanceResult, error) {
	result, err := c.rpc.GetTokenAccountBalance(ctx, account, c.commitment)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", blockchain.ErrAccountNotFound, account)
		}
		c.logger.Debug("GetTokenAccountBalance error", zap.String("account", account.String()), zap.Error(err))
		return nil, err
	}
	return result, nil
}

// WaitForTransactionConfirmation ожидает подтверждения транзакции (polling статусов).
// Статус с Err означает, что транзакция попала в блок, но завершилась ошибкой.
func (c *Client) WaitForTransactionConfirmation(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	timeout := time.After(c.confirmTimeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("%w: %s after %s", blockchain.ErrConfirmationTimeout, signature, c.confirmTimeout)
		case <-ticker.C:
			statuses, err := c.GetSignatureStatuses(ctx, signature)
			if err != nil {
				c.logger.Warn("Error getting signature statuses", zap.Error(err))
				continue
			}
			if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
				continue
			}
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %s: %v", blockchain.ErrTransactionFailed, signature, status.Err)
			}
			if reachedCommitment(status.ConfirmationStatus, commitment) {
				return nil
			}
		}
	}
}

func simulationLogs(err error) zap.Field {
	var simErr *SimulationError
	if errors.As(err, &simErr) {
		return zap.Strings("program_logs", simErr.Logs)
	}
	return zap.Skip()
}

// reachedCommitment сравнивает достигнутый статус с требуемым уровнем.
func reachedCommitment(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	rank := map[rpc.ConfirmationStatusType]int{
		rpc.ConfirmationStatusProcessed: 1,
		rpc.ConfirmationStatusConfirmed: 2,
		rpc.ConfirmationStatusFinalized: 3,
	}
	required := 2
	switch want {
	case rpc.CommitmentProcessed:
		required = 1
	case rpc.CommitmentFinalized:
		required = 3
	}
	return rank[status] >= required
}

// Гарантируем, что Client реализует интерфейс blockchain.Client.
var _ blockchain.Client = (*Client)(nil)
