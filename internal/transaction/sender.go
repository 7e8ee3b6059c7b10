// internal/transaction/sender.go
package transaction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-devkit/internal/events"
	"go.uber.org/zap"
)

// Config параметры отправки транзакций.
type Config struct {
	Retries         int           // повторные попытки после первой
	InitialInterval time.Duration // первая пауза exponential backoff
	MaxElapsedTime  time.Duration
	Commitment      rpc.CommitmentType
	Cluster         string // для журнала операций
	SkipPreflight   bool   // отправка без preflight-симуляции на стороне RPC

	// Compute budget по умолчанию для билдеров без собственных настроек.
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
}

// DefaultConfig возвращает параметры по умолчанию.
func DefaultConfig() Config {
	return Config{
		Retries:         3,
		InitialInterval: 500 * time.Millisecond,
		MaxElapsedTime:  90 * time.Second,
		Commitment:      rpc.CommitmentConfirmed,
	}
}

// ErrSimulationFailed программа отклонила транзакцию при симуляции.
var ErrSimulationFailed = errors.New("simulation failed")

// Sender строит, отправляет и подтверждает транзакции с повтором временных ошибок.
type Sender struct {
	client    blockchain.Client
	logger    *zap.Logger
	cfg       Config
	publisher events.Publisher
}

// NewSender создает отправителя. publisher может быть nil.
func NewSender(client blockchain.Client, logger *zap.Logger, cfg Config, publisher events.Publisher) *Sender {
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentConfirmed
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultConfig().InitialInterval
	}
	if cfg.MaxElapsedTime <= 0 {
		cfg.MaxElapsedTime = DefaultConfig().MaxElapsedTime
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Sender{
		client:    client,
		logger:    logger.Named("tx-sender"),
		cfg:       cfg,
		publisher: publisher,
	}
}

// Client возвращает RPC клиент отправителя.
func (s *Sender) Client() blockchain.Client {
	return s.client
}

// Cluster возвращает имя кластера для ссылок и журнала.
func (s *Sender) Cluster() string {
	return s.cfg.Cluster
}

// Send строит, подписывает, отправляет транзакцию и ждет подтверждения.
// Каждая попытка получает свежий blockhash.
func (s *Sender) Send(ctx context.Context, op events.Operation, b *Builder) (solana.Signature, error) {
	if op.Cluster == "" {
		op.Cluster = s.cfg.Cluster
	}
	if b.unitLimit == 0 && b.unitPrice == 0 {
		b.SetComputeBudget(s.cfg.ComputeUnitLimit, s.cfg.ComputeUnitPrice)
	}
	start := time.Now()
	s.publish(ctx, events.NewStarted(op))

	var lastSig solana.Signature
	attempt := 0
	operation := func() (solana.Signature, error) {
		attempt++
		tx, err := b.Build(ctx, s.client)
		if err != nil {
			if isTransient(err) {
				return solana.Signature{}, err
			}
			return solana.Signature{}, backoff.Permanent(err)
		}
		sig, err := s.submitAndConfirm(ctx, tx)
		if sig != (solana.Signature{}) {
			lastSig = sig
		}
		if err != nil && attempt > 1 {
			s.logger.Debug("attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return sig, err
	}

	sig, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(uint(s.cfg.Retries+1)),
		backoff.WithMaxElapsedTime(s.cfg.MaxElapsedTime),
	)
	if err != nil {
		s.logger.Error("transaction failed",
			zap.String("kind", op.Kind),
			zap.Int("attempts", attempt),
			zap.Error(err))
		s.publish(ctx, events.NewFailed(op, signatureString(lastSig), err))
		return lastSig, err
	}

	duration := time.Since(start)
	s.logger.Info("transaction confirmed",
		zap.String("kind", op.Kind),
		zap.String("signature", sig.String()),
		zap.Duration("duration", duration))
	s.publish(ctx, events.NewCompleted(op, sig.String(), duration))
	return sig, nil
}

// Track отправляет запрос, подпись которого возвращает сам RPC (airdrop),
// ждет подтверждения и публикует события как Send. Запрос не повторяется.
func (s *Sender) Track(ctx context.Context, op events.Operation, submit func(ctx context.Context) (solana.Signature, error)) (solana.Signature, error) {
	if op.Cluster == "" {
		op.Cluster = s.cfg.Cluster
	}
	start := time.Now()
	s.publish(ctx, events.NewStarted(op))

	sig, err := submit(ctx)
	if err != nil {
		s.publish(ctx, events.NewFailed(op, "", err))
		return solana.Signature{}, err
	}
	if err := s.client.WaitForTransactionConfirmation(ctx, sig, s.cfg.Commitment); err != nil {
		s.publish(ctx, events.NewFailed(op, sig.String(), err))
		return sig, fmt.Errorf("confirmation failed: %w", err)
	}
	s.publish(ctx, events.NewCompleted(op, sig.String(), time.Since(start)))
	return sig, nil
}

// Simulate строит и подписывает транзакцию, но только симулирует ее.
// Отказ программы возвращается вместе с результатом, чтобы были видны логи.
func (s *Sender) Simulate(ctx context.Context, b *Builder) (*blockchain.SimulationResult, error) {
	if b.unitLimit == 0 && b.unitPrice == 0 {
		b.SetComputeBudget(s.cfg.ComputeUnitLimit, s.cfg.ComputeUnitPrice)
	}
	tx, err := b.Build(ctx, s.client)
	if err != nil {
		return nil, err
	}
	res, err := s.client.SimulateTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("simulate transaction: %w", err)
	}
	if res.Err != nil {
		return res, fmt.Errorf("%w: %v", ErrSimulationFailed, res.Err)
	}
	s.logger.Debug("simulation ok", zap.Uint64("units_consumed", res.UnitsConsumed))
	return res, nil
}

func (s *Sender) send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if s.cfg.SkipPreflight {
		return s.client.SendTransactionWithOpts(ctx, tx, blockchain.TransactionOptions{
			SkipPreflight:       true,
			PreflightCommitment: s.cfg.Commitment,
		})
	}
	return s.client.SendTransaction(ctx, tx)
}

func (s *Sender) submitAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := s.send(ctx, tx)
	if err != nil {
		if isTransient(err) {
			return solana.Signature{}, err // Временная ошибка для retry
		}
		return solana.Signature{}, backoff.Permanent(fmt.Errorf("send transaction: %w", err))
	}

	// Транзакция уже в сети: повторная отправка может выполнить ее дважды.
	if err := s.client.WaitForTransactionConfirmation(ctx, sig, s.cfg.Commitment); err != nil {
		return sig, backoff.Permanent(fmt.Errorf("transaction %s: %w", sig, err))
	}
	return sig, nil
}

func (s *Sender) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialInterval
	return b
}

// publish не наследует отмену: после Ctrl-C подпись уже может быть в сети,
// и итоговое событие все равно должно попасть в журнал.
func (s *Sender) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(e.Type())), zap.Error(err))
	}
}

// Solana JSON-RPC: узел отстал от кластера.
const rpcNodeUnhealthy = -32005

var transientMarkers = []string{
	"blockhashnotfound",
	"blockhash not found",
	"too many requests",
	"bad gateway",
	"service unavailable",
	"gateway timeout",
	"connection reset",
	"connection refused",
	"i/o timeout",
}

// isTransient определяет ошибки сети/RPC, которые имеет смысл повторить.
// Отказ симуляции повторяется только при устаревшем blockhash.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var simErr *solbc.SimulationError
	if errors.As(err, &simErr) {
		return simErr.BlockhashNotFound()
	}
	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code == http.StatusTooManyRequests || httpErr.Code >= http.StatusInternalServerError
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == rpcNodeUnhealthy || hasTransientMarker(rpcErr.Message)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return hasTransientMarker(err.Error())
}

func hasTransientMarker(msg string) bool {
	msg = strings.ToLower(msg)
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func signatureString(sig solana.Signature) string {
	if sig == (solana.Signature{}) {
		return ""
	}
	return sig.String()
}
