// internal/journal/recorder.go
package journal

import (
	"context"
	"fmt"

	"github.com/rovshanmuradov/solana-devkit/internal/events"
	"github.com/rovshanmuradov/solana-devkit/internal/storage"
	"github.com/rovshanmuradov/solana-devkit/internal/storage/models"
	"go.uber.org/zap"
)

// Recorder переносит события завершения операций в хранилище.
type Recorder struct {
	store  storage.Storage
	logger *zap.Logger
	subs   []events.Subscription
}

// NewRecorder создает Recorder; Attach подписывает его на шину.
func NewRecorder(store storage.Storage, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger.Named("journal")}
}

// Attach подписывается на события завершения и ошибки операций.
func (r *Recorder) Attach(bus *events.Bus) {
	r.subs = append(r.subs,
		bus.Subscribe(events.OperationCompleted, r),
		bus.Subscribe(events.OperationFailed, r),
	)
}

// Detach снимает подписки.
func (r *Recorder) Detach() {
	for _, s := range r.subs {
		s.Unsubscribe()
	}
	r.subs = nil
}

// Handle реализует events.Handler.
func (r *Recorder) Handle(ctx context.Context, e events.Event) error {
	var record *models.Operation

	switch ev := e.(type) {
	case events.OperationCompletedEvent:
		record = newRecord(ev.Operation, models.StatusConfirmed)
		record.Signature = ev.Signature
		record.ExecutionTime = ev.Duration.Seconds()
	case events.OperationFailedEvent:
		record = newRecord(ev.Operation, models.StatusFailed)
		record.Signature = ev.Signature
		if ev.Error != nil {
			record.ErrorMessage = ev.Error.Error()
		}
	default:
		return nil
	}
	record.CreatedAt = e.Timestamp()

	// Запись итога не зависит от отмены операции.
	if err := r.store.SaveOperation(context.WithoutCancel(ctx), record); err != nil {
		r.logger.Warn("failed to record operation", zap.String("kind", record.Kind), zap.Error(err))
		return fmt.Errorf("save operation: %w", err)
	}
	r.logger.Debug("operation recorded",
		zap.String("kind", record.Kind),
		zap.String("status", record.Status),
		zap.String("signature", record.Signature))
	return nil
}

func newRecord(op events.Operation, status string) *models.Operation {
	return &models.Operation{
		Kind:          op.Kind,
		WalletAddress: op.Wallet,
		Counterparty:  op.Counterparty,
		Mint:          op.Mint,
		Amount:        op.Amount,
		Cluster:       op.Cluster,
		Status:        status,
	}
}
