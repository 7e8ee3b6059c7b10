package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rovshanmuradov/solana-devkit/internal/events"
	"github.com/rovshanmuradov/solana-devkit/internal/storage"
	"github.com/rovshanmuradov/solana-devkit/internal/storage/memory"
	"github.com/rovshanmuradov/solana-devkit/internal/storage/models"
	"github.com/rovshanmuradov/solana-devkit/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecorderStoresCompletedAndFailed(t *testing.T) {
	store := memory.NewStorage()
	bus := events.NewBus(zap.NewNop(), 4)
	defer func() { _ = bus.Shutdown(context.Background()) }()

	rec := NewRecorder(store, zap.NewNop())
	rec.Attach(bus)

	ctx := context.Background()
	op := events.Operation{Kind: "transfer", Wallet: "w1", Counterparty: "w2", Amount: "0.1", Cluster: "devnet"}

	require.NoError(t, bus.PublishSync(ctx, events.NewStarted(op)))
	require.NoError(t, bus.PublishSync(ctx, events.NewCompleted(op, "sig-ok", 1500*time.Millisecond)))
	require.NoError(t, bus.PublishSync(ctx, events.NewFailed(op, "", errors.New("insufficient balance"))))

	ops, err := store.ListOperations(ctx, storage.Filter{})
	require.NoError(t, err)
	require.Len(t, ops, 2)

	ok, err := store.GetOperation(ctx, "sig-ok")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, ok.Status)
	assert.Equal(t, "w2", ok.Counterparty)
	assert.InDelta(t, 1.5, ok.ExecutionTime, 0.001)

	failed, err := store.ListOperations(ctx, storage.Filter{Status: models.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "insufficient balance", failed[0].ErrorMessage)

	rec.Detach()
	require.NoError(t, bus.PublishSync(ctx, events.NewCompleted(op, "sig-late", time.Second)))
	ops, err = store.ListOperations(ctx, storage.Filter{})
	require.NoError(t, err)
	assert.Len(t, ops, 2)
}

func TestRecorderSavesFailureAfterCancel(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "journal.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.RunMigrations())
	t.Cleanup(func() { _ = store.Close() })

	bus := events.NewBus(zap.NewNop(), 4)
	defer func() { _ = bus.Shutdown(context.Background()) }()
	NewRecorder(store, zap.NewNop()).Attach(bus)

	// Ctrl-C после отправки: подпись уже в сети, контекст операции отменен.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	op := events.Operation{Kind: "transfer", Wallet: "w1", Amount: "0.1", Cluster: "devnet"}
	require.NoError(t, bus.PublishSync(ctx, events.NewFailed(op, "sig-on-chain", context.Canceled)))

	got, err := store.GetOperation(context.Background(), "sig-on-chain")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, context.Canceled.Error(), got.ErrorMessage)
}
