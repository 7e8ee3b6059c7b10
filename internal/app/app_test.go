package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rovshanmuradov/solana-devkit/internal/config"
	"github.com/rovshanmuradov/solana-devkit/internal/events"
	"github.com/rovshanmuradov/solana-devkit/internal/storage"
	"github.com/rovshanmuradov/solana-devkit/internal/utils/logger"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		RPCURL:            "http://127.0.0.1:8899",
		NameServiceRPCURL: "http://127.0.0.1:8899",
		Cluster:           "localnet",
		Commitment:        "confirmed",
		KeypairEnv:        "SOLKIT_TEST_SECRET_KEY",
		Retries:           1,
		MaxAirdropSOL:     2,
		JournalFile:       filepath.Join(dir, "journal", "history.jsonl"),
		Uploader:          config.Uploader{Kind: "file", Dir: filepath.Join(dir, "uploads")},
	}
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	log, err := logger.New(&logger.Config{Quiet: true})
	require.NoError(t, err)
	a, err := New(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func TestNewWiresJournal(t *testing.T) {
	cfg := testConfig(t)
	a := newApp(t, cfg)

	op := events.Operation{Kind: "transfer", Wallet: "W", Amount: "1"}
	require.NoError(t, a.Bus.PublishSync(context.Background(), events.NewCompleted(op, "sig-1", 0)))

	ops, err := a.Store.ListOperations(context.Background(), storage.Filter{})
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "sig-1", ops[0].Signature)

	_, err = os.Stat(cfg.JournalFile)
	assert.NoError(t, err)
}

func TestNewPrefersSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.SQLitePath = filepath.Join(t.TempDir(), "db", "journal.db")
	a := newApp(t, cfg)

	op := events.Operation{Kind: "airdrop", Wallet: "W", Amount: "1"}
	require.NoError(t, a.Bus.PublishSync(context.Background(), events.NewCompleted(op, "sig-2", 0)))

	got, err := a.Store.GetOperation(context.Background(), "sig-2")
	require.NoError(t, err)
	assert.Equal(t, "airdrop", got.Kind)

	_, err = os.Stat(cfg.SQLitePath)
	assert.NoError(t, err)
	_, err = os.Stat(cfg.JournalFile)
	assert.True(t, os.IsNotExist(err))
}

func TestNewRejectsUnknownUploader(t *testing.T) {
	cfg := testConfig(t)
	cfg.Uploader.Kind = "s3"

	log, err := logger.New(&logger.Config{Quiet: true})
	require.NoError(t, err)
	_, err = New(cfg, log)
	assert.ErrorContains(t, err, "unknown uploader kind")
}

func TestSigner(t *testing.T) {
	w, err := wallet.Generate()
	require.NoError(t, err)

	cfg := testConfig(t)
	walletsFile := filepath.Join(t.TempDir(), "wallets.yaml")
	require.NoError(t, os.WriteFile(walletsFile, []byte("wallets:\n  - name: main\n    private_key: "+w.Base58()+"\n"), 0o600))
	cfg.WalletsFile = walletsFile
	a := newApp(t, cfg)

	t.Run("named wallet", func(t *testing.T) {
		got, err := a.Signer("main")
		require.NoError(t, err)
		assert.Equal(t, w.PublicKey, got.PublicKey)
	})

	t.Run("inline key", func(t *testing.T) {
		got, err := a.Signer(w.Base58())
		require.NoError(t, err)
		assert.Equal(t, w.PublicKey, got.PublicKey)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("SOLKIT_TEST_SECRET_KEY", "")
		_, err := a.Signer("")
		assert.ErrorIs(t, err, ErrNoKeypair)

		t.Setenv("SOLKIT_TEST_SECRET_KEY", w.Base58())
		got, err := a.Signer("")
		require.NoError(t, err)
		assert.Equal(t, w.PublicKey, got.PublicKey)
	})
}

func TestLinks(t *testing.T) {
	a := newApp(t, testConfig(t))
	assert.Contains(t, a.TxLink("abc"), "/tx/abc?cluster=custom")
	assert.Contains(t, a.AddressLink("xyz"), "/address/xyz")
}

func TestCloseWritesMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsFile = filepath.Join(t.TempDir(), "solkit.prom")

	log, err := logger.New(&logger.Config{Quiet: true})
	require.NoError(t, err)
	a, err := New(cfg, log)
	require.NoError(t, err)

	op := events.Operation{Kind: "airdrop", Wallet: "W", Amount: "1"}
	require.NoError(t, a.Bus.PublishSync(context.Background(), events.NewCompleted(op, "sig-1", 0)))
	a.Close(context.Background())

	content, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `solkit_transactions_total{kind="airdrop",status="confirmed"} 1`)
}
