// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/solana-devkit/internal/account"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-devkit/internal/config"
	"github.com/rovshanmuradov/solana-devkit/internal/events"
	"github.com/rovshanmuradov/solana-devkit/internal/explorer"
	"github.com/rovshanmuradov/solana-devkit/internal/export"
	"github.com/rovshanmuradov/solana-devkit/internal/journal"
	"github.com/rovshanmuradov/solana-devkit/internal/naming"
	"github.com/rovshanmuradov/solana-devkit/internal/nft"
	"github.com/rovshanmuradov/solana-devkit/internal/ping"
	"github.com/rovshanmuradov/solana-devkit/internal/storage"
	"github.com/rovshanmuradov/solana-devkit/internal/storage/memory"
	"github.com/rovshanmuradov/solana-devkit/internal/storage/postgres"
	"github.com/rovshanmuradov/solana-devkit/internal/storage/sqlite"
	"github.com/rovshanmuradov/solana-devkit/internal/token"
	"github.com/rovshanmuradov/solana-devkit/internal/transaction"
	"github.com/rovshanmuradov/solana-devkit/internal/uploader"
	"github.com/rovshanmuradov/solana-devkit/internal/utils/logger"
	"github.com/rovshanmuradov/solana-devkit/internal/utils/metrics"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrNoKeypair = errors.New("no keypair: pass --keypair or set the keypair environment variable")

// App собирает зависимости всех команд: RPC клиент, шину событий, журнал и сервисы.
type App struct {
	Config *config.Config
	Logger *logger.Logger

	Client   *solbc.Client
	Bus      *events.Bus
	Store    storage.Storage
	Recorder *journal.Recorder
	Metrics  *metrics.Collector
	Sender   *transaction.Sender

	Accounts *account.Service
	Tokens   *token.Service
	NFTs     *nft.Service
	Ping     *ping.Service
	Resolver *naming.Resolver
	Exporter *export.OperationExporter

	wallets map[string]*wallet.Wallet
}

// New инициализирует приложение по конфигурации.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}
	zl := log.Logger

	a.Metrics = metrics.NewCollector()
	a.Client = solbc.NewClient(cfg.RPCURL, zl,
		solbc.WithConfirmTimeout(cfg.ConfirmTimeout),
		solbc.WithCommitment(rpc.CommitmentType(cfg.Commitment)),
		solbc.WithRPCObserver(a.Metrics.ObserveRPC),
	)

	store, err := openStorage(cfg, zl)
	if err != nil {
		return nil, err
	}
	a.Store = store

	a.Bus = events.NewBus(zl, 64)
	a.Recorder = journal.NewRecorder(store, zl)
	a.Recorder.Attach(a.Bus)
	a.Metrics.Attach(a.Bus)

	txCfg := transaction.DefaultConfig()
	txCfg.Retries = cfg.Retries
	txCfg.Commitment = rpc.CommitmentType(cfg.Commitment)
	txCfg.Cluster = cfg.Cluster
	txCfg.SkipPreflight = cfg.SkipPreflight
	txCfg.ComputeUnitLimit = cfg.ComputeUnitLimit
	txCfg.ComputeUnitPrice = cfg.ComputeUnitPrice
	a.Sender = transaction.NewSender(a.Client, zl, txCfg, a.Bus)

	a.Accounts = account.NewService(a.Sender, zl, decimal.NewFromFloat(cfg.MaxAirdropSOL))
	a.Tokens = token.NewService(a.Sender, zl)

	up, err := uploader.New(uploader.Config{
		Kind:     cfg.Uploader.Kind,
		Endpoint: cfg.Uploader.Endpoint,
		Gateway:  cfg.Uploader.Gateway,
		Dir:      cfg.Uploader.Dir,
		Timeout:  time.Duration(cfg.Uploader.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}
	a.NFTs = nft.NewService(a.Sender, up, zl)

	if a.Ping, err = ping.NewService(a.Sender, zl, cfg.PingProgramID, cfg.PingDataAccount); err != nil {
		a.Close(context.Background())
		return nil, err
	}

	// Имена .sol живут в mainnet, поэтому резолвер использует отдельный RPC.
	nameClient := solbc.NewClient(cfg.NameServiceRPCURL, zl.Named("name-service"))
	a.Resolver = naming.NewResolver(nameClient, zl)

	a.Exporter = export.NewOperationExporter(zl)
	return a, nil
}

// openStorage выбирает журнал: postgres_url, затем sqlite_path, иначе локальный JSONL файл.
func openStorage(cfg *config.Config, zl *zap.Logger) (storage.Storage, error) {
	if cfg.PostgresURL != "" {
		store, err := postgres.NewStorage(cfg.PostgresURL, zl)
		if err != nil {
			return nil, err
		}
		if err := store.RunMigrations(); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	}

	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(cfg.SQLitePath, zl)
		if err != nil {
			return nil, err
		}
		if err := store.RunMigrations(); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	}

	if cfg.JournalFile == "" {
		return memory.NewStorage(), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.JournalFile), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	return memory.Open(cfg.JournalFile)
}

// Signer загружает подписанта: имя из wallets_file, путь к файлу, ключ строкой
// или, при пустом source, переменная окружения keypair_env.
func (a *App) Signer(source string) (*wallet.Wallet, error) {
	if source == "" {
		w, err := wallet.FromEnvironment(a.Config.KeypairEnv)
		if errors.Is(err, wallet.ErrKeyNotSet) {
			return nil, ErrNoKeypair
		}
		return w, err
	}

	if a.Config.WalletsFile != "" {
		if a.wallets == nil {
			wallets, err := wallet.LoadWallets(a.Config.WalletsFile)
			if err != nil {
				return nil, err
			}
			a.wallets = wallets
		}
		if w, ok := a.wallets[source]; ok {
			return w, nil
		}
	}
	return wallet.Load(source)
}

// TxLink ссылка на транзакцию в explorer для текущего кластера.
func (a *App) TxLink(signature string) string {
	return explorer.Link(explorer.Tx, signature, a.Config.Cluster, a.Config.RPCURL)
}

// AddressLink ссылка на адрес в explorer для текущего кластера.
func (a *App) AddressLink(address string) string {
	return explorer.Link(explorer.Address, address, a.Config.Cluster, a.Config.RPCURL)
}

func (a *App) closeStorage() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn("failed to close storage", zap.Error(err))
		}
		a.Store = nil
	}
}

// Close дожидается записи событий в журнал и освобождает ресурсы.
func (a *App) Close(ctx context.Context) {
	if a.Bus != nil {
		if err := a.Bus.Shutdown(ctx); err != nil {
			a.Logger.Warn("event bus shutdown", zap.Error(err))
		}
	}
	if a.Recorder != nil {
		a.Recorder.Detach()
	}
	if a.Metrics != nil {
		a.Metrics.Detach()
		if a.Config.MetricsFile != "" {
			if err := a.Metrics.WriteTextfile(a.Config.MetricsFile); err != nil {
				a.Logger.Warn("failed to write metrics", zap.Error(err))
			}
		}
	}
	a.closeStorage()

	if err := a.Logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
	}
}
