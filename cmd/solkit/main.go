package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rovshanmuradov/solana-devkit/internal/app"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-devkit/internal/config"
	"github.com/rovshanmuradov/solana-devkit/internal/utils/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	rpcURL     string
	cluster    string
	keypair    string
	debug      bool

	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "solkit",
	Short: "Solana developer toolkit",
	Long: `solkit wraps everyday Solana developer tasks: keypairs, balances,
airdrops, SOL and SPL token transfers, token mints and Metaplex NFTs.

Every transaction is recorded in a local journal (or Postgres, when
postgres_url is configured) and can be listed or exported with "history".

Run "solkit menu" for the interactive mode.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeApp()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (json or yaml)")
	flags.StringVar(&rpcURL, "rpc-url", "", "RPC endpoint, overrides rpc_url")
	flags.StringVar(&cluster, "cluster", "", "cluster name for explorer links and journal")
	flags.StringVarP(&keypair, "keypair", "k", "", "signer: wallet name, keypair file, base58 or [..] secret key")
	flags.BoolVar(&debug, "debug", false, "verbose console logging")
}

// loadApp создает приложение при первом обращении; команды без RPC его не вызывают.
func loadApp() (*app.App, error) {
	if application != nil {
		return application, nil
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if rpcURL != "" {
		cfg.RPCURL = rpcURL
		if cluster == "" {
			cfg.Cluster = "custom"
		}
	}
	if cluster != "" {
		cfg.Cluster = cluster
	}
	if debug {
		cfg.DebugLogging = true
	}

	log, err := logger.New(logger.ForCLI(cfg.LogFile, cfg.DebugLogging))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a, err := app.New(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	log.Debug("solkit started",
		zap.String("rpc", cfg.RPCURL),
		zap.String("cluster", cfg.Cluster))

	application = a
	return a, nil
}

func closeApp() {
	if application == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	application.Close(ctx)
	application = nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	closeApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var simErr *solbc.SimulationError
		if errors.As(err, &simErr) && len(simErr.Logs) > 0 {
			fmt.Fprintln(os.Stderr, "Program logs:")
			for _, line := range simErr.Logs {
				fmt.Fprintln(os.Stderr, "  "+line)
			}
		}
		os.Exit(1)
	}
}
