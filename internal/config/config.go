// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config содержит настройки инструментов, загружаемые из файла, окружения и .env.
type Config struct {
	RPCURL            string   `mapstructure:"rpc_url"`
	NameServiceRPCURL string   `mapstructure:"name_service_rpc_url"`
	Cluster           string   `mapstructure:"cluster"`
	Commitment        string   `mapstructure:"commitment"`
	KeypairEnv        string   `mapstructure:"keypair_env"`
	WalletsFile       string   `mapstructure:"wallets_file"`
	Retries           int      `mapstructure:"retries"`
	SkipPreflight     bool     `mapstructure:"skip_preflight"`
	ConfirmTimeoutMS  int      `mapstructure:"confirm_timeout_ms"`
	ComputeUnitLimit  uint32   `mapstructure:"compute_unit_limit"`
	ComputeUnitPrice  uint64   `mapstructure:"compute_unit_price"`
	MaxAirdropSOL     float64  `mapstructure:"max_airdrop_sol"`
	PingProgramID     string   `mapstructure:"ping_program_id"`
	PingDataAccount   string   `mapstructure:"ping_data_account"`
	PostgresURL       string   `mapstructure:"postgres_url"`
	SQLitePath        string   `mapstructure:"sqlite_path"`
	JournalFile       string   `mapstructure:"journal_file"`
	DebugLogging      bool     `mapstructure:"debug_logging"`
	LogFile           string   `mapstructure:"log_file"`
	ExportDir         string   `mapstructure:"export_dir"`
	MetricsFile       string   `mapstructure:"metrics_file"` // textfile collector, пусто - не писать
	Uploader          Uploader `mapstructure:"uploader"`

	ConfirmTimeout time.Duration `mapstructure:"-"`
}

// Uploader описывает хранилище off-chain метаданных NFT.
type Uploader struct {
	Kind      string `mapstructure:"kind"` // "file" или "http"
	Endpoint  string `mapstructure:"endpoint"`
	Gateway   string `mapstructure:"gateway"`
	Dir       string `mapstructure:"dir"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

const (
	DefaultRPCURL            = "https://api.devnet.solana.com"
	DefaultNameServiceRPCURL = "https://api.mainnet-beta.solana.com"
	DefaultCluster           = "devnet"
	DefaultCommitment        = "confirmed"
	DefaultKeypairEnv        = "SECRET_KEY"
	DefaultRetries           = 3
	DefaultConfirmTimeoutMS  = 60000
	DefaultMaxAirdropSOL     = 2.0
	DefaultPingProgramID     = "ChT1B39WKLS8qUrkLvFDXMhEJ4F1XZzwUNHUt4AU9aVa"
	DefaultPingDataAccount   = "Ah9K7dQ8EHaZqcAsgBW8w37yN2eAy3koFmUn4x3CJtod"
	DefaultLogFile           = "solkit.log"
	DefaultExportDir         = "exports"
	DefaultJournalFile       = ".solkit/history.jsonl"
	DefaultUploaderKind      = "file"
	DefaultUploaderDir       = "uploads"
	DefaultUploaderTimeoutMS = 60000

	envPrefix = "SOLKIT"
)

var validCommitments = map[string]bool{
	"processed": true,
	"confirmed": true,
	"finalized": true,
}

var validClusters = map[string]bool{
	"devnet":       true,
	"testnet":      true,
	"mainnet-beta": true,
	"localnet":     true,
	"custom":       true,
}

// LoadConfig читает конфигурацию. Пустой path означает "только значения по умолчанию и окружение".
// Файл .env в рабочей директории подгружается до чтения переменных окружения.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	defaults := map[string]interface{}{
		"rpc_url":              DefaultRPCURL,
		"name_service_rpc_url": DefaultNameServiceRPCURL,
		"cluster":              DefaultCluster,
		"commitment":           DefaultCommitment,
		"keypair_env":          DefaultKeypairEnv,
		"retries":              DefaultRetries,
		"confirm_timeout_ms":   DefaultConfirmTimeoutMS,
		"max_airdrop_sol":      DefaultMaxAirdropSOL,
		"ping_program_id":      DefaultPingProgramID,
		"ping_data_account":    DefaultPingDataAccount,
		"log_file":             DefaultLogFile,
		"export_dir":           DefaultExportDir,
		"journal_file":         DefaultJournalFile,
		"uploader.kind":        DefaultUploaderKind,
		"uploader.dir":         DefaultUploaderDir,
		"uploader.timeout_ms":  DefaultUploaderTimeoutMS,
		// Пустые значения нужны, чтобы AutomaticEnv видел ключи при Unmarshal
		"wallets_file":       "",
		"postgres_url":       "",
		"sqlite_path":        "",
		"metrics_file":       "",
		"debug_logging":      false,
		"skip_preflight":     false,
		"compute_unit_limit": 0,
		"compute_unit_price": 0,
		"uploader.endpoint":  "",
		"uploader.gateway":   "",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	cfg.ConfirmTimeout = time.Duration(cfg.ConfirmTimeoutMS) * time.Millisecond

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("rpc_url is empty")
	}
	if err := validateURLWithCache(cfg.RPCURL, "http"); err != nil {
		return fmt.Errorf("invalid rpc_url: %w", err)
	}
	if cfg.NameServiceRPCURL != "" {
		if err := validateURLWithCache(cfg.NameServiceRPCURL, "http"); err != nil {
			return fmt.Errorf("invalid name_service_rpc_url: %w", err)
		}
	}
	if !validCommitments[cfg.Commitment] {
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}
	if !validClusters[cfg.Cluster] {
		return fmt.Errorf("invalid cluster %q", cfg.Cluster)
	}
	if cfg.PostgresURL != "" {
		if err := validateURLWithCache(cfg.PostgresURL, "postgres"); err != nil {
			return fmt.Errorf("invalid postgres_url: %w", err)
		}
	}
	if cfg.KeypairEnv == "" {
		return errors.New("keypair_env is empty")
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	switch cfg.Uploader.Kind {
	case "file":
		if cfg.Uploader.Dir == "" {
			return errors.New("uploader.dir is required for file uploader")
		}
	case "http":
		if err := validateURLWithCache(cfg.Uploader.Endpoint, "http"); err != nil {
			return fmt.Errorf("invalid uploader.endpoint: %w", err)
		}
	default:
		return fmt.Errorf("unknown uploader kind %q", cfg.Uploader.Kind)
	}
	return nil
}

func validateNumericParams(cfg *Config) error {
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.ConfirmTimeoutMS <= 0 {
		return errors.New("invalid confirm_timeout_ms")
	}
	if cfg.MaxAirdropSOL <= 0 {
		return errors.New("invalid max_airdrop_sol")
	}
	if cfg.Uploader.TimeoutMS <= 0 {
		return errors.New("invalid uploader.timeout_ms")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}
