// ==================================
// File: internal/wallet/loader.go
// ==================================
package wallet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrKeyNotSet = errors.New("secret key is not set")

// FromEnvironment читает секретный ключ из переменной окружения (с подгрузкой .env).
// Поддерживаются форма массива "[1, 2, ...]" и base58.
func FromEnvironment(name string) (*Wallet, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return nil, fmt.Errorf("%w: environment variable %s is empty", ErrKeyNotSet, name)
	}
	return Parse(value)
}

// Parse определяет формат ключа: массив чисел или base58.
func Parse(value string) (*Wallet, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "[") || strings.Contains(value, ",") {
		return FromSecretKeyArray(value)
	}
	return FromBase58(value)
}

// Load загружает кошелёк из источника: путь к JSON-файлу solana-keygen,
// строка-массив или base58.
func Load(source string) (*Wallet, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrKeyNotSet
	}
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		data, err := os.ReadFile(filepath.Clean(source))
		if err != nil {
			return nil, fmt.Errorf("failed to read keypair file: %w", err)
		}
		w, err := Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("keypair file %s: %w", source, err)
		}
		return w, nil
	}
	return Parse(source)
}

// WalletConfig represents the structure of wallets YAML file
type WalletConfig struct {
	Wallets []struct {
		Name       string `yaml:"name"`
		PrivateKey string `yaml:"private_key"`
	} `yaml:"wallets"`
}

// LoadWallets загружает именованные кошельки из YAML-файла.
// Записи с пустыми полями или некорректным ключом пропускаются.
func LoadWallets(path string) (map[string]*Wallet, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config WalletConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(config.Wallets) == 0 {
		return nil, fmt.Errorf("no wallets found in configuration")
	}

	wallets := make(map[string]*Wallet)
	for _, walletData := range config.Wallets {
		if walletData.Name == "" || walletData.PrivateKey == "" {
			continue
		}
		w, err := Parse(walletData.PrivateKey)
		if err != nil {
			continue
		}
		wallets[walletData.Name] = w
	}

	if len(wallets) == 0 {
		return nil, fmt.Errorf("no valid wallets loaded")
	}
	return wallets, nil
}
