// internal/storage/memory/memory.go
package memory

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rovshanmuradov/solana-devkit/internal/storage"
	"github.com/rovshanmuradov/solana-devkit/internal/storage/models"
)

// Storage хранит журнал в памяти процесса. Используется, когда не задан ни postgres_url, ни sqlite_path.
// Если задан path, каждая запись дописывается в файл JSON Lines и читается при открытии.
type Storage struct {
	mu     sync.RWMutex
	nextID uint
	ops    []*models.Operation
	path   string
}

// NewStorage создает пустое хранилище без файла.
func NewStorage() *Storage {
	return &Storage{nextID: 1}
}

// Open загружает журнал из файла (если он есть) и продолжает запись в него.
func Open(path string) (*Storage, error) {
	s := &Storage{nextID: 1, path: filepath.Clean(path)}

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var op models.Operation
		if err := json.Unmarshal(scanner.Bytes(), &op); err != nil {
			return nil, fmt.Errorf("journal %s line %d: %w", s.path, line, err)
		}
		s.ops = append(s.ops, &op)
		if op.ID >= s.nextID {
			s.nextID = op.ID + 1
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return s, nil
}

func (s *Storage) SaveOperation(_ context.Context, op *models.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	op.ID = s.nextID
	s.nextID++
	if op.CreatedAt.IsZero() {
		op.CreatedAt = now
	}
	op.UpdatedAt = now

	stored := *op
	if err := s.appendToFile(&stored); err != nil {
		return err
	}
	s.ops = append(s.ops, &stored)
	return nil
}

func (s *Storage) appendToFile(op *models.Operation) error {
	if s.path == "" {
		return nil
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(op)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

func (s *Storage) GetOperation(_ context.Context, signature string) (*models.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.ops) - 1; i >= 0; i-- {
		if s.ops[i].Signature == signature {
			op := *s.ops[i]
			return &op, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, signature)
}

func (s *Storage) ListOperations(_ context.Context, filter storage.Filter) ([]*models.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Operation
	for _, op := range s.ops {
		if !matches(op, filter) {
			continue
		}
		cp := *op
		result = append(result, &cp)
	}

	// Новые записи первыми, как в postgres
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func matches(op *models.Operation, f storage.Filter) bool {
	if f.Wallet != "" && op.WalletAddress != f.Wallet {
		return false
	}
	if f.Kind != "" && op.Kind != f.Kind {
		return false
	}
	if f.Status != "" && op.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && op.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}

func (s *Storage) RunMigrations() error { return nil }

func (s *Storage) Close() error { return nil }

var _ storage.Storage = (*Storage)(nil)
