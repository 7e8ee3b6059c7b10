// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/rovshanmuradov/solana-devkit/internal/storage/models"
)

var ErrNotFound = errors.New("record not found")

// Filter ограничивает выборку журнала операций. Пустые поля не фильтруют.
type Filter struct {
	Wallet string
	Kind   string
	Status string
	Since  time.Time
	Limit  int
	Offset int
}

// Storage определяет интерфейс для работы с журналом операций
type Storage interface {
	SaveOperation(ctx context.Context, op *models.Operation) error
	GetOperation(ctx context.Context, signature string) (*models.Operation, error)
	ListOperations(ctx context.Context, filter Filter) ([]*models.Operation, error)

	RunMigrations() error
	Close() error
}
