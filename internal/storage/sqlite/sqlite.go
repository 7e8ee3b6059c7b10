// internal/storage/sqlite/sqlite.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rovshanmuradov/solana-devkit/internal/storage"
	"github.com/rovshanmuradov/solana-devkit/internal/storage/models"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	signature TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	wallet_address TEXT NOT NULL,
	counterparty TEXT NOT NULL DEFAULT '',
	mint TEXT NOT NULL DEFAULT '',
	amount TEXT NOT NULL DEFAULT '',
	cluster TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	execution_time REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_operations_signature ON operations(signature);
CREATE INDEX IF NOT EXISTS idx_operations_wallet ON operations(wallet_address);
CREATE INDEX IF NOT EXISTS idx_operations_created ON operations(created_at);
`

const selectColumns = `id, created_at, updated_at, signature, kind, wallet_address,
	counterparty, mint, amount, cluster, status, error_message, execution_time`

// Storage журнал операций в локальном файле SQLite. Время хранится в unix-наносекундах UTC.
type Storage struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open открывает (или создает) базу по пути.
func Open(path string, logger *zap.Logger) (*Storage, error) {
	path = filepath.Clean(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Один писатель на файл
	db.SetMaxOpenConns(1)

	return &Storage{db: db, path: path, logger: logger.Named("sqlite")}, nil
}

// Path путь к файлу базы.
func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) RunMigrations() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Storage) SaveOperation(ctx context.Context, op *models.Operation) error {
	now := time.Now().UTC()
	if op.CreatedAt.IsZero() {
		op.CreatedAt = now
	}
	op.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `INSERT INTO operations (
		created_at, updated_at, signature, kind, wallet_address, counterparty,
		mint, amount, cluster, status, error_message, execution_time
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.CreatedAt.UnixNano(), op.UpdatedAt.UnixNano(), op.Signature, op.Kind, op.WalletAddress,
		op.Counterparty, op.Mint, op.Amount, op.Cluster, op.Status, op.ErrorMessage, op.ExecutionTime,
	)
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	op.ID = uint(id)
	return nil
}

func (s *Storage) GetOperation(ctx context.Context, signature string) (*models.Operation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM operations WHERE signature = ? ORDER BY id DESC LIMIT 1`, signature)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, signature)
	}
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (s *Storage) ListOperations(ctx context.Context, filter storage.Filter) ([]*models.Operation, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Wallet != "" {
		where = append(where, "wallet_address = ?")
		args = append(args, filter.Wallet)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UnixNano())
	}

	query := `SELECT ` + selectColumns + ` FROM operations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	// В SQLite OFFSET допустим только вместе с LIMIT
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := -1
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var ops []*models.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return ops, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOperation(row scanner) (*models.Operation, error) {
	var (
		op               models.Operation
		id               int64
		created, updated int64
	)
	err := row.Scan(&id, &created, &updated, &op.Signature, &op.Kind, &op.WalletAddress,
		&op.Counterparty, &op.Mint, &op.Amount, &op.Cluster, &op.Status, &op.ErrorMessage, &op.ExecutionTime)
	if err != nil {
		return nil, err
	}
	op.ID = uint(id)
	op.CreatedAt = time.Unix(0, created).UTC()
	op.UpdatedAt = time.Unix(0, updated).UTC()
	return &op, nil
}

func (s *Storage) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("failed to close database", zap.Error(err))
		return err
	}
	return nil
}

var _ storage.Storage = (*Storage)(nil)
