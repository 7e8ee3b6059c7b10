// internal/uploader/file.go
package uploader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// FileUploader пишет файлы в локальную директорию и возвращает file:// URI.
// Имя файла содержит префикс хэша содержимого, одинаковые данные не дублируются.
type FileUploader struct {
	dir string
}

func NewFileUploader(dir string) (*FileUploader, error) {
	if dir == "" {
		dir = "uploads"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	return &FileUploader{dir: abs}, nil
}

func (u *FileUploader) Upload(ctx context.Context, name, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	sum := sha256.Sum256(data)
	filename := hex.EncodeToString(sum[:6]) + "-" + filepath.Base(name)
	path := filepath.Join(u.dir, filename)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(), nil
}
