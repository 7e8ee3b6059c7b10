// internal/uploader/uploader.go
package uploader

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrEmptyURI = errors.New("upload response has no uri")

// Uploader сохраняет файл во внешнем хранилище и возвращает его URI.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Config выбор и параметры хранилища.
type Config struct {
	Kind     string // file | http
	Endpoint string
	Gateway  string
	Dir      string
	Timeout  time.Duration
}

// New создает uploader по конфигурации.
func New(cfg Config) (Uploader, error) {
	switch cfg.Kind {
	case "", "file":
		return NewFileUploader(cfg.Dir)
	case "http":
		return NewHTTPUploader(cfg.Endpoint, cfg.Gateway, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown uploader kind: %s", cfg.Kind)
	}
}
