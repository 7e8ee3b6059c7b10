// internal/blockchain/blockchain.go
package blockchain

import (
	"errors"
	"strings"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
)

// IsAccountNotFoundError проверяет, является ли ошибка "not found"
func IsAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAccountNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
