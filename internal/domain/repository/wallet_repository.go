package repository

import (
	"context"
	"errors"

	"communityhub/internal/domain/entity"
)

// ErrInsufficientBalance is returned when a debit exceeds the available balance.
var ErrInsufficientBalance = errors.New("insufficient available balance")

type WalletRepository interface {
	GetWallet(ctx context.Context, userID string) (*entity.Wallet, error)
	ListTransactions(ctx context.Context, userID string, filter entity.TransactionFilter, limit, offset int) ([]*entity.Transaction, int64, error)
	// CreateWithdrawal appends a pending withdrawal after re-checking the
	// available balance under a row lock on the wallet.
	CreateWithdrawal(ctx context.Context, userID string, amount float64, description string) (*entity.Transaction, error)
}
