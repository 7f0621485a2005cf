package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"communityhub/internal/domain/entity"
	"communityhub/internal/domain/repository"
	"communityhub/pkg/errors"
	"communityhub/pkg/utils"
)

type postgresWalletRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresWalletRepository(pool *pgxpool.Pool) repository.WalletRepository {
	return &postgresWalletRepository{
		pool: pool,
	}
}

func (r *postgresWalletRepository) GetWallet(ctx context.Context, userID string) (*entity.Wallet, error) {
	const q = `
SELECT user_id, currency, total_earnings, available_balance, pending_balance,
       platform_credits, has_payout_method, created_at, updated_at
FROM wallet_balances
WHERE user_id = $1;
`
	var (
		w                    entity.Wallet
		createdAt, updatedAt time.Time
	)
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&w.UserID,
		&w.Currency,
		&w.TotalEarnings,
		&w.AvailableBalance,
		&w.PendingBalance,
		&w.PlatformCredits,
		&w.HasPayoutMethod,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("Wallet", nil)
		}
		return nil, errors.Internal("Failed to get wallet", err)
	}

	w.CreatedAt = utils.ToMillis(createdAt)
	w.UpdatedAt = utils.ToMillis(updatedAt)
	return &w, nil
}

func (r *postgresWalletRepository) ListTransactions(ctx context.Context, userID string, filter entity.TransactionFilter, limit, offset int) ([]*entity.Transaction, int64, error) {
	where, args := buildTransactionWhere(userID, filter)

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Internal("Failed to count transactions", err)
	}

	q := fmt.Sprintf(`
SELECT id::text, user_id, type, amount, status, COALESCE(reference, ''), COALESCE(description, ''),
       created_at, updated_at
FROM transactions
%s
ORDER BY created_at DESC, id
LIMIT $%d OFFSET $%d;
`, where, len(args)+1, len(args)+2)

	rows, err := r.pool.Query(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.Internal("Failed to list transactions", err)
	}
	defer rows.Close()

	transactions := []*entity.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, errors.Internal("Failed to scan transaction", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Internal("Failed to iterate transactions", err)
	}

	return transactions, total, nil
}

func (r *postgresWalletRepository) CreateWithdrawal(ctx context.Context, userID string, amount float64, description string) (*entity.Transaction, error) {
	var created *entity.Transaction

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Serialise debits per wallet; the view cannot be locked directly.
		var locked string
		if err := tx.QueryRow(ctx, `SELECT user_id FROM wallets WHERE user_id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
			if stderrors.Is(err, pgx.ErrNoRows) {
				return errors.NotFound("Wallet", nil)
			}
			return err
		}

		var available float64
		if err := tx.QueryRow(ctx, `SELECT available_balance FROM wallet_balances WHERE user_id = $1`, userID).Scan(&available); err != nil {
			return err
		}
		if utils.ToCents(amount) > utils.ToCents(available) {
			return repository.ErrInsufficientBalance
		}

		row := tx.QueryRow(ctx, `
INSERT INTO transactions (user_id, type, amount, status, description)
VALUES ($1, 'withdrawal', $2, 'pending', NULLIF($3, ''))
RETURNING id::text, user_id, type, amount, status, COALESCE(reference, ''), COALESCE(description, ''),
          created_at, updated_at;
`, userID, utils.RoundAmount(amount), description)

		txn, err := scanTransaction(row)
		if err != nil {
			return err
		}
		created = txn
		return nil
	})
	if err != nil {
		if stderrors.Is(err, repository.ErrInsufficientBalance) || errors.IsNotFound(err) {
			return nil, err
		}
		return nil, errors.Internal("Failed to create withdrawal", err)
	}

	return created, nil
}

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	var (
		t                    entity.Transaction
		txnType, txnStatus   string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&t.ID, &t.UserID, &txnType, &t.Amount, &txnStatus, &t.Reference, &t.Description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Type = entity.TransactionType(txnType)
	t.Status = entity.TransactionStatus(txnStatus)
	t.CreatedAt = utils.ToMillis(createdAt)
	t.UpdatedAt = utils.ToMillis(updatedAt)
	return &t, nil
}
