package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"communityhub/internal/domain/entity"
	"communityhub/internal/domain/repository"
	"communityhub/pkg/errors"
	"communityhub/pkg/utils"
)

const referralColumns = `id::text, user_id, event_id, code, earnings, conversion_count, created_at`

type postgresReferralRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresReferralRepository(pool *pgxpool.Pool) repository.ReferralRepository {
	return &postgresReferralRepository{
		pool: pool,
	}
}

func (r *postgresReferralRepository) GetByUserAndEvent(ctx context.Context, userID, eventID string) (*entity.Referral, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+referralColumns+` FROM referrals WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	return r.scanOne(row)
}

func (r *postgresReferralRepository) GetByCode(ctx context.Context, code string) (*entity.Referral, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+referralColumns+` FROM referrals WHERE code = $1`, code)
	return r.scanOne(row)
}

func (r *postgresReferralRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Referral, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+referralColumns+` FROM referrals WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Internal("Failed to list referrals", err)
	}
	defer rows.Close()

	referrals := []*entity.Referral{}
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, errors.Internal("Failed to scan referral", err)
		}
		referrals = append(referrals, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("Failed to iterate referrals", err)
	}
	return referrals, nil
}

func (r *postgresReferralRepository) CreateIfAbsent(ctx context.Context, referral *entity.Referral) (*entity.Referral, error) {
	_, err := r.pool.Exec(ctx, `
INSERT INTO referrals (user_id, event_id, code)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING;
`, referral.UserID, referral.EventID, referral.Code)
	if err != nil {
		return nil, errors.Internal("Failed to create referral", err)
	}

	return r.GetByUserAndEvent(ctx, referral.UserID, referral.EventID)
}

func (r *postgresReferralRepository) scanOne(row pgx.Row) (*entity.Referral, error) {
	ref, err := scanReferral(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("Referral", nil)
		}
		return nil, errors.Internal("Failed to get referral", err)
	}
	return ref, nil
}

func scanReferral(row pgx.Row) (*entity.Referral, error) {
	var (
		ref       entity.Referral
		createdAt time.Time
	)
	if err := row.Scan(&ref.ID, &ref.UserID, &ref.EventID, &ref.Code, &ref.Earnings, &ref.ConversionCount, &createdAt); err != nil {
		return nil, err
	}
	ref.CreatedAt = utils.ToMillis(createdAt)
	return &ref, nil
}
