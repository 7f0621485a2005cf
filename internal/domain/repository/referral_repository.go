package repository

import (
	"context"

	"communityhub/internal/domain/entity"
)

type ReferralRepository interface {
	GetByUserAndEvent(ctx context.Context, userID, eventID string) (*entity.Referral, error)
	GetByCode(ctx context.Context, code string) (*entity.Referral, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Referral, error)
	// CreateIfAbsent inserts the referral or returns the existing row for
	// the same (user, event) pair.
	CreateIfAbsent(ctx context.Context, referral *entity.Referral) (*entity.Referral, error)
}
