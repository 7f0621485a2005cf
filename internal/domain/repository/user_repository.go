package repository

import (
	"context"

	"communityhub/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, uid string) (*entity.User, error)
	// GetByIDs returns the users that exist among uids, in no particular order.
	GetByIDs(ctx context.Context, uids []string) ([]*entity.User, error)
	UpdatePresence(ctx context.Context, uid string, online bool, lastSeen int64) error
}
