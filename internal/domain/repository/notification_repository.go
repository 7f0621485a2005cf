package repository

import (
	"context"

	"communityhub/internal/domain/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
}
