package repository

import (
	"context"

	"communityhub/internal/domain/entity"
)

type ChatRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	// CreateIfAbsent stores chat unless a document with the same id exists.
	// It returns the stored chat and whether this call created it.
	CreateIfAbsent(ctx context.Context, chat *entity.Chat) (*entity.Chat, bool, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error)
	UpdateLastMessage(ctx context.Context, chatID string, last *entity.LastMessage) error
	// MarkLastMessageRead flips the snapshot's read flag when readerID is
	// not its sender.
	MarkLastMessageRead(ctx context.Context, chatID, readerID string) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	// ListByChat returns messages in ascending timestamp order.
	ListByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error)

	// Unread queries; an empty chatID spans every chat of the recipient.
	CountUnread(ctx context.Context, recipientID, chatID string) (int, error)
	ListUnreadIDs(ctx context.Context, recipientID, chatID string) ([]string, error)
	MarkRead(ctx context.Context, messageIDs []string, readAt int64) error
}
