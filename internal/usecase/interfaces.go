package usecase

import (
	"context"
	"io"
	"time"

	"communityhub/internal/domain/entity"
	"communityhub/internal/infrastructure/notification"
	"communityhub/internal/infrastructure/presence"
)

// RealtimePublisher pushes events to connected websocket clients.
type RealtimePublisher interface {
	SendToUser(userID, eventType string, data interface{})
	BroadcastToChat(chatID, eventType string, data interface{}, exceptUserID string)
}

type PresenceTracker interface {
	SetOnline(ctx context.Context, uid string) error
	SetOffline(ctx context.Context, uid string) (int64, error)
	Lookup(ctx context.Context, uids []string) (map[string]presence.Presence, error)
}

type NotificationDispatcher interface {
	Dispatch(ctx context.Context, n entity.Notification) (notification.DispatchResult, error)
}

type AttachmentStore interface {
	UploadAttachment(ctx context.Context, chatID, kind, contentType string, file io.Reader) (string, error)
}

type RateLimiter interface {
	Allow(userID, action string) (bool, time.Duration)
}

type nopPublisher struct{}

func (nopPublisher) SendToUser(string, string, interface{})              {}
func (nopPublisher) BroadcastToChat(string, string, interface{}, string) {}
