package websocket

import (
	"context"
	"encoding/json"
)

// Client -> server event types.
const (
	EventJoinChat  = "join_chat"
	EventLeaveChat = "leave_chat"
	EventMarkRead  = "mark_read"
	EventPing      = "ping"
)

// Server -> client event types.
const (
	EventNewMessage  = "new_message"
	EventMessageRead = "message_read"
	EventUnreadCount = "unread_count"
	EventPresence    = "presence"
	EventPong        = "pong"
	EventError       = "error"
)

// Event is the envelope of every frame in both directions.
type Event struct {
	Type      string          `json:"type"`
	ChatID    string          `json:"chat_id,omitempty"`
	Data      interface{}     `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type UnreadCountData struct {
	ChatID string `json:"chat_id,omitempty"`
	Count  int    `json:"count"`
}

type PresenceData struct {
	UserID   string `json:"user_id"`
	Online   bool   `json:"online"`
	LastSeen int64  `json:"last_seen,omitempty"`
}

type ErrorData struct {
	Error string `json:"error"`
}

// SessionHandler carries the domain side of a connection's lifecycle.
type SessionHandler interface {
	Connected(ctx context.Context, userID string)
	Heartbeat(ctx context.Context, userID string)
	Disconnected(ctx context.Context, userID string) int64
	// JoinChat authorises userID for chatID and returns its unread count.
	JoinChat(ctx context.Context, userID, chatID string) (int, error)
	MarkChatRead(ctx context.Context, userID, chatID string) error
}

func parseEvent(raw []byte) (Event, error) {
	var ev struct {
		Type   string `json:"type"`
		ChatID string `json:"chat_id"`
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, err
	}
	return Event{Type: ev.Type, ChatID: ev.ChatID}, nil
}
