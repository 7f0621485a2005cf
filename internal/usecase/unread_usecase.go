package usecase

import (
	"context"

	"communityhub/internal/domain/repository"
	ws "communityhub/internal/infrastructure/websocket"
	"communityhub/internal/metrics"
	"communityhub/pkg/errors"
	"communityhub/pkg/logger"
	"communityhub/pkg/utils"
)

// markReadBatchSize matches Firestore's per-commit write limit.
const markReadBatchSize = 500

// Results of the unread service carry failures in Error instead of a Go
// error. Invalid marks input rejected before any backend call.
type UnreadCountResult struct {
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
	Invalid bool   `json:"-"`
}

type UnreadIDsResult struct {
	IDs     []string `json:"ids"`
	Error   string   `json:"error,omitempty"`
	Invalid bool     `json:"-"`
}

type ReadStatusResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Invalid bool   `json:"-"`
}

type MessageReadData struct {
	ChatID     string   `json:"chat_id"`
	MessageIDs []string `json:"message_ids"`
	ReaderID   string   `json:"reader_id"`
	ReadAt     int64    `json:"read_at"`
}

type UnreadUseCase struct {
	messageRepo repository.MessageRepository
	chatRepo    repository.ChatRepository
	realtime    RealtimePublisher
	metrics     *metrics.Metrics
}

func NewUnreadUseCase(
	messageRepo repository.MessageRepository,
	chatRepo repository.ChatRepository,
	realtime RealtimePublisher,
	m *metrics.Metrics,
) *UnreadUseCase {
	if realtime == nil {
		realtime = nopPublisher{}
	}
	return &UnreadUseCase{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		realtime:    realtime,
		metrics:     m,
	}
}

func (uc *UnreadUseCase) GetUnreadCount(ctx context.Context, chatID, userID string) UnreadCountResult {
	if chatID == "" || userID == "" {
		uc.metrics.UnreadQuery("count", "invalid")
		return UnreadCountResult{Error: "chatId and userId are required", Invalid: true}
	}

	count, err := uc.messageRepo.CountUnread(ctx, userID, chatID)
	if err != nil {
		logger.Error("GetUnreadCount Error: chat=%s user=%s: %v", chatID, userID, err)
		uc.backendError("count")
		return UnreadCountResult{Error: "Failed to load unread count"}
	}

	uc.metrics.UnreadQuery("count", "ok")
	return UnreadCountResult{Count: count}
}

func (uc *UnreadUseCase) GetTotalUnreadCount(ctx context.Context, userID string) UnreadCountResult {
	if userID == "" {
		uc.metrics.UnreadQuery("total", "invalid")
		return UnreadCountResult{Error: "userId is required", Invalid: true}
	}

	count, err := uc.messageRepo.CountUnread(ctx, userID, "")
	if err != nil {
		logger.Error("GetTotalUnreadCount Error: user=%s: %v", userID, err)
		uc.backendError("total")
		return UnreadCountResult{Error: "Failed to load unread count"}
	}

	uc.metrics.UnreadQuery("total", "ok")
	return UnreadCountResult{Count: count}
}

func (uc *UnreadUseCase) GetUnreadMessageIDs(ctx context.Context, userID string) UnreadIDsResult {
	if userID == "" {
		uc.metrics.UnreadQuery("ids", "invalid")
		return UnreadIDsResult{IDs: []string{}, Error: "userId is required", Invalid: true}
	}

	ids, err := uc.messageRepo.ListUnreadIDs(ctx, userID, "")
	if err != nil {
		logger.Error("GetUnreadMessageIDs Error: user=%s: %v", userID, err)
		uc.backendError("ids")
		return UnreadIDsResult{IDs: []string{}, Error: "Failed to load unread messages"}
	}
	if ids == nil {
		ids = []string{}
	}

	uc.metrics.UnreadQuery("ids", "ok")
	return UnreadIDsResult{IDs: ids}
}

// UpdateMessageReadStatus sets the read flag on a message addressed to
// readerID. The flag only moves forward: repeating the call on a read
// message succeeds without a write, and isRead=false is rejected.
func (uc *UnreadUseCase) UpdateMessageReadStatus(ctx context.Context, messageID, readerID string, isRead bool) ReadStatusResult {
	if messageID == "" || readerID == "" {
		uc.metrics.UnreadQuery("mark", "invalid")
		return ReadStatusResult{Error: "messageId and userId are required", Invalid: true}
	}
	if !isRead {
		uc.metrics.UnreadQuery("mark", "invalid")
		return ReadStatusResult{Error: "read status cannot be reverted", Invalid: true}
	}

	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.IsNotFound(err) {
			uc.metrics.UnreadQuery("mark", "not_found")
			return ReadStatusResult{Error: "Message not found"}
		}
		logger.Error("UpdateMessageReadStatus Error: message=%s: %v", messageID, err)
		uc.backendError("mark")
		return ReadStatusResult{Error: "Failed to update read status"}
	}

	if message.RecipientID != readerID {
		uc.metrics.UnreadQuery("mark", "invalid")
		return ReadStatusResult{Error: "Only the recipient can mark a message as read", Invalid: true}
	}
	if message.Read {
		uc.metrics.UnreadQuery("mark", "ok")
		return ReadStatusResult{Success: true}
	}

	readAt := utils.NowMillis()
	if err := uc.messageRepo.MarkRead(ctx, []string{messageID}, readAt); err != nil {
		logger.Error("UpdateMessageReadStatus Error: message=%s: %v", messageID, err)
		uc.backendError("mark")
		return ReadStatusResult{Error: "Failed to update read status"}
	}

	uc.metrics.UnreadQuery("mark", "ok")
	uc.afterRead(ctx, message.ChatID, readerID, []string{messageID}, readAt)
	return ReadStatusResult{Success: true}
}

// MarkChatAsRead flips every unread message addressed to userID in chatID.
func (uc *UnreadUseCase) MarkChatAsRead(ctx context.Context, chatID, userID string) ReadStatusResult {
	if chatID == "" || userID == "" {
		uc.metrics.UnreadQuery("mark_chat", "invalid")
		return ReadStatusResult{Error: "chatId and userId are required", Invalid: true}
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		if errors.IsNotFound(err) {
			uc.metrics.UnreadQuery("mark_chat", "not_found")
			return ReadStatusResult{Error: "Chat not found"}
		}
		logger.Error("MarkChatAsRead Error: chat=%s: %v", chatID, err)
		uc.backendError("mark_chat")
		return ReadStatusResult{Error: "Failed to mark chat as read"}
	}
	if !chat.HasParticipant(userID) {
		uc.metrics.UnreadQuery("mark_chat", "invalid")
		return ReadStatusResult{Error: "You are not a participant of this chat", Invalid: true}
	}

	ids, err := uc.messageRepo.ListUnreadIDs(ctx, userID, chatID)
	if err != nil {
		logger.Error("MarkChatAsRead Error: chat=%s user=%s: %v", chatID, userID, err)
		uc.backendError("mark_chat")
		return ReadStatusResult{Error: "Failed to mark chat as read"}
	}
	if len(ids) == 0 {
		uc.metrics.UnreadQuery("mark_chat", "ok")
		return ReadStatusResult{Success: true}
	}

	readAt := utils.NowMillis()
	for start := 0; start < len(ids); start += markReadBatchSize {
		end := start + markReadBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := uc.messageRepo.MarkRead(ctx, ids[start:end], readAt); err != nil {
			logger.Error("MarkChatAsRead Error: chat=%s batch=%d: %v", chatID, start/markReadBatchSize, err)
			uc.backendError("mark_chat")
			return ReadStatusResult{Error: "Failed to mark chat as read"}
		}
	}

	uc.metrics.UnreadQuery("mark_chat", "ok")
	uc.afterRead(ctx, chatID, userID, ids, readAt)
	return ReadStatusResult{Success: true}
}

// afterRead settles the chat snapshot and tells both sides about the change.
func (uc *UnreadUseCase) afterRead(ctx context.Context, chatID, readerID string, ids []string, readAt int64) {
	if err := uc.chatRepo.MarkLastMessageRead(ctx, chatID, readerID); err != nil {
		logger.Warn("MarkLastMessageRead failed for chat %s: %v", chatID, err)
	}

	uc.realtime.BroadcastToChat(chatID, ws.EventMessageRead, MessageReadData{
		ChatID:     chatID,
		MessageIDs: ids,
		ReaderID:   readerID,
		ReadAt:     readAt,
	}, readerID)

	if total := uc.GetTotalUnreadCount(ctx, readerID); total.Error == "" {
		uc.realtime.SendToUser(readerID, ws.EventUnreadCount, ws.UnreadCountData{Count: total.Count})
	}
}

func (uc *UnreadUseCase) backendError(op string) {
	uc.metrics.UnreadQuery(op, "error")
	uc.metrics.BackendError("messages")
}
