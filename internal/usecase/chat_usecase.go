package usecase

import (
	"context"
	"io"
	"time"

	"communityhub/internal/domain/chatview"
	"communityhub/internal/domain/entity"
	"communityhub/internal/domain/repository"
	"communityhub/internal/infrastructure/ratelimit"
	"communityhub/internal/infrastructure/storage"
	ws "communityhub/internal/infrastructure/websocket"
	"communityhub/internal/metrics"
	"communityhub/pkg/errors"
	"communityhub/pkg/logger"
	"communityhub/pkg/utils"
)

const (
	maxMessageLength = 4000
	notifyTimeout    = 5 * time.Second
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	dispatcher  NotificationDispatcher
	realtime    RealtimePublisher
	attachments AttachmentStore
	rateLimiter RateLimiter
	metrics     *metrics.Metrics

	// async runs fire-and-forget work such as notification dispatch.
	async func(func())
}

type ChatDependencies struct {
	ChatRepo    repository.ChatRepository
	MessageRepo repository.MessageRepository
	UserRepo    repository.UserRepository
	Dispatcher  NotificationDispatcher
	Realtime    RealtimePublisher
	Attachments AttachmentStore
	RateLimiter RateLimiter
	Metrics     *metrics.Metrics
}

func NewChatUseCase(deps ChatDependencies) *ChatUseCase {
	uc := &ChatUseCase{
		chatRepo:    deps.ChatRepo,
		messageRepo: deps.MessageRepo,
		userRepo:    deps.UserRepo,
		dispatcher:  deps.Dispatcher,
		realtime:    deps.Realtime,
		attachments: deps.Attachments,
		rateLimiter: deps.RateLimiter,
		metrics:     deps.Metrics,
		async:       func(f func()) { go f() },
	}
	if uc.realtime == nil {
		uc.realtime = nopPublisher{}
	}
	if uc.rateLimiter == nil {
		uc.rateLimiter = ratelimit.NewRateLimiter(nil)
	}
	return uc
}

type SendMessageInput struct {
	Text     string
	ImageURL string
	VoiceURL string
}

type ChatSummary struct {
	*entity.Chat
	OtherUser   *entity.User `json:"other_user,omitempty"`
	UnreadCount int          `json:"unread_count"`
}

type MessagePage struct {
	Conversation chatview.Conversation `json:"conversation"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
}

// StartChat returns the direct chat between userID and otherID, creating it
// on first use. The chat id is derived from the pair, so concurrent or
// repeated calls always converge on one document.
func (uc *ChatUseCase) StartChat(ctx context.Context, userID, otherID string) (*entity.Chat, error) {
	if userID == "" || otherID == "" {
		return nil, errors.Validation("userId and recipientId are required")
	}
	if userID == otherID {
		return nil, errors.BadRequest("You cannot create a chat with yourself", nil)
	}

	chatID := entity.DirectChatID(userID, otherID)
	existing, err := uc.chatRepo.GetByID(ctx, chatID)
	if err == nil {
		return existing, nil
	}
	if !errors.IsNotFound(err) {
		logger.Error("StartChat Error: lookup %s: %v", chatID, err)
		return nil, err
	}

	allowed, waitTime := uc.rateLimiter.Allow(userID, ratelimit.ActionCreateChat)
	if !allowed {
		logger.Info("StartChat Rate Limited: User %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before creating another chat", waitTime)
	}

	if _, err := uc.userRepo.GetByID(ctx, otherID); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NotFound("Recipient", nil)
		}
		return nil, err
	}

	chat, created, err := uc.chatRepo.CreateIfAbsent(ctx, &entity.Chat{
		ID:           chatID,
		Participants: entity.SortedParticipants(userID, otherID),
		PairKey:      entity.PairKey(userID, otherID),
	})
	if err != nil {
		logger.Error("StartChat Error: create %s: %v", chatID, err)
		return nil, err
	}
	if created {
		logger.Info("Chat %s created between %s and %s", chatID, userID, otherID)
	}

	return chat, nil
}

// GetChat returns chatID if userID participates in it.
func (uc *ChatUseCase) GetChat(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	if chatID == "" {
		return nil, errors.Validation("chatId is required")
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}
	return chat, nil
}

func (uc *ChatUseCase) ListUserChats(ctx context.Context, userID string, page utils.PaginationParams) ([]*ChatSummary, int64, error) {
	chats, total, err := uc.chatRepo.ListByUserID(ctx, userID, page.PageSize, page.Offset)
	if err != nil {
		logger.Error("ListUserChats Error: user=%s: %v", userID, err)
		return nil, 0, err
	}

	otherIDs := make([]string, 0, len(chats))
	for _, chat := range chats {
		if other := chatview.OtherParticipant(chat, userID); other != "" {
			otherIDs = append(otherIDs, other)
		}
	}

	others := map[string]*entity.User{}
	if len(otherIDs) > 0 {
		users, err := uc.userRepo.GetByIDs(ctx, otherIDs)
		if err != nil {
			logger.Warn("ListUserChats: failed to resolve participants: %v", err)
		}
		for _, u := range users {
			others[u.UID] = u
		}
	}

	summaries := make([]*ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summary := &ChatSummary{
			Chat:      chat,
			OtherUser: others[chatview.OtherParticipant(chat, userID)],
		}
		if count, err := uc.messageRepo.CountUnread(ctx, userID, chat.ID); err == nil {
			summary.UnreadCount = count
		} else {
			logger.Warn("ListUserChats: unread count for %s failed: %v", chat.ID, err)
		}
		summaries = append(summaries, summary)
	}

	return summaries, total, nil
}

// ListMessages returns one page of the chat rendered for userID.
func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, chatID string, page utils.PaginationParams) (*MessagePage, error) {
	chat, err := uc.GetChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	messages, total, err := uc.messageRepo.ListByChat(ctx, chatID, page.PageSize, page.Offset)
	if err != nil {
		logger.Error("ListMessages Error: chat=%s: %v", chatID, err)
		return nil, err
	}

	return &MessagePage{
		Conversation: chatview.Build(chat, messages, userID),
		Total:        total,
		Page:         page.Page,
		PageSize:     page.PageSize,
	}, nil
}

func (uc *ChatUseCase) SendMessage(ctx context.Context, userID, chatID string, input SendMessageInput) (*entity.Message, error) {
	if input.Text == "" && input.ImageURL == "" && input.VoiceURL == "" {
		return nil, errors.Validation("message must contain text, an image or a voice clip")
	}
	if len([]rune(input.Text)) > maxMessageLength {
		return nil, errors.Validation("text must be at most 4000 characters")
	}

	allowed, waitTime := uc.rateLimiter.Allow(userID, ratelimit.ActionSendMessage)
	if !allowed {
		logger.Info("SendMessage Rate Limited: User %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please slow down", waitTime)
	}

	chat, err := uc.GetChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		ChatID:      chatID,
		SenderID:    userID,
		RecipientID: chatview.OtherParticipant(chat, userID),
		Text:        input.Text,
		ImageURL:    input.ImageURL,
		VoiceURL:    input.VoiceURL,
		Timestamp:   utils.NowMillis(),
	}
	if err := uc.messageRepo.Create(ctx, message); err != nil {
		logger.Error("SendMessage Error: chat=%s: %v", chatID, err)
		uc.metrics.BackendError("messages")
		return nil, err
	}
	uc.metrics.MessageSent(message.Kind())

	last := &entity.LastMessage{
		Text:      message.Preview(),
		SenderID:  userID,
		Timestamp: message.Timestamp,
	}
	if err := uc.chatRepo.UpdateLastMessage(ctx, chatID, last); err != nil {
		logger.Warn("SendMessage: failed to update last message of %s: %v", chatID, err)
	}

	uc.realtime.BroadcastToChat(chatID, ws.EventNewMessage, message, "")
	if count, err := uc.messageRepo.CountUnread(ctx, message.RecipientID, ""); err == nil {
		uc.realtime.SendToUser(message.RecipientID, ws.EventUnreadCount, ws.UnreadCountData{Count: count})
	}

	uc.notifyRecipient(message)
	return message, nil
}

// notifyRecipient dispatches the in-app notification off the request path.
func (uc *ChatUseCase) notifyRecipient(message *entity.Message) {
	if uc.dispatcher == nil || message.RecipientID == "" {
		return
	}

	uc.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		title := "New message"
		imageURL := ""
		if sender, err := uc.userRepo.GetByID(ctx, message.SenderID); err == nil {
			if sender.DisplayName != "" {
				title = sender.DisplayName
			}
			imageURL = sender.PhotoURL
		}

		result, err := uc.dispatcher.Dispatch(ctx, entity.Notification{
			UserID:    message.RecipientID,
			Type:      entity.NotificationNewMessage,
			Title:     title,
			Body:      message.Preview(),
			ImageURL:  imageURL,
			ActionURL: "/chats/" + message.ChatID,
			Data: map[string]string{
				"chatId":    message.ChatID,
				"messageId": message.ID,
				"senderId":  message.SenderID,
			},
		})
		if err != nil {
			logger.Warn("Notification dispatch failed for message %s: %v", message.ID, err)
			uc.metrics.BackendError("notifications")
			return
		}
		if result.Disabled {
			logger.Debug("User %s disabled in-app notifications", message.RecipientID)
		}
	})
}

// UploadAttachment stores an image or voice clip for chatID and returns its URL.
func (uc *ChatUseCase) UploadAttachment(ctx context.Context, userID, chatID, kind, contentType string, file io.Reader) (string, error) {
	if kind != storage.KindImage && kind != storage.KindVoice {
		return "", errors.Validation("kind must be one of: image voice")
	}
	if _, ok := storage.ExtensionFor(kind, contentType); !ok {
		return "", errors.Validation("unsupported content type " + contentType)
	}
	if uc.attachments == nil {
		return "", errors.Internal("Attachment storage is not configured", nil)
	}

	if _, err := uc.GetChat(ctx, userID, chatID); err != nil {
		return "", err
	}

	allowed, waitTime := uc.rateLimiter.Allow(userID, ratelimit.ActionUpload)
	if !allowed {
		return "", errors.TooManyRequests("Rate limit exceeded. Please wait before uploading again", waitTime)
	}

	url, err := uc.attachments.UploadAttachment(ctx, chatID, kind, contentType, file)
	if err != nil {
		logger.Error("UploadAttachment Error: chat=%s: %v", chatID, err)
		uc.metrics.BackendError("storage")
		return "", errors.Internal("Failed to upload attachment", err)
	}
	return url, nil
}
