package usecase

import (
	"context"
	stderrors "errors"

	"communityhub/internal/domain/repository"
	"communityhub/pkg/errors"
	"communityhub/pkg/logger"
	"communityhub/pkg/utils"
)

// RealtimeUseCase is the domain side of a websocket session.
type RealtimeUseCase struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	presence PresenceTracker
	unread   *UnreadUseCase
}

func NewRealtimeUseCase(chatRepo repository.ChatRepository, userRepo repository.UserRepository, presence PresenceTracker, unread *UnreadUseCase) *RealtimeUseCase {
	return &RealtimeUseCase{
		chatRepo: chatRepo,
		userRepo: userRepo,
		presence: presence,
		unread:   unread,
	}
}

func (uc *RealtimeUseCase) Connected(ctx context.Context, userID string) {
	if uc.presence != nil {
		if err := uc.presence.SetOnline(ctx, userID); err != nil {
			logger.Warn("SetOnline failed for %s: %v", userID, err)
		}
	}
	if err := uc.userRepo.UpdatePresence(ctx, userID, true, utils.NowMillis()); err != nil {
		logger.Warn("UpdatePresence failed for %s: %v", userID, err)
	}
}

func (uc *RealtimeUseCase) Heartbeat(ctx context.Context, userID string) {
	if uc.presence == nil {
		return
	}
	if err := uc.presence.SetOnline(ctx, userID); err != nil {
		logger.Warn("Heartbeat failed for %s: %v", userID, err)
	}
}

// Disconnected marks userID offline and returns the recorded last-seen time.
func (uc *RealtimeUseCase) Disconnected(ctx context.Context, userID string) int64 {
	lastSeen := utils.NowMillis()
	if uc.presence != nil {
		ms, err := uc.presence.SetOffline(ctx, userID)
		if err != nil {
			logger.Warn("SetOffline failed for %s: %v", userID, err)
		} else {
			lastSeen = ms
		}
	}
	if err := uc.userRepo.UpdatePresence(ctx, userID, false, lastSeen); err != nil {
		logger.Warn("UpdatePresence failed for %s: %v", userID, err)
	}
	return lastSeen
}

// JoinChat checks that userID belongs to chatID and returns its unread count.
func (uc *RealtimeUseCase) JoinChat(ctx context.Context, userID, chatID string) (int, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if !chat.HasParticipant(userID) {
		return 0, errors.Forbidden("You are not a participant of this chat", nil)
	}

	result := uc.unread.GetUnreadCount(ctx, chatID, userID)
	if result.Error != "" {
		return 0, errors.Internal(result.Error, nil)
	}
	return result.Count, nil
}

func (uc *RealtimeUseCase) MarkChatRead(ctx context.Context, userID, chatID string) error {
	result := uc.unread.MarkChatAsRead(ctx, chatID, userID)
	if !result.Success {
		return stderrors.New(result.Error)
	}
	return nil
}
