package usecase

import (
	"context"

	"communityhub/internal/domain/entity"
	"communityhub/internal/domain/repository"
	"communityhub/pkg/errors"
	"communityhub/pkg/logger"
)

type ParticipantUseCase struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	presence PresenceTracker
}

// NewParticipantUseCase builds the resolver; presence may be nil.
func NewParticipantUseCase(chatRepo repository.ChatRepository, userRepo repository.UserRepository, presence PresenceTracker) *ParticipantUseCase {
	return &ParticipantUseCase{
		chatRepo: chatRepo,
		userRepo: userRepo,
		presence: presence,
	}
}

// GetChatParticipants resolves the chat's participant ids to user profiles
// in participant order. A missing chat or an empty participant list yields
// an empty slice.
func (uc *ParticipantUseCase) GetChatParticipants(ctx context.Context, chatID string) ([]*entity.User, error) {
	if chatID == "" {
		return []*entity.User{}, errors.Validation("chatId is required")
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		if errors.IsNotFound(err) {
			return []*entity.User{}, nil
		}
		logger.Error("GetChatParticipants Error: chat=%s: %v", chatID, err)
		return nil, err
	}

	return uc.resolve(ctx, chat.Participants)
}

func (uc *ParticipantUseCase) resolve(ctx context.Context, ids []string) ([]*entity.User, error) {
	if len(ids) == 0 {
		return []*entity.User{}, nil
	}

	found, err := uc.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		logger.Error("ResolveParticipants Error: %v", err)
		return nil, err
	}

	byID := make(map[string]*entity.User, len(found))
	for _, u := range found {
		byID[u.UID] = u
	}

	users := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}

	uc.overlayPresence(ctx, users)
	return users, nil
}

// overlayPresence replaces stored presence with the live tracker state.
func (uc *ParticipantUseCase) overlayPresence(ctx context.Context, users []*entity.User) {
	if uc.presence == nil || len(users) == 0 {
		return
	}

	uids := make([]string, len(users))
	for i, u := range users {
		uids[i] = u.UID
	}

	live, err := uc.presence.Lookup(ctx, uids)
	if err != nil {
		logger.Warn("Presence lookup failed: %v", err)
		return
	}

	for _, u := range users {
		if p, ok := live[u.UID]; ok {
			u.Online = p.Online
			if p.LastSeen > u.LastSeen {
				u.LastSeen = p.LastSeen
			}
		} else {
			u.Online = false
		}
	}
}
