package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"communityhub/internal/domain/entity"
	"communityhub/internal/domain/repository"
	"communityhub/pkg/errors"
	"communityhub/pkg/logger"
	"communityhub/pkg/utils"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) chats() *firestore.CollectionRef {
	return r.client.Collection("chats")
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.chats().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", nil)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID

	return &chat, nil
}

func (r *firestoreChatRepository) CreateIfAbsent(ctx context.Context, chat *entity.Chat) (*entity.Chat, bool, error) {
	ref := r.chats().Doc(chat.ID)

	var stored entity.Chat
	created := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		doc, err := tx.Get(ref)
		if err == nil {
			return doc.DataTo(&stored)
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		now := utils.NowMillis()
		if chat.CreatedAt == 0 {
			chat.CreatedAt = now
		}
		chat.UpdatedAt = now
		stored = *chat
		created = true
		return tx.Create(ref, chat)
	})
	if err != nil {
		return nil, false, errors.Internal("Failed to create chat", err)
	}

	stored.ID = chat.ID
	return &stored, created, nil
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	query := r.chats().Where("participants", "array-contains", userID).OrderBy("updatedAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching chats for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to fetch chats", err)
	}

	total := int64(len(allDocs))
	start, end := paginate(len(allDocs), limit, offset)

	chats := make([]*entity.Chat, 0, end-start)
	for _, doc := range allDocs[start:end] {
		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			logger.Warn("Error parsing chat data for user %s: %v", userID, err)
			continue
		}
		chat.ID = doc.Ref.ID
		chats = append(chats, &chat)
	}

	return chats, total, nil
}

func (r *firestoreChatRepository) UpdateLastMessage(ctx context.Context, chatID string, last *entity.LastMessage) error {
	_, err := r.chats().Doc(chatID).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: last},
		{Path: "updatedAt", Value: last.Timestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat", nil)
		}
		return errors.Internal("Failed to update chat last message", err)
	}
	return nil
}

func (r *firestoreChatRepository) MarkLastMessageRead(ctx context.Context, chatID, readerID string) error {
	ref := r.chats().Doc(chatID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			return err
		}
		if chat.LastMessage == nil || chat.LastMessage.Read || chat.LastMessage.SenderID == readerID {
			return nil
		}

		return tx.Update(ref, []firestore.Update{{Path: "lastMessage.read", Value: true}})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat", nil)
		}
		return errors.Internal("Failed to update chat read snapshot", err)
	}
	return nil
}
