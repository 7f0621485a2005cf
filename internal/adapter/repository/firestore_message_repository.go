package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"communityhub/internal/domain/entity"
	"communityhub/internal/domain/repository"
	"communityhub/pkg/errors"
	"communityhub/pkg/logger"
	"communityhub/pkg/utils"
)

// Messages live in a top-level collection so unread queries can span
// chats without a collection-group index.
type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) messages() *firestore.CollectionRef {
	return r.client.Collection("messages")
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.Timestamp == 0 {
		message.Timestamp = utils.NowMillis()
	}

	_, err := r.messages().Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.messages().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", nil)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	message.ID = doc.Ref.ID

	return &message, nil
}

func (r *firestoreMessageRepository) ListByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	base := r.messages().Where("chatId", "==", chatID)

	total, err := countQuery(ctx, base)
	if err != nil {
		logger.Error("Firestore error while counting messages for chat %s: %v", chatID, err)
		return nil, 0, errors.Internal("Failed to count messages for chat", err)
	}

	query := base.OrderBy("timestamp", firestore.Asc)
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	messages := []*entity.Message{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for chat %s: %v", chatID, err)
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Error parsing message data for chat %s: %v", chatID, err)
			continue
		}
		message.ID = doc.Ref.ID
		messages = append(messages, &message)
	}

	return messages, total, nil
}

func (r *firestoreMessageRepository) unreadQuery(recipientID, chatID string) firestore.Query {
	query := r.messages().Where("recipientId", "==", recipientID).Where("read", "==", false)
	if chatID != "" {
		query = query.Where("chatId", "==", chatID)
	}
	return query
}

func (r *firestoreMessageRepository) CountUnread(ctx context.Context, recipientID, chatID string) (int, error) {
	count, err := countQuery(ctx, r.unreadQuery(recipientID, chatID))
	if err != nil {
		return 0, errors.Internal("Failed to count unread messages", err)
	}
	return int(count), nil
}

func (r *firestoreMessageRepository) ListUnreadIDs(ctx context.Context, recipientID, chatID string) ([]string, error) {
	// Select() with no paths returns references only.
	iter := r.unreadQuery(recipientID, chatID).Select().Documents(ctx)
	defer iter.Stop()

	ids := []string{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list unread messages", err)
		}
		ids = append(ids, doc.Ref.ID)
	}

	return ids, nil
}

func (r *firestoreMessageRepository) MarkRead(ctx context.Context, messageIDs []string, readAt int64) error {
	if len(messageIDs) == 0 {
		return nil
	}

	updates := []firestore.Update{
		{Path: "read", Value: true},
		{Path: "readAt", Value: readAt},
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(messageIDs))
	for _, id := range messageIDs {
		job, err := bw.Update(r.messages().Doc(id), updates)
		if err != nil {
			bw.End()
			return errors.Internal("Failed to queue read status update", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			if status.Code(err) == codes.NotFound {
				logger.Warn("MarkRead: message %s no longer exists", messageIDs[i])
				continue
			}
			return errors.Internal("Failed to update message read status", err)
		}
	}

	return nil
}
