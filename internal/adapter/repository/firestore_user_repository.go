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
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, uid string) (*entity.User, error) {
	doc, err := r.client.Collection("users").Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", nil)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.UID = doc.Ref.ID

	return &user, nil
}

func (r *firestoreUserRepository) GetByIDs(ctx context.Context, uids []string) ([]*entity.User, error) {
	users := []*entity.User{}

	for _, chunk := range chunkStrings(uids, firestoreInLimit) {
		docs, err := r.client.Collection("users").Where("uid", "in", chunk).Documents(ctx).GetAll()
		if err != nil {
			return nil, errors.Internal("Failed to fetch users", err)
		}

		for _, doc := range docs {
			var user entity.User
			if err := doc.DataTo(&user); err != nil {
				logger.Warn("Error parsing user %s: %v", doc.Ref.ID, err)
				continue
			}
			user.UID = doc.Ref.ID
			users = append(users, &user)
		}
	}

	return users, nil
}

func (r *firestoreUserRepository) UpdatePresence(ctx context.Context, uid string, online bool, lastSeen int64) error {
	_, err := r.client.Collection("users").Doc(uid).Set(ctx, map[string]interface{}{
		"online":   online,
		"lastSeen": lastSeen,
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to update user presence", err)
	}
	return nil
}
