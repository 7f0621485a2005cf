package notification

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"

	"communityhub/internal/domain/entity"
	"communityhub/internal/domain/repository"
	"communityhub/pkg/errors"
	"communityhub/pkg/logger"
	"communityhub/pkg/utils"
)

// Pusher is the part of *messaging.Client the dispatcher needs.
type Pusher interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// DispatchResult carries the stored notification id, or Disabled when the
// recipient turned in-app notifications off and nothing was written.
type DispatchResult struct {
	ID       string
	Disabled bool
}

type Dispatcher struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	pusher           Pusher
}

// NewDispatcher builds a dispatcher; a nil pusher disables push delivery.
func NewDispatcher(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository, pusher Pusher) *Dispatcher {
	return &Dispatcher{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		pusher:           pusher,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, n entity.Notification) (DispatchResult, error) {
	if n.UserID == "" || n.Type == "" {
		return DispatchResult{}, errors.Validation("userId and type are required")
	}

	user, err := d.userRepo.GetByID(ctx, n.UserID)
	if err != nil {
		return DispatchResult{}, err
	}
	if !user.InAppNotificationsEnabled() {
		return DispatchResult{Disabled: true}, nil
	}

	n.ID = uuid.New().String()
	n.Read = false
	n.CreatedAt = utils.NowMillis()
	if err := d.notificationRepo.Create(ctx, &n); err != nil {
		return DispatchResult{}, err
	}

	if d.pusher != nil && user.PushNotificationsEnabled() && len(user.FCMTokens) > 0 {
		if err := d.push(ctx, user.FCMTokens, &n); err != nil {
			logger.Warn("Push delivery failed for user %s: %v", n.UserID, err)
		}
	}

	return DispatchResult{ID: n.ID}, nil
}

func (d *Dispatcher) push(ctx context.Context, tokens []string, n *entity.Notification) error {
	data := map[string]string{
		"notificationId": n.ID,
		"type":           n.Type,
	}
	for k, v := range n.Data {
		data[k] = v
	}
	if n.ActionURL != "" {
		data["actionUrl"] = n.ActionURL
	}

	resp, err := d.pusher.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   data,
		Notification: &messaging.Notification{
			Title:    n.Title,
			Body:     n.Body,
			ImageURL: n.ImageURL,
		},
	})
	if err != nil {
		return err
	}
	if resp.FailureCount > 0 {
		return fmt.Errorf("%d of %d tokens rejected", resp.FailureCount, len(tokens))
	}
	return nil
}
