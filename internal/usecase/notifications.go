package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

// NotificationInbox exposes a user's in-app notifications.
type NotificationInbox struct {
	Repo entity.NotificationRepository
	Now  func() time.Time
}

func NewNotificationInbox(repo entity.NotificationRepository) *NotificationInbox {
	return &NotificationInbox{Repo: repo, Now: time.Now}
}

func (i *NotificationInbox) List(ctx context.Context, userID string, unreadOnly bool) ([]*entity.Notification, error) {
	items, err := i.Repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, newPersistenceError("failed to list notifications", err)
	}
	return items, nil
}

func (i *NotificationInbox) MarkRead(ctx context.Context, userID, id string) error {
	return mapNotificationError(i.Repo.MarkRead(ctx, userID, id, i.Now().UTC()), "failed to mark notification read")
}

func (i *NotificationInbox) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := i.Repo.MarkAllRead(ctx, userID, i.Now().UTC())
	if err != nil {
		return 0, newPersistenceError("failed to mark notifications read", err)
	}
	return n, nil
}

func (i *NotificationInbox) Delete(ctx context.Context, userID, id string) error {
	return mapNotificationError(i.Repo.Delete(ctx, userID, id), "failed to delete notification")
}

func mapNotificationError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entity.ErrNotificationNotFound):
		return &DomainError{Code: CodeNotificationNotFound, Message: "notification not found", Err: err}
	default:
		return newPersistenceError(op, err)
	}
}
