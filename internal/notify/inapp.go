package notify

import (
	"context"
	"time"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

// InAppChannel persists the message in the recipient's inbox.
type InAppChannel struct {
	Repo entity.NotificationRepository
	Now  func() time.Time
}

func NewInAppChannel(repo entity.NotificationRepository) *InAppChannel {
	return &InAppChannel{Repo: repo, Now: time.Now}
}

func (c *InAppChannel) Name() string { return "in_app" }

func (c *InAppChannel) Send(ctx context.Context, to entity.User, msg entity.Message) error {
	return c.Repo.Create(ctx, entity.NewNotification(to.ID, msg, c.Now().UTC()))
}
