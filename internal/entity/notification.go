package entity

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationLeadAvailable     NotificationKind = "lead_available"
	NotificationLeadAccepted      NotificationKind = "lead_accepted"
	NotificationPurchaseConfirmed NotificationKind = "purchase_confirmed"
	NotificationLeadSold          NotificationKind = "lead_sold"
)

// Message is the channel-agnostic payload handed to a delivery channel.
type Message struct {
	Kind     NotificationKind
	Title    string
	Body     string
	Link     string
	Metadata map[string]string
}

type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Kind      NotificationKind  `json:"kind"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Link      string            `json:"link,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
}

func NewNotification(userID string, msg Message, now time.Time) *Notification {
	return &Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      msg.Kind,
		Title:     msg.Title,
		Message:   msg.Body,
		Link:      msg.Link,
		Metadata:  maps.Clone(msg.Metadata),
		CreatedAt: now,
	}
}

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error)
	// MarkRead, MarkAllRead and Delete are scoped to userID; another user's
	// notification reports ErrNotificationNotFound.
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	Delete(ctx context.Context, userID, id string) error
}
