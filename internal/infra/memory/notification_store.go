package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

type NotificationStore struct {
	mu    sync.RWMutex
	items map[string]*entity.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{items: make(map[string]*entity.Notification)}
}

func (s *NotificationStore) Create(_ context.Context, n *entity.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[n.ID] = cloneNotification(n)
	return nil
}

func (s *NotificationStore) ListByUser(_ context.Context, userID string, unreadOnly bool) ([]*entity.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*entity.Notification{}
	for _, n := range s.items {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, cloneNotification(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, userID, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok || n.UserID != userID {
		return entity.ErrNotificationNotFound
	}
	if !n.Read {
		n.Read = true
		n.ReadAt = &at
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(_ context.Context, userID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.items {
		if n.UserID == userID && !n.Read {
			n.Read = true
			n.ReadAt = &at
			count++
		}
	}
	return count, nil
}

func (s *NotificationStore) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok || n.UserID != userID {
		return entity.ErrNotificationNotFound
	}
	delete(s.items, id)
	return nil
}

func cloneNotification(n *entity.Notification) *entity.Notification {
	c := *n
	c.Metadata = maps.Clone(n.Metadata)
	if n.ReadAt != nil {
		t := *n.ReadAt
		c.ReadAt = &t
	}
	return &c
}
