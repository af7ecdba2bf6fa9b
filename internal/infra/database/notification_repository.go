package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

type NotificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	var metadata any
	if len(n.Metadata) > 0 {
		b, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		metadata = string(b)
	}

	query := `
		INSERT INTO notifications (id, user_id, kind, title, message, link, metadata, read, created_at, read_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		n.ID, n.UserID, string(n.Kind), n.Title, n.Message, n.Link, metadata, n.Read, n.CreatedAt, n.ReadAt,
	)
	return err
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*entity.Notification, error) {
	query := `
		SELECT id, user_id, kind, title, message, link, metadata, read, created_at, read_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR read = FALSE)
		ORDER BY created_at DESC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*entity.Notification{}
	for rows.Next() {
		var (
			n        entity.Notification
			kind     string
			metadata []byte
			readAt   sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Message, &n.Link, &metadata, &n.Read, &n.CreatedAt, &readAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of notification %s: %w", n.ID, err)
			}
		}
		n.Kind = entity.NotificationKind(kind)
		n.ReadAt = timePtr(readAt)
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE notifications SET read = TRUE, read_at = COALESCE(read_at, $3) WHERE id = $1 AND user_id = $2`,
		id, userID, at,
	)
	return expectOne(res, err)
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE notifications SET read = TRUE, read_at = $2 WHERE user_id = $1 AND read = FALSE`,
		userID, at,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *NotificationRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	return expectOne(res, err)
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrNotificationNotFound
	}
	return nil
}
