package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediport/mediport/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for notifications.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a notification and returns it with id and timestamp set.
func (r *Repository) Insert(ctx context.Context, n Notification) (*Notification, error) {
	meta, err := json.Marshal(n.Metadata)
	if err != nil {
		return nil, fmt.Errorf("notifications: marshal metadata: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, actor_id, type, message, link, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		n.UserID, n.ActorID, n.Type, n.Message, nullable(n.Link), meta)
	if err := row.Scan(&n.ID, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListForUser returns a user's notifications, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, actor_id, type, message, COALESCE(link, ''), metadata, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Notification
	for rows.Next() {
		var n Notification
		var meta []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.ActorID, &n.Type, &n.Message, &n.Link, &meta, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &n.Metadata); err != nil {
				return nil, fmt.Errorf("notifications: unmarshal metadata: %w", err)
			}
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkRead flags one of the user's notifications as read.
func (r *Repository) MarkRead(ctx context.Context, id, userID int64) (*Notification, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, actor_id, type, message, COALESCE(link, ''), is_read, created_at`,
		id, userID)
	var n Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.ActorID, &n.Type, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// DeleteAllForUser clears a user's inbox.
func (r *Repository) DeleteAllForUser(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
