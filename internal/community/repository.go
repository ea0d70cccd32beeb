package community

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediport/mediport/internal/platform/db"
	"github.com/mediport/mediport/internal/platform/httpx"
)

// Repository persists community comments, replies and likes in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a community repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListThreads returns every comment with its author, replies and whether the
// viewer has liked it. Comments come newest first, replies oldest first.
func (r *Repository) ListThreads(ctx context.Context, viewerID int64) ([]CommentThread, error) {
	const commentsQ = `
		SELECT c.id, c.user_id, c.content, c.likes, c.created_at,
		       u.first_name, u.last_name, u.role, COALESCE(u.profile_picture, ''),
		       EXISTS (
		           SELECT 1 FROM comment_likes cl
		           WHERE cl.comment_id = c.id AND cl.user_id = $1
		       ) AS is_liked
		FROM comments c
		JOIN user_account u ON u.id = c.user_id
		ORDER BY c.created_at DESC`

	rows, err := r.pool.Query(ctx, commentsQ, viewerID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	threads := make([]CommentThread, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var t CommentThread
		err := rows.Scan(&t.ID, &t.UserID, &t.Content, &t.Likes, &t.CreatedAt,
			&t.Author.FirstName, &t.Author.LastName, &t.Author.Role, &t.Author.ProfilePicture,
			&t.IsLiked)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		t.Author.ID = t.UserID
		t.Replies = []ReplyView{}
		index[t.ID] = len(threads)
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const repliesQ = `
		SELECT p.id, p.comment_id, p.user_id, p.content, p.created_at,
		       u.first_name, u.last_name, u.role, COALESCE(u.profile_picture, '')
		FROM replies p
		JOIN user_account u ON u.id = p.user_id
		ORDER BY p.created_at ASC`

	replyRows, err := r.pool.Query(ctx, repliesQ)
	if err != nil {
		return nil, fmt.Errorf("query replies: %w", err)
	}
	defer replyRows.Close()

	for replyRows.Next() {
		var v ReplyView
		err := replyRows.Scan(&v.ID, &v.CommentID, &v.UserID, &v.Content, &v.CreatedAt,
			&v.Author.FirstName, &v.Author.LastName, &v.Author.Role, &v.Author.ProfilePicture)
		if err != nil {
			return nil, fmt.Errorf("scan reply: %w", err)
		}
		v.Author.ID = v.UserID
		if i, ok := index[v.CommentID]; ok {
			threads[i].Replies = append(threads[i].Replies, v)
		}
	}
	return threads, replyRows.Err()
}

// InsertComment stores a new comment.
func (r *Repository) InsertComment(ctx context.Context, userID int64, content string) (*Comment, error) {
	const q = `
		INSERT INTO comments (user_id, content, likes)
		VALUES ($1, $2, 0)
		RETURNING id, user_id, content, likes, created_at`

	var c Comment
	err := r.pool.QueryRow(ctx, q, userID, content).
		Scan(&c.ID, &c.UserID, &c.Content, &c.Likes, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &c, nil
}

// FindComment fetches one comment by id.
func (r *Repository) FindComment(ctx context.Context, id int64) (*Comment, error) {
	const q = `SELECT id, user_id, content, likes, created_at FROM comments WHERE id = $1`

	var c Comment
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&c.ID, &c.UserID, &c.Content, &c.Likes, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("comment %d: %w", id, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return &c, nil
}

// DeleteComment removes a comment together with its likes and replies.
func (r *Repository) DeleteComment(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM comment_likes WHERE comment_id = $1`, id); err != nil {
			return fmt.Errorf("delete comment likes: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM replies WHERE comment_id = $1`, id); err != nil {
			return fmt.Errorf("delete comment replies: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		return nil
	})
}

// InsertReply stores a reply on a comment.
func (r *Repository) InsertReply(ctx context.Context, commentID, userID int64, content string) (*Reply, error) {
	const q = `
		INSERT INTO replies (comment_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, comment_id, user_id, content, created_at`

	var p Reply
	err := r.pool.QueryRow(ctx, q, commentID, userID, content).
		Scan(&p.ID, &p.CommentID, &p.UserID, &p.Content, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert reply: %w", err)
	}
	return &p, nil
}

// FindReply fetches one reply by id.
func (r *Repository) FindReply(ctx context.Context, id int64) (*Reply, error) {
	const q = `SELECT id, comment_id, user_id, content, created_at FROM replies WHERE id = $1`

	var p Reply
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.CommentID, &p.UserID, &p.Content, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("reply %d: %w", id, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("find reply: %w", err)
	}
	return &p, nil
}

// DeleteReply removes a reply.
func (r *Repository) DeleteReply(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM replies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reply: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ToggleLike flips the viewer's like on a comment. The join row and the
// counter move together in one transaction; the counter never drops below
// zero. It returns the new liked state and counter value.
func (r *Repository) ToggleLike(ctx context.Context, commentID, userID int64) (bool, int, error) {
	var (
		liked bool
		likes int
	)
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insertQ = `
			INSERT INTO comment_likes (comment_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (comment_id, user_id) DO NOTHING`

		tag, err := tx.Exec(ctx, insertQ, commentID, userID)
		if err != nil {
			return fmt.Errorf("insert like: %w", err)
		}

		var counterQ string
		if tag.RowsAffected() > 0 {
			liked = true
			counterQ = `UPDATE comments SET likes = likes + 1 WHERE id = $1 RETURNING likes`
		} else {
			liked = false
			if _, err := tx.Exec(ctx,
				`DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`,
				commentID, userID); err != nil {
				return fmt.Errorf("delete like: %w", err)
			}
			counterQ = `UPDATE comments SET likes = GREATEST(likes - 1, 0) WHERE id = $1 RETURNING likes`
		}

		if err := tx.QueryRow(ctx, counterQ, commentID).Scan(&likes); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("comment %d: %w", commentID, httpx.ErrNotFound)
			}
			return fmt.Errorf("update like counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return liked, likes, nil
}
