// Package community implements the public comment board with replies,
// per-user likes and admin moderation.
package community

import "time"

// Comment is a top-level post on the community board.
type Comment struct {
	ID        int64
	UserID    int64
	Content   string
	Likes     int
	CreatedAt time.Time
}

// OwnedBy identifies the comment author.
func (c *Comment) OwnedBy() int64 { return c.UserID }

// Reply is a response attached to a comment.
type Reply struct {
	ID        int64
	CommentID int64
	UserID    int64
	Content   string
	CreatedAt time.Time
}

// OwnedBy identifies the reply author.
func (r *Reply) OwnedBy() int64 { return r.UserID }

// AuthorSummary is the slice of account data shown next to a post.
type AuthorSummary struct {
	ID             int64
	FirstName      string
	LastName       string
	Role           string
	ProfilePicture string
}

// CommentThread is a comment with its replies as the board renders it.
type CommentThread struct {
	Comment
	Author  AuthorSummary
	IsLiked bool
	Replies []ReplyView
}

// ReplyView is a reply joined with its author.
type ReplyView struct {
	Reply
	Author AuthorSummary
}

// DefaultModerationReason is used when an admin removes a comment without
// giving an explicit reason.
const DefaultModerationReason = "Violated community guidelines"
