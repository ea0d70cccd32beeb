package community

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/platform/httpx"
	"github.com/mediport/mediport/internal/shared"
)

const excerptLimit = 80

// RepositoryPort defines data access methods for the community board.
type RepositoryPort interface {
	ListThreads(ctx context.Context, viewerID int64) ([]CommentThread, error)
	InsertComment(ctx context.Context, userID int64, content string) (*Comment, error)
	FindComment(ctx context.Context, id int64) (*Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	InsertReply(ctx context.Context, commentID, userID int64, content string) (*Reply, error)
	FindReply(ctx context.Context, id int64) (*Reply, error)
	DeleteReply(ctx context.Context, id int64) error
	ToggleLike(ctx context.Context, commentID, userID int64) (bool, int, error)
}

// Notifier delivers community notifications.
type Notifier interface {
	CommentLiked(ctx context.Context, authorID, actorID int64, actorName, excerpt string) error
	CommentReplied(ctx context.Context, authorID, actorID int64, actorName, excerpt string) error
	CommentDeleted(ctx context.Context, authorID, adminID int64, excerpt, reason string) error
}

// Service handles community board business logic.
type Service struct {
	repo     RepositoryPort
	guard    *auth.Guard
	notifier Notifier
	audit    shared.Recorder
	logger   *slog.Logger
}

// NewService builds a community Service.
func NewService(repo RepositoryPort, guard *auth.Guard, notifier Notifier, audit shared.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, guard: guard, notifier: notifier, audit: audit, logger: logger}
}

// List returns the board with the caller's like state filled in.
func (s *Service) List(ctx context.Context, principal *auth.Account) ([]CommentThread, error) {
	return s.repo.ListThreads(ctx, principal.ID)
}

// CreateComment posts a new comment.
func (s *Service) CreateComment(ctx context.Context, principal *auth.Account, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", httpx.ErrValidation)
	}
	return s.repo.InsertComment(ctx, principal.ID, content)
}

// DeleteComment removes a comment. Authors delete their own posts; admins
// moderate anyone's, which notifies the author with the given reason.
func (s *Service) DeleteComment(ctx context.Context, principal *auth.Account, id int64, reason string) error {
	comment, err := s.repo.FindComment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.Authorize(ctx, principal, auth.ActionDeleteComment, comment); err != nil {
		return err
	}
	if err := s.repo.DeleteComment(ctx, id); err != nil {
		return err
	}

	// A moderation delete, as opposed to an author cleaning up their own
	// post, tells the author what happened and why.
	if comment.UserID != principal.ID {
		if reason = strings.TrimSpace(reason); reason == "" {
			reason = DefaultModerationReason
		}
		if err := s.notifier.CommentDeleted(ctx, comment.UserID, principal.ID, excerpt(comment.Content), reason); err != nil {
			s.logger.Warn("moderation notification", slog.Int64("comment", id), slog.Any("error", err))
		}
		s.recordAudit(ctx, shared.AuditLog{
			ActorID:  principal.ID,
			Action:   shared.AuditModerateComment,
			Entity:   "comment",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"author_id": comment.UserID, "reason": reason},
		})
	}
	return nil
}

// CreateReply posts a reply and notifies the comment author.
func (s *Service) CreateReply(ctx context.Context, principal *auth.Account, commentID int64, content string) (*Reply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", httpx.ErrValidation)
	}
	comment, err := s.repo.FindComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	reply, err := s.repo.InsertReply(ctx, commentID, principal.ID, content)
	if err != nil {
		return nil, err
	}
	if comment.UserID != principal.ID {
		if err := s.notifier.CommentReplied(ctx, comment.UserID, principal.ID, principal.FullName(), excerpt(comment.Content)); err != nil {
			s.logger.Warn("reply notification", slog.Int64("comment", commentID), slog.Any("error", err))
		}
	}
	return reply, nil
}

// DeleteReply removes a reply. Authors delete their own; admins any.
func (s *Service) DeleteReply(ctx context.Context, principal *auth.Account, id int64) error {
	reply, err := s.repo.FindReply(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.Authorize(ctx, principal, auth.ActionDeleteReply, reply); err != nil {
		return err
	}
	return s.repo.DeleteReply(ctx, id)
}

// ToggleLike flips the caller's like on a comment. A fresh like notifies the
// author unless they liked their own post.
func (s *Service) ToggleLike(ctx context.Context, principal *auth.Account, commentID int64) (bool, int, error) {
	comment, err := s.repo.FindComment(ctx, commentID)
	if err != nil {
		return false, 0, err
	}
	liked, likes, err := s.repo.ToggleLike(ctx, commentID, principal.ID)
	if err != nil {
		return false, 0, err
	}
	if liked && comment.UserID != principal.ID {
		if err := s.notifier.CommentLiked(ctx, comment.UserID, principal.ID, principal.FullName(), excerpt(comment.Content)); err != nil {
			s.logger.Warn("like notification", slog.Int64("comment", commentID), slog.Any("error", err))
		}
	}
	return liked, likes, nil
}

func (s *Service) recordAudit(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record", slog.String("action", log.Action), slog.Any("error", err))
	}
}

func excerpt(content string) string {
	if utf8.RuneCountInString(content) <= excerptLimit {
		return content
	}
	return string([]rune(content)[:excerptLimit]) + "..."
}
