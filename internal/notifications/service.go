// Package notifications delivers inbox messages created by the appointment,
// community and document flows.
package notifications

import (
	"context"
	"fmt"
	"time"
)

// RepositoryPort defines data access methods for notifications.
type RepositoryPort interface {
	Insert(ctx context.Context, n Notification) (*Notification, error)
	ListForUser(ctx context.Context, userID int64) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID int64) (*Notification, error)
	DeleteAllForUser(ctx context.Context, userID int64) error
}

// Service handles notification business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create stores a free-form notification for a user.
func (s *Service) Create(ctx context.Context, userID int64, message string) (*Notification, error) {
	return s.repo.Insert(ctx, Notification{UserID: userID, Type: TypeGeneral, Message: message})
}

// ListForUser returns the user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Notification, error) {
	return s.repo.ListForUser(ctx, userID)
}

// MarkRead flags one of the user's own notifications as read.
func (s *Service) MarkRead(ctx context.Context, id, userID int64) (*Notification, error) {
	return s.repo.MarkRead(ctx, id, userID)
}

// ClearAll deletes every notification in the user's inbox.
func (s *Service) ClearAll(ctx context.Context, userID int64) error {
	return s.repo.DeleteAllForUser(ctx, userID)
}

// AppointmentConfirmed notifies the patient and the assigned doctor.
func (s *Service) AppointmentConfirmed(ctx context.Context, patientID, doctorID int64, date time.Time) error {
	when := FormatAppointmentTime(date)
	if _, err := s.repo.Insert(ctx, Notification{
		UserID:  patientID,
		Type:    TypeAppointmentConfirmed,
		Message: fmt.Sprintf("Your appointment scheduled for %s has been confirmed.", when),
		Link:    "/appointments",
	}); err != nil {
		return err
	}
	_, err := s.repo.Insert(ctx, Notification{
		UserID:  doctorID,
		Type:    TypeAppointmentConfirmed,
		Message: fmt.Sprintf("You have been assigned an appointment on %s.", when),
		Link:    "/doctor/calendar",
	})
	return err
}

// AppointmentRejected notifies the patient, including the mandatory reason.
func (s *Service) AppointmentRejected(ctx context.Context, patientID int64, date time.Time, reason string) error {
	_, err := s.repo.Insert(ctx, Notification{
		UserID:  patientID,
		Type:    TypeAppointmentRejected,
		Message: fmt.Sprintf("Your appointment scheduled for %s has been rejected. Reason: %s", FormatAppointmentTime(date), reason),
		Link:    "/appointments",
	})
	return err
}

// CommentLiked notifies the comment author about a new like.
func (s *Service) CommentLiked(ctx context.Context, authorID, actorID int64, actorName, excerpt string) error {
	_, err := s.repo.Insert(ctx, Notification{
		UserID:   authorID,
		ActorID:  &actorID,
		Type:     TypeCommentLike,
		Message:  fmt.Sprintf("%s liked your comment.", actorName),
		Link:     "/community",
		Metadata: map[string]any{"excerpt": excerpt},
	})
	return err
}

// CommentReplied notifies the comment author about a new reply.
func (s *Service) CommentReplied(ctx context.Context, authorID, actorID int64, actorName, excerpt string) error {
	_, err := s.repo.Insert(ctx, Notification{
		UserID:   authorID,
		ActorID:  &actorID,
		Type:     TypeCommentReply,
		Message:  fmt.Sprintf("%s replied to your comment.", actorName),
		Link:     "/community",
		Metadata: map[string]any{"excerpt": excerpt},
	})
	return err
}

// CommentDeleted notifies the author when moderation removed their comment.
func (s *Service) CommentDeleted(ctx context.Context, authorID, adminID int64, excerpt, reason string) error {
	_, err := s.repo.Insert(ctx, Notification{
		UserID:   authorID,
		ActorID:  &adminID,
		Type:     TypeCommentDeleted,
		Message:  fmt.Sprintf("Your comment was removed by a moderator. Reason: %s", reason),
		Link:     "/community",
		Metadata: map[string]any{"excerpt": excerpt},
	})
	return err
}

// DocumentUploaded notifies a patient that a doctor added a document.
func (s *Service) DocumentUploaded(ctx context.Context, patientID, doctorID int64, doctorName, filename string) error {
	_, err := s.repo.Insert(ctx, Notification{
		UserID:  patientID,
		ActorID: &doctorID,
		Type:    TypeDocumentUploaded,
		Message: fmt.Sprintf("Dr. %s has uploaded a document: %s", doctorName, filename),
		Link:    "/profile",
	})
	return err
}
