package notifications

import "time"

// Notification kinds emitted by the portal.
const (
	TypeGeneral              = "general"
	TypeAppointmentConfirmed = "appointment_confirmed"
	TypeAppointmentRejected  = "appointment_rejected"
	TypeCommentLike          = "comment_like"
	TypeCommentReply         = "comment_reply"
	TypeCommentDeleted       = "comment_deleted"
	TypeDocumentUploaded     = "document_uploaded"
)

// Notification represents a message delivered to a user's inbox.
type Notification struct {
	ID        int64
	UserID    int64
	ActorID   *int64
	Type      string
	Message   string
	Link      string
	Metadata  map[string]any
	IsRead    bool
	CreatedAt time.Time
}

// appointmentTimeFormat matches the wording users see in the UI.
const appointmentTimeFormat = "January 02, 2006 at 03:04 PM"

// FormatAppointmentTime renders an appointment date for notification text.
func FormatAppointmentTime(t time.Time) string {
	return t.Format(appointmentTimeFormat)
}
