package auth

import (
	"context"
	"fmt"
)

// Action tags the operation a caller wants to perform on a resource.
type Action string

const (
	ActionViewAppointment    Action = "view-appointment"
	ActionCancelAppointment  Action = "cancel-appointment"
	ActionConfirmAppointment Action = "confirm-appointment"
	ActionRejectAppointment  Action = "reject-appointment"
	ActionDeleteAppointment  Action = "delete-appointment"
	ActionDeleteComment      Action = "delete-comment"
	ActionDeleteReply        Action = "delete-reply"
	ActionAccessDocument     Action = "access-document"
	ActionUploadDocument     Action = "upload-document"
	ActionBanUser            Action = "ban-user"
	ActionChangeRole         Action = "change-role"
	ActionListUsers          Action = "list-users"
	ActionListAppointments   Action = "list-appointments"
	ActionViewCalendar       Action = "view-calendar"
)

// LinkChecker reports whether a confirmed appointment links a doctor to a
// patient. Implemented by the appointments repository.
type LinkChecker interface {
	HasConfirmedAppointment(ctx context.Context, doctorID, patientID int64) (bool, error)
}

// Guard composes the predicates into per-action access decisions. It is the
// single entry point for every role and ownership check in the API.
type Guard struct {
	links LinkChecker
}

// NewGuard constructs a Guard.
func NewGuard(links LinkChecker) *Guard {
	return &Guard{links: links}
}

// Authorize decides whether principal may perform action on resource.
// It returns nil on allow, ErrForbidden on deny, and ErrOperationFailed when
// a storage lookup needed for the decision fails.
func (g *Guard) Authorize(ctx context.Context, principal *Account, action Action, resource any) error {
	if principal == nil {
		return ErrInvalidCredentials
	}

	switch action {
	case ActionViewAppointment:
		if appt, ok := resource.(AppointmentView); ok {
			if Owns(principal, appt) || IsAdmin(principal) || IsAssignedDoctor(principal, appt) {
				return nil
			}
		}

	case ActionCancelAppointment:
		if appt, ok := resource.(AppointmentView); ok {
			if Owns(principal, appt) {
				return nil
			}
			// Admins may cancel only once the appointment is confirmed.
			if IsAdmin(principal) && appt.Confirmed() {
				return nil
			}
		}

	case ActionConfirmAppointment, ActionRejectAppointment, ActionDeleteAppointment,
		ActionListUsers, ActionListAppointments:
		if IsAdmin(principal) {
			return nil
		}

	case ActionDeleteComment:
		if comment, ok := resource.(Owned); ok && CanDeleteComment(principal, comment) {
			return nil
		}

	case ActionDeleteReply:
		if reply, ok := resource.(Owned); ok && CanDeleteReply(principal, reply) {
			return nil
		}

	case ActionAccessDocument:
		doc, ok := resource.(Owned)
		if !ok {
			break
		}
		if Owns(principal, doc) {
			return nil
		}
		if IsDoctor(principal) {
			return g.checkLink(ctx, principal.ID, doc.OwnedBy())
		}

	case ActionUploadDocument:
		patient, ok := resource.(*Account)
		if !ok {
			break
		}
		if patient.ID == principal.ID {
			return nil
		}
		if IsDoctor(principal) {
			return g.checkLink(ctx, principal.ID, patient.ID)
		}

	case ActionBanUser:
		if target, ok := resource.(*Account); ok && CanBan(principal, target) {
			return nil
		}

	case ActionChangeRole:
		if target, ok := resource.(*Account); ok && IsAdmin(principal) && target.ID != principal.ID {
			return nil
		}

	case ActionViewCalendar:
		if IsDoctor(principal) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrForbidden, action)
}

func (g *Guard) checkLink(ctx context.Context, doctorID, patientID int64) error {
	linked, err := g.links.HasConfirmedAppointment(ctx, doctorID, patientID)
	if err != nil {
		return fmt.Errorf("%w: appointment link lookup: %v", ErrOperationFailed, err)
	}
	if !linked {
		return fmt.Errorf("%w: no confirmed appointment with this patient", ErrForbidden)
	}
	return nil
}
