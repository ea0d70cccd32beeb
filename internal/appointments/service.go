package appointments

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/platform/httpx"
	"github.com/mediport/mediport/internal/shared"
)

// RepositoryPort defines data access methods for appointments.
type RepositoryPort interface {
	Create(ctx context.Context, userID int64, date time.Time, reason string) (*Appointment, error)
	FindByID(ctx context.Context, id int64) (*Appointment, error)
	FindOwned(ctx context.Context, id, userID int64) (*Appointment, error)
	ListForUser(ctx context.Context, userID int64) ([]Appointment, error)
	ListAll(ctx context.Context) ([]Appointment, error)
	Calendar(ctx context.Context, doctorID int64, from, to *time.Time) ([]Appointment, error)
	UpdateOwned(ctx context.Context, id, userID int64, upd Update) (*Appointment, error)
	Confirm(ctx context.Context, id, doctorID int64) error
	Reject(ctx context.Context, id int64, reason string) error
	Cancel(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// AccountDirectory resolves accounts when validating a doctor assignee.
type AccountDirectory interface {
	FindByID(ctx context.Context, id int64) (*auth.Account, error)
}

// Notifier delivers appointment lifecycle notifications.
type Notifier interface {
	AppointmentConfirmed(ctx context.Context, patientID, doctorID int64, date time.Time) error
	AppointmentRejected(ctx context.Context, patientID int64, date time.Time, reason string) error
}

// Service handles appointment business logic.
type Service struct {
	repo     RepositoryPort
	accounts AccountDirectory
	guard    *auth.Guard
	notifier Notifier
	audit    shared.Recorder
	logger   *slog.Logger
}

// NewService builds an appointment Service.
func NewService(repo RepositoryPort, accounts AccountDirectory, guard *auth.Guard, notifier Notifier, audit shared.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, accounts: accounts, guard: guard, notifier: notifier, audit: audit, logger: logger}
}

// Create books a new pending appointment for the caller.
func (s *Service) Create(ctx context.Context, principal *auth.Account, date time.Time, reason string) (*Appointment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: reason is required", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, principal.ID, date, reason)
}

// ListOwn returns the caller's appointments.
func (s *Service) ListOwn(ctx context.Context, principal *auth.Account) ([]Appointment, error) {
	return s.repo.ListForUser(ctx, principal.ID)
}

// GetOwn fetches one of the caller's appointments. Someone else's
// appointment id yields not-found rather than forbidden.
func (s *Service) GetOwn(ctx context.Context, principal *auth.Account, id int64) (*Appointment, error) {
	return s.repo.FindOwned(ctx, id, principal.ID)
}

// UpdateOwn edits a pending appointment owned by the caller.
func (s *Service) UpdateOwn(ctx context.Context, principal *auth.Account, id int64, upd Update) (*Appointment, error) {
	appt, err := s.repo.FindOwned(ctx, id, principal.ID)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusPending {
		return nil, fmt.Errorf("%w: only pending appointments can be edited", httpx.ErrValidation)
	}
	return s.repo.UpdateOwned(ctx, id, principal.ID, upd)
}

// Cancel cancels an appointment. Owners may cancel while pending or
// confirmed; admins only once confirmed.
func (s *Service) Cancel(ctx context.Context, principal *auth.Account, id int64) error {
	appt, err := s.loadVisible(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := s.guard.Authorize(ctx, principal, auth.ActionCancelAppointment, appt); err != nil {
		return err
	}
	if !appt.Status.CanTransition(StatusCancelled) {
		return fmt.Errorf("%w: a %s appointment cannot be cancelled", httpx.ErrValidation, appt.Status)
	}
	return s.repo.Cancel(ctx, id)
}

// DeleteOwn removes one of the caller's appointments.
func (s *Service) DeleteOwn(ctx context.Context, principal *auth.Account, id int64) error {
	if _, err := s.repo.FindOwned(ctx, id, principal.ID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ListAll returns every appointment for administrators.
func (s *Service) ListAll(ctx context.Context, principal *auth.Account) ([]Appointment, error) {
	if err := s.guard.Authorize(ctx, principal, auth.ActionListAppointments, nil); err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx)
}

// View fetches a single appointment for admins and assigned doctors.
func (s *Service) View(ctx context.Context, principal *auth.Account, id int64) (*Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(ctx, principal, auth.ActionViewAppointment, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// Confirm assigns a doctor to a pending appointment and notifies both the
// patient and the doctor. The assignee must hold the doctor role.
func (s *Service) Confirm(ctx context.Context, principal *auth.Account, id, doctorID int64) (*Appointment, error) {
	if err := s.guard.Authorize(ctx, principal, auth.ActionConfirmAppointment, nil); err != nil {
		return nil, err
	}
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.CanTransition(StatusConfirmed) {
		return nil, fmt.Errorf("%w: a %s appointment cannot be confirmed", httpx.ErrValidation, appt.Status)
	}

	assignee, err := s.accounts.FindByID(ctx, doctorID)
	if err != nil || assignee.Role != auth.RoleDoctor {
		return nil, auth.ErrInvalidAssignee
	}

	if err := s.repo.Confirm(ctx, id, doctorID); err != nil {
		return nil, err
	}
	if err := s.notifier.AppointmentConfirmed(ctx, appt.UserID, doctorID, appt.Date); err != nil {
		s.logger.Warn("confirm notifications", slog.Int64("appointment", id), slog.Any("error", err))
	}
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  principal.ID,
		Action:   shared.AuditConfirmAppointment,
		Entity:   "appointment",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"doctor_id": doctorID},
	})

	appt.Status = StatusConfirmed
	appt.DoctorID = &doctorID
	return appt, nil
}

// Reject declines a pending appointment with a mandatory reason and
// notifies the patient.
func (s *Service) Reject(ctx context.Context, principal *auth.Account, id int64, reason string) (*Appointment, error) {
	if err := s.guard.Authorize(ctx, principal, auth.ActionRejectAppointment, nil); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: a rejection reason is required", httpx.ErrValidation)
	}
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.CanTransition(StatusRejected) {
		return nil, fmt.Errorf("%w: a %s appointment cannot be rejected", httpx.ErrValidation, appt.Status)
	}

	if err := s.repo.Reject(ctx, id, reason); err != nil {
		return nil, err
	}
	if err := s.notifier.AppointmentRejected(ctx, appt.UserID, appt.Date, reason); err != nil {
		s.logger.Warn("reject notification", slog.Int64("appointment", id), slog.Any("error", err))
	}
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  principal.ID,
		Action:   shared.AuditRejectAppointment,
		Entity:   "appointment",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"reason": reason},
	})

	appt.Status = StatusRejected
	appt.RejectionReason = reason
	return appt, nil
}

// AdminDelete removes any appointment. Admin only.
func (s *Service) AdminDelete(ctx context.Context, principal *auth.Account, id int64) error {
	if err := s.guard.Authorize(ctx, principal, auth.ActionDeleteAppointment, nil); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  principal.ID,
		Action:   shared.AuditDeleteAppointment,
		Entity:   "appointment",
		EntityID: strconv.FormatInt(id, 10),
	})
	return nil
}

// Calendar returns the caller's confirmed appointments as a doctor.
func (s *Service) Calendar(ctx context.Context, principal *auth.Account, from, to *time.Time) ([]Appointment, error) {
	if err := s.guard.Authorize(ctx, principal, auth.ActionViewCalendar, nil); err != nil {
		return nil, err
	}
	return s.repo.Calendar(ctx, principal.ID, from, to)
}

// loadVisible resolves an appointment the way the caller is allowed to see
// it: owners through the owner scope, everyone else by id.
func (s *Service) loadVisible(ctx context.Context, principal *auth.Account, id int64) (*Appointment, error) {
	if principal.Role == auth.RoleUser {
		return s.repo.FindOwned(ctx, id, principal.ID)
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record", slog.String("action", log.Action), slog.Any("error", err))
	}
}
