// Package appointments implements scheduling between patients and doctors,
// from the initial request through admin triage to the doctor's calendar.
package appointments

import "time"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// CanTransition reports whether the status may move to next. Rejected and
// cancelled are terminal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusRejected || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	default:
		return false
	}
}

// Appointment is a patient's request for a consultation. DoctorID stays nil
// until an admin confirms the appointment and assigns a doctor.
type Appointment struct {
	ID              int64
	UserID          int64
	DoctorID        *int64
	Date            time.Time
	Reason          string
	RejectionReason string
	Status          Status
	CreatedAt       time.Time
}

// OwnedBy identifies the patient who requested the appointment.
func (a *Appointment) OwnedBy() int64 { return a.UserID }

// AssignedDoctor returns the assigned doctor id, if any.
func (a *Appointment) AssignedDoctor() (int64, bool) {
	if a.DoctorID == nil {
		return 0, false
	}
	return *a.DoctorID, true
}

// Confirmed reports whether the appointment has been confirmed.
func (a *Appointment) Confirmed() bool { return a.Status == StatusConfirmed }

// Update carries an owner's edit of a pending appointment.
type Update struct {
	Date   *time.Time
	Reason *string
}
