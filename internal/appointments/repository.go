package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediport/mediport/internal/platform/httpx"
)

// Repository persists appointments in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds an appointment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const appointmentColumns = `id, user_id, doctor_id, appointment_date, reason,
	COALESCE(rejection_reason, ''), status, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var (
		a      Appointment
		status string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.DoctorID, &a.Date, &a.Reason,
		&a.RejectionReason, &status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}

// Create inserts a new pending appointment.
func (r *Repository) Create(ctx context.Context, userID int64, date time.Time, reason string) (*Appointment, error) {
	const q = `
		INSERT INTO appointments (user_id, appointment_date, reason, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING ` + appointmentColumns

	appt, err := scanAppointment(r.pool.QueryRow(ctx, q, userID, date, reason))
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return appt, nil
}

// FindByID fetches any appointment regardless of owner.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Appointment, error) {
	const q = `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	appt, err := scanAppointment(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("appointment %d: %w", id, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return appt, nil
}

// FindOwned fetches an appointment scoped to its owner. An appointment that
// belongs to someone else is indistinguishable from a missing one.
func (r *Repository) FindOwned(ctx context.Context, id, userID int64) (*Appointment, error) {
	const q = `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND user_id = $2`

	appt, err := scanAppointment(r.pool.QueryRow(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("appointment %d: %w", id, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return appt, nil
}

// ListForUser returns the owner's appointments, newest date first.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]Appointment, error) {
	const q = `SELECT ` + appointmentColumns + `
		FROM appointments WHERE user_id = $1 ORDER BY appointment_date DESC`

	return r.queryMany(ctx, q, userID)
}

// ListAll returns every appointment for administrators, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Appointment, error) {
	const q = `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY created_at DESC`

	return r.queryMany(ctx, q)
}

// Calendar returns the confirmed appointments assigned to a doctor, ordered
// by date. The range bounds are optional.
func (r *Repository) Calendar(ctx context.Context, doctorID int64, from, to *time.Time) ([]Appointment, error) {
	const q = `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND status = 'confirmed'
		  AND ($2::timestamptz IS NULL OR appointment_date >= $2)
		  AND ($3::timestamptz IS NULL OR appointment_date <= $3)
		ORDER BY appointment_date ASC`

	return r.queryMany(ctx, q, doctorID, from, to)
}

func (r *Repository) queryMany(ctx context.Context, q string, args ...any) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, *appt)
	}
	return out, rows.Err()
}

// UpdateOwned applies an owner edit. Only provided fields change.
func (r *Repository) UpdateOwned(ctx context.Context, id, userID int64, upd Update) (*Appointment, error) {
	const q = `
		UPDATE appointments
		SET appointment_date = COALESCE($3, appointment_date),
		    reason = COALESCE($4, reason)
		WHERE id = $1 AND user_id = $2
		RETURNING ` + appointmentColumns

	appt, err := scanAppointment(r.pool.QueryRow(ctx, q, id, userID, upd.Date, upd.Reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("appointment %d: %w", id, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return appt, nil
}

// Confirm assigns a doctor and marks the appointment confirmed.
func (r *Repository) Confirm(ctx context.Context, id, doctorID int64) error {
	const q = `UPDATE appointments SET doctor_id = $2, status = 'confirmed' WHERE id = $1`

	return r.exec(ctx, q, id, doctorID)
}

// Reject records the rejection reason and marks the appointment rejected.
func (r *Repository) Reject(ctx context.Context, id int64, reason string) error {
	const q = `UPDATE appointments SET status = 'rejected', rejection_reason = $2 WHERE id = $1`

	return r.exec(ctx, q, id, reason)
}

// Cancel marks the appointment cancelled.
func (r *Repository) Cancel(ctx context.Context, id int64) error {
	const q = `UPDATE appointments SET status = 'cancelled' WHERE id = $1`

	return r.exec(ctx, q, id)
}

// Delete removes the appointment row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM appointments WHERE id = $1`

	return r.exec(ctx, q, id)
}

func (r *Repository) exec(ctx context.Context, q string, args ...any) error {
	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("exec appointment update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// HasConfirmedAppointment reports whether the doctor has at least one
// confirmed appointment with the patient. It backs document access checks.
func (r *Repository) HasConfirmedAppointment(ctx context.Context, doctorID, patientID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND user_id = $2 AND status = 'confirmed'
		)`

	var linked bool
	if err := r.pool.QueryRow(ctx, q, doctorID, patientID).Scan(&linked); err != nil {
		return false, fmt.Errorf("check doctor link: %w", err)
	}
	return linked, nil
}
