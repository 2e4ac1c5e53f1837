package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists appointments in Postgres. The appointments table
// carries a unique index on (office_id, doctor_id, starts_at) so a
// concurrent double-booking loses at the storage layer, not silently.
type Repository struct {
	pool Querier
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool Querier) *Repository {
	if pool == nil {
		panic("scheduling: pgx pool required")
	}
	return &Repository{pool: pool}
}

// NextForPatient returns the earliest appointment for the patient at or
// after now, or ErrNotFound.
func (r *Repository) NextForPatient(ctx context.Context, officeID, patientID string, now time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, office_id, patient_id, doctor_id, starts_at, created_at
		FROM appointments
		WHERE office_id = $1 AND patient_id = $2 AND starts_at >= $3
		ORDER BY starts_at ASC
		LIMIT 1
	`, officeID, patientID, now)
	return scanAppointment(row)
}

// UpcomingForOffice lists appointments at or after now, earliest first.
func (r *Repository) UpcomingForOffice(ctx context.Context, officeID string, now time.Time, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, office_id, patient_id, doctor_id, starts_at, created_at
		FROM appointments
		WHERE office_id = $1 AND starts_at >= $2
		ORDER BY starts_at ASC
		LIMIT $3
	`, officeID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list office appointments: %w", err)
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scheduling: list office appointments: %w", err)
	}
	return appointments, nil
}

// UpcomingForDoctor lists a doctor's appointments joined with the patient
// display name, earliest first.
func (r *Repository) UpcomingForDoctor(ctx context.Context, doctorID string, now time.Time) ([]DoctorAppointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.office_id, a.patient_id, a.doctor_id, a.starts_at, a.created_at, p.name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.doctor_id = $1 AND a.starts_at >= $2
		ORDER BY a.starts_at ASC
	`, doctorID, now)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list doctor appointments: %w", err)
	}
	defer rows.Close()

	var appointments []DoctorAppointment
	for rows.Next() {
		var da DoctorAppointment
		err := rows.Scan(&da.ID, &da.OfficeID, &da.PatientID, &da.DoctorID, &da.StartsAt, &da.CreatedAt, &da.PatientName)
		if err != nil {
			return nil, fmt.Errorf("scheduling: scan doctor appointment: %w", err)
		}
		appointments = append(appointments, da)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scheduling: list doctor appointments: %w", err)
	}
	return appointments, nil
}

// Insert persists a new appointment. A unique-index violation on the slot
// maps to ErrSlotTaken.
func (r *Repository) Insert(ctx context.Context, a *Appointment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, office_id, patient_id, doctor_id, starts_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.OfficeID, a.PatientID, a.DoctorID, a.StartsAt, a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s at %s", ErrSlotTaken, a.DoctorID, a.StartsAt)
		}
		return fmt.Errorf("scheduling: insert appointment: %w", err)
	}
	return nil
}

// Delete hard-deletes by id and reports whether a row existed. Deleting an
// unknown id is "not found", never a silent success.
func (r *Repository) Delete(ctx context.Context, officeID, appointmentID string) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM appointments
		WHERE office_id = $1 AND id = $2
	`, officeID, appointmentID)
	if err != nil {
		return false, fmt.Errorf("scheduling: delete appointment: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.OfficeID, &a.PatientID, &a.DoctorID, &a.StartsAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scheduling: select appointment: %w", err)
	}
	return &a, nil
}
