package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/healthup/dental-assistant/internal/ids"
)

// Querier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads and writes the office directory in Postgres.
type Repository struct {
	pool Querier
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool Querier) *Repository {
	if pool == nil {
		panic("directory: pgx pool required")
	}
	return &Repository{pool: pool}
}

// NormalizePhone strips everything but digits and the leading plus so the
// same number matches regardless of transport formatting.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// OfficeByNumber resolves the tenant that owns a routing address.
func (r *Repository) OfficeByNumber(ctx context.Context, phone string) (*Office, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, address, phone_number, email, website, opening_hours, maps_link, reviews
		FROM offices
		WHERE phone_number = $1
	`, NormalizePhone(phone))
	return scanOffice(row)
}

// OfficeByID fetches a single office.
func (r *Repository) OfficeByID(ctx context.Context, officeID string) (*Office, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, address, phone_number, email, website, opening_hours, maps_link, reviews
		FROM offices
		WHERE id = $1
	`, officeID)
	return scanOffice(row)
}

func scanOffice(row pgx.Row) (*Office, error) {
	var o Office
	err := row.Scan(&o.ID, &o.Name, &o.Description, &o.Address, &o.PhoneNumber,
		&o.Email, &o.Website, &o.OpeningHours, &o.MapsLink, &o.Reviews)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("directory: select office: %w", err)
	}
	return &o, nil
}

var kindTables = map[ContactKind]string{
	KindPatient: "patients",
	KindDoctor:  "doctors",
	KindManager: "managers",
	KindOwner:   "owners",
}

// ContactByPhone finds one contact variant by (office, routing address).
func (r *Repository) ContactByPhone(ctx context.Context, kind ContactKind, officeID, phone string) (*Contact, error) {
	table, ok := kindTables[kind]
	if !ok {
		return nil, fmt.Errorf("directory: unknown contact kind %q", kind)
	}
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, name, bio, phone_number, email, address, office_id
		FROM %s
		WHERE office_id = $1 AND phone_number = $2
	`, table), officeID, NormalizePhone(phone))
	return scanContact(row, kind)
}

// ContactByID fetches one contact variant by primary key, office-scoped.
func (r *Repository) ContactByID(ctx context.Context, kind ContactKind, officeID, id string) (*Contact, error) {
	table, ok := kindTables[kind]
	if !ok {
		return nil, fmt.Errorf("directory: unknown contact kind %q", kind)
	}
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, name, bio, phone_number, email, address, office_id
		FROM %s
		WHERE office_id = $1 AND id = $2
	`, table), officeID, id)
	return scanContact(row, kind)
}

// DoctorByName matches a doctor by display name within an office; the
// appointment agent uses it when the patient names a doctor instead of
// picking from the numbered list.
func (r *Repository) DoctorByName(ctx context.Context, officeID, name string) (*Contact, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, bio, phone_number, email, address, office_id
		FROM doctors
		WHERE office_id = $1 AND name = $2
	`, officeID, name)
	return scanContact(row, KindDoctor)
}

// DoctorsByOffice lists every doctor provisioned for an office.
func (r *Repository) DoctorsByOffice(ctx context.Context, officeID string) ([]Contact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, bio, phone_number, email, address, office_id
		FROM doctors
		WHERE office_id = $1
		ORDER BY name
	`, officeID)
	if err != nil {
		return nil, fmt.Errorf("directory: list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []Contact
	for rows.Next() {
		c, err := scanContact(rows, KindDoctor)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: list doctors: %w", err)
	}
	return doctors, nil
}

// CreatePatient inserts a new patient bound to the office and routing
// address, assigning a time-sortable id.
func (r *Repository) CreatePatient(ctx context.Context, officeID, phone, name string) (*Contact, error) {
	c := Contact{
		ID:          ids.New(),
		Kind:        KindPatient,
		Name:        name,
		PhoneNumber: NormalizePhone(phone),
		OfficeID:    officeID,
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, bio, phone_number, email, address, office_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Name, c.Bio, c.PhoneNumber, c.Email, c.Address, c.OfficeID)
	if err != nil {
		return nil, fmt.Errorf("directory: insert patient: %w", err)
	}
	return &c, nil
}

// Specialities lists the service categories an office offers.
func (r *Repository) Specialities(ctx context.Context, officeID string) ([]Speciality, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, office_id
		FROM specialities
		WHERE office_id = $1
		ORDER BY name
	`, officeID)
	if err != nil {
		return nil, fmt.Errorf("directory: list specialities: %w", err)
	}
	defer rows.Close()

	var specialities []Speciality
	for rows.Next() {
		var s Speciality
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.OfficeID); err != nil {
			return nil, fmt.Errorf("directory: scan speciality: %w", err)
		}
		specialities = append(specialities, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: list specialities: %w", err)
	}
	return specialities, nil
}

// PatientHistory returns the most recent clinical notes for a patient,
// newest first.
func (r *Repository) PatientHistory(ctx context.Context, patientID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, occurred_at, description
		FROM patient_history
		WHERE patient_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("directory: patient history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.PatientID, &e.DoctorID, &e.OccurredAt, &e.Description); err != nil {
			return nil, fmt.Errorf("directory: scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: patient history: %w", err)
	}
	return entries, nil
}

func scanContact(row pgx.Row, kind ContactKind) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.Name, &c.Bio, &c.PhoneNumber, &c.Email, &c.Address, &c.OfficeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("directory: select %s: %w", kind, err)
	}
	c.Kind = kind
	return &c, nil
}
