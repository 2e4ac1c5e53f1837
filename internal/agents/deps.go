package agents

import (
	"context"
	"time"

	"github.com/healthup/dental-assistant/internal/directory"
	"github.com/healthup/dental-assistant/internal/reports"
	"github.com/healthup/dental-assistant/internal/scheduling"
)

// Directory is the slice of the office directory the handlers consume.
type Directory interface {
	OfficeByID(ctx context.Context, officeID string) (*directory.Office, error)
	DoctorsByOffice(ctx context.Context, officeID string) ([]directory.Contact, error)
	DoctorByName(ctx context.Context, officeID, name string) (*directory.Contact, error)
	ContactByID(ctx context.Context, kind directory.ContactKind, officeID, id string) (*directory.Contact, error)
	CreatePatient(ctx context.Context, officeID, phone, name string) (*directory.Contact, error)
	Specialities(ctx context.Context, officeID string) ([]directory.Speciality, error)
	PatientHistory(ctx context.Context, patientID string, limit int) ([]directory.HistoryEntry, error)
}

// Scheduler is the slice of the scheduling engine the handlers consume.
type Scheduler interface {
	NextAppointment(ctx context.Context, officeID, patientID string, now time.Time) (*scheduling.Appointment, error)
	UpcomingOfficeAppointments(ctx context.Context, officeID string, now time.Time, limit int) ([]scheduling.Appointment, error)
	DoctorAppointments(ctx context.Context, doctorID string, now time.Time) ([]scheduling.DoctorAppointment, error)
	ProposeSlots(ctx context.Context, officeID string, now time.Time, horizonDays, count int) ([]time.Time, error)
	Book(ctx context.Context, officeID, patientID, doctorID string, at, now time.Time) (*scheduling.Appointment, error)
	Cancel(ctx context.Context, officeID, appointmentID string) (bool, error)
}

// Reports is the read-only aggregate surface for manager and owner tools.
type Reports interface {
	OfficeInventory(ctx context.Context, officeID string) ([]reports.InventoryItem, error)
	OfficeRevenue(ctx context.Context, officeID string, since time.Time) (*reports.Revenue, error)
	PopularServices(ctx context.Context, officeID string, limit int) ([]reports.ServiceCount, error)
}

// AppointmentDeps scopes the patient-facing handler. PatientID is empty
// until the caller is a registered patient.
type AppointmentDeps struct {
	OfficeID    string
	PatientID   string
	PhoneNumber string
}

// DoctorDeps scopes the doctor handler.
type DoctorDeps struct {
	OfficeID    string
	DoctorID    string
	PhoneNumber string
}

// ManagerDeps scopes the manager handler.
type ManagerDeps struct {
	OfficeID    string
	ManagerID   string
	PhoneNumber string
}

// OwnerDeps scopes the owner handler.
type OwnerDeps struct {
	OfficeID    string
	OwnerID     string
	PhoneNumber string
}
