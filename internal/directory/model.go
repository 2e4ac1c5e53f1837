package directory

import "errors"

// ErrNotFound reports an absent office or contact. Absence is a normal
// branching condition (first contact from a new patient), not a failure.
var ErrNotFound = errors.New("directory: not found")

// Office is the tenant. Every other entity is scoped by its id.
type Office struct {
	ID           string
	Name         string
	Description  string
	Address      string
	PhoneNumber  string
	Email        string
	Website      string
	OpeningHours string
	MapsLink     string
	Reviews      string
}

// Speciality is a service category offered by an office.
type Speciality struct {
	ID          string
	Name        string
	Description string
	OfficeID    string
}

// ContactKind discriminates the four contact variants.
type ContactKind string

const (
	KindPatient ContactKind = "patient"
	KindDoctor  ContactKind = "doctor"
	KindManager ContactKind = "manager"
	KindOwner   ContactKind = "owner"
)

// Contact is one person reachable at a routing address within an office.
// All four variants share the same shape; Kind carries the variant.
type Contact struct {
	ID          string
	Kind        ContactKind
	Name        string
	Bio         string
	PhoneNumber string
	Email       string
	Address     string
	OfficeID    string
}

// HistoryEntry is one clinical note attached to a patient.
type HistoryEntry struct {
	ID          string
	PatientID   string
	DoctorID    string
	OccurredAt  string
	Description string
}
