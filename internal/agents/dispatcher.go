// Package agents maps a resolved contact to one of four role-scoped
// handlers and defines the fixed tool catalogue each handler exposes to the
// conversational engine.
package agents

import (
	"github.com/healthup/dental-assistant/internal/clock"
	"github.com/healthup/dental-assistant/internal/directory"
)

// HandlerKind discriminates the four role handlers.
type HandlerKind string

const (
	HandlerAppointment HandlerKind = "appointment"
	HandlerDoctor      HandlerKind = "doctor"
	HandlerManager     HandlerKind = "manager"
	HandlerOwner       HandlerKind = "owner"
)

// Handler is one role-scoped façade: a behavior script plus a closed,
// enumerable capability set. Built fresh per inbound message; not reused.
type Handler struct {
	Kind         HandlerKind
	SystemPrompt string
	Tools        []Tool
}

// Dispatcher selects and constructs the handler for a resolved contact.
type Dispatcher struct {
	dir       Directory
	scheduler Scheduler
	reports   Reports
	clock     *clock.Clock

	horizonDays int
	slotCount   int
}

// NewDispatcher wires the dispatcher to its domain services.
func NewDispatcher(dir Directory, sched Scheduler, rep Reports, clk *clock.Clock) *Dispatcher {
	if dir == nil || sched == nil || rep == nil {
		panic("agents: all domain services required")
	}
	if clk == nil {
		panic("agents: clock required")
	}
	return &Dispatcher{
		dir:         dir,
		scheduler:   sched,
		reports:     rep,
		clock:       clk,
		horizonDays: 14,
		slotCount:   10,
	}
}

// Dispatch picks the handler for the resolved contact. A nil contact is the
// new-patient case and routes to the appointment handler with an empty
// patient id; there is no other fallback, so a new contact kind must be
// added here explicitly.
func (d *Dispatcher) Dispatch(office *directory.Office, contact *directory.Contact, phone string) *Handler {
	if contact == nil || contact.Kind == directory.KindPatient {
		deps := AppointmentDeps{OfficeID: office.ID, PhoneNumber: phone}
		if contact != nil {
			deps.PatientID = contact.ID
		}
		return d.appointmentHandler(deps)
	}

	switch contact.Kind {
	case directory.KindDoctor:
		return d.doctorHandler(DoctorDeps{OfficeID: office.ID, DoctorID: contact.ID, PhoneNumber: phone})
	case directory.KindManager:
		return d.managerHandler(ManagerDeps{OfficeID: office.ID, ManagerID: contact.ID, PhoneNumber: phone})
	case directory.KindOwner:
		return d.ownerHandler(OwnerDeps{OfficeID: office.ID, OwnerID: contact.ID, PhoneNumber: phone})
	}

	// Unreachable while ContactKind stays closed.
	panic("agents: unhandled contact kind " + string(contact.Kind))
}
