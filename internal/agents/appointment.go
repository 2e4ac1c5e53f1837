package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/healthup/dental-assistant/internal/directory"
	"github.com/healthup/dental-assistant/internal/scheduling"
)

const appointmentPrompt = `You are a secretary in a dental office. Perform the following steps:
1. Use the get_office_info tool to retrieve office info.
2. When greeting the patient, use the get_patient tool, then the get_appointment tool to check for an existing appointment.
3. If there is an existing appointment, say: Hello, welcome back. You have a scheduled appointment, do you want to reschedule or cancel it?
4. If there is no existing appointment, say: Hello, welcome to the office. How may I help you today?
5. If the patient wants to make an appointment and you don't know their name, ask for their name, then use create_patient.
6. Use list_doctors and list_specialities to present a numbered list of doctors and ask the patient to pick one.
7. Use suggest_slots to offer a numbered list of available dates and times for the next two weeks.
8. When the patient confirms a doctor and a time, use create_appointment.
9. If create_appointment reports the slot was taken, apologize and offer the fresh alternatives it returned.
10. To cancel, confirm first, then use cancel_appointment.
11. End by saying: See you soon!`

// appointmentHandler builds the patient-facing capability set. The deps are
// shared by pointer so create_patient makes the new id visible to the tools
// that run after it in the same exchange.
func (d *Dispatcher) appointmentHandler(deps AppointmentDeps) *Handler {
	shared := &deps
	return &Handler{
		Kind:         HandlerAppointment,
		SystemPrompt: appointmentPrompt,
		Tools: []Tool{
			&toolFunc{
				name:        "get_office_info",
				description: "Retrieve the office profile: name, address, contact details and opening hours.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					office, err := d.dir.OfficeByID(ctx, shared.OfficeID)
					if err != nil {
						return nil, fmt.Errorf("agents: get_office_info: %w", err)
					}
					return map[string]any{
						"name":          office.Name,
						"description":   office.Description,
						"address":       office.Address,
						"phone_number":  office.PhoneNumber,
						"email":         office.Email,
						"website":       office.Website,
						"opening_hours": office.OpeningHours,
						"maps_link":     office.MapsLink,
					}, nil
				},
			},
			&toolFunc{
				name:        "list_doctors",
				description: "List the doctors working at this office.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					doctors, err := d.dir.DoctorsByOffice(ctx, shared.OfficeID)
					if err != nil {
						return nil, fmt.Errorf("agents: list_doctors: %w", err)
					}
					out := make([]map[string]any, 0, len(doctors))
					for _, doc := range doctors {
						out = append(out, map[string]any{"id": doc.ID, "name": doc.Name, "bio": doc.Bio})
					}
					return map[string]any{"doctors": out}, nil
				},
			},
			&toolFunc{
				name:        "get_doctor",
				description: "Look up a doctor at this office by name.",
				params: []Param{
					{Name: "doctor_name", Description: "The doctor's name as listed.", Required: true},
				},
				call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
					name := stringArg(args, "doctor_name")
					if name == "" {
						return map[string]any{"error": "doctor_name is required"}, nil
					}
					doc, err := d.dir.DoctorByName(ctx, shared.OfficeID, name)
					if err != nil {
						if errors.Is(err, directory.ErrNotFound) {
							return map[string]any{"found": false}, nil
						}
						return nil, fmt.Errorf("agents: get_doctor: %w", err)
					}
					return map[string]any{"found": true, "id": doc.ID, "name": doc.Name, "bio": doc.Bio}, nil
				},
			},
			&toolFunc{
				name:        "list_specialities",
				description: "List the specialities this office offers.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					specialities, err := d.dir.Specialities(ctx, shared.OfficeID)
					if err != nil {
						return nil, fmt.Errorf("agents: list_specialities: %w", err)
					}
					out := make([]map[string]any, 0, len(specialities))
					for _, s := range specialities {
						out = append(out, map[string]any{"id": s.ID, "name": s.Name, "description": s.Description})
					}
					return map[string]any{"specialities": out}, nil
				},
			},
			&toolFunc{
				name:        "get_patient",
				description: "Retrieve the patient record for the person you are talking to.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					if shared.PatientID == "" {
						return map[string]any{"found": false}, nil
					}
					patient, err := d.dir.ContactByID(ctx, directory.KindPatient, shared.OfficeID, shared.PatientID)
					if err != nil {
						if errors.Is(err, directory.ErrNotFound) {
							return map[string]any{"found": false}, nil
						}
						return nil, fmt.Errorf("agents: get_patient: %w", err)
					}
					return map[string]any{
						"found":        true,
						"id":           patient.ID,
						"name":         patient.Name,
						"phone_number": patient.PhoneNumber,
					}, nil
				},
			},
			&toolFunc{
				name:        "get_appointment",
				description: "Retrieve the patient's next upcoming appointment, if any.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					if shared.PatientID == "" {
						return map[string]any{"found": false}, nil
					}
					appt, err := d.scheduler.NextAppointment(ctx, shared.OfficeID, shared.PatientID, d.clock.Now())
					if err != nil {
						if errors.Is(err, scheduling.ErrNotFound) {
							return map[string]any{"found": false}, nil
						}
						return nil, fmt.Errorf("agents: get_appointment: %w", err)
					}
					return appointmentPayload(appt, true), nil
				},
			},
			&toolFunc{
				name:        "create_patient",
				description: "Register the person you are talking to as a new patient.",
				params: []Param{
					{Name: "name", Description: "The patient's full name.", Required: true},
				},
				call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
					name := stringArg(args, "name")
					if name == "" {
						return map[string]any{"error": "name is required"}, nil
					}
					patient, err := d.dir.CreatePatient(ctx, shared.OfficeID, shared.PhoneNumber, name)
					if err != nil {
						return nil, fmt.Errorf("agents: create_patient: %w", err)
					}
					shared.PatientID = patient.ID
					return map[string]any{"id": patient.ID, "name": patient.Name}, nil
				},
			},
			&toolFunc{
				name:        "list_appointments",
				description: "List the office's upcoming appointments.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					appts, err := d.scheduler.UpcomingOfficeAppointments(ctx, shared.OfficeID, d.clock.Now(), 10)
					if err != nil {
						return nil, fmt.Errorf("agents: list_appointments: %w", err)
					}
					out := make([]map[string]any, 0, len(appts))
					for i := range appts {
						out = append(out, appointmentPayload(&appts[i], false))
					}
					return map[string]any{"appointments": out}, nil
				},
			},
			&toolFunc{
				name:        "suggest_slots",
				description: "Suggest available appointment times over the next two weeks.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					slots, err := d.scheduler.ProposeSlots(ctx, shared.OfficeID, d.clock.Now(), d.horizonDays, d.slotCount)
					if err != nil {
						return nil, fmt.Errorf("agents: suggest_slots: %w", err)
					}
					return map[string]any{"slots": formatSlots(slots)}, nil
				},
			},
			&toolFunc{
				name:        "create_appointment",
				description: "Book an appointment for the patient with the chosen doctor at the confirmed date and time.",
				params: []Param{
					{Name: "doctor_id", Description: "Id of the chosen doctor.", Required: true},
					{Name: "date_time", Description: "Confirmed date and time, e.g. 2025-03-05T10:00:00.", Required: true},
				},
				call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
					return d.createAppointment(ctx, shared, args)
				},
			},
			&toolFunc{
				name:        "cancel_appointment",
				description: "Cancel an appointment by id.",
				params: []Param{
					{Name: "appointment_id", Description: "Id of the appointment to cancel.", Required: true},
				},
				call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
					return d.cancelAppointment(ctx, shared.OfficeID, args)
				},
			},
		},
	}
}

// createAppointment owns the single-future-appointment policy: an existing
// upcoming appointment turns a second booking attempt into a reschedule
// prompt instead of a silent double-book.
func (d *Dispatcher) createAppointment(ctx context.Context, deps *AppointmentDeps, args map[string]any) (map[string]any, error) {
	if deps.PatientID == "" {
		return map[string]any{"error": "patient is not registered yet, use create_patient first"}, nil
	}
	doctorID := stringArg(args, "doctor_id")
	if doctorID == "" {
		return map[string]any{"error": "doctor_id is required"}, nil
	}
	at, err := d.parseWhen(stringArg(args, "date_time"))
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}

	now := d.clock.Now()
	if existing, err := d.scheduler.NextAppointment(ctx, deps.OfficeID, deps.PatientID, now); err == nil {
		return map[string]any{
			"status":      "already_booked",
			"appointment": appointmentPayload(existing, false),
			"hint":        "cancel the existing appointment first to reschedule",
		}, nil
	} else if !errors.Is(err, scheduling.ErrNotFound) {
		return nil, fmt.Errorf("agents: create_appointment: %w", err)
	}

	appt, err := d.scheduler.Book(ctx, deps.OfficeID, deps.PatientID, doctorID, at, now)
	if err != nil {
		if errors.Is(err, scheduling.ErrSlotTaken) {
			alternatives, altErr := d.scheduler.ProposeSlots(ctx, deps.OfficeID, now, d.horizonDays, d.slotCount)
			if altErr != nil {
				return nil, fmt.Errorf("agents: re-propose after conflict: %w", altErr)
			}
			return map[string]any{
				"status":       "slot_taken",
				"alternatives": formatSlots(alternatives),
			}, nil
		}
		return nil, fmt.Errorf("agents: create_appointment: %w", err)
	}
	return map[string]any{"status": "booked", "appointment": appointmentPayload(appt, false)}, nil
}

func (d *Dispatcher) cancelAppointment(ctx context.Context, officeID string, args map[string]any) (map[string]any, error) {
	appointmentID := stringArg(args, "appointment_id")
	if appointmentID == "" {
		return map[string]any{"error": "appointment_id is required"}, nil
	}
	deleted, err := d.scheduler.Cancel(ctx, officeID, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("agents: cancel_appointment: %w", err)
	}
	if !deleted {
		return map[string]any{"found": false, "deleted": false}, nil
	}
	return map[string]any{"found": true, "deleted": true}, nil
}

// parseWhen accepts RFC3339 or a naive local datetime in the office zone.
func (d *Dispatcher) parseWhen(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("date_time is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(d.clock.Location()), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, raw, d.clock.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date_time %q", raw)
}

func appointmentPayload(a *scheduling.Appointment, includeFound bool) map[string]any {
	payload := map[string]any{
		"id":        a.ID,
		"doctor_id": a.DoctorID,
		"starts_at": a.StartsAt.Format(time.RFC3339),
	}
	if includeFound {
		payload["found"] = true
	}
	return payload
}

func formatSlots(slots []time.Time) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format(time.RFC3339))
	}
	return out
}
