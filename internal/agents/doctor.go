package agents

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/healthup/dental-assistant/internal/directory"
)

const doctorPrompt = `You are a doctor's secretary in a dental office. Perform the following steps:
1. The doctor can say 'menu' at any time to see the available commands.
2. Use the get_doctor tool to retrieve the doctor's record and greet them by name, then show the menu:
   1. List appointments
3. When the doctor asks for their appointments, use the list_appointments tool and show a numbered list in the format: <time> - <patient_name>
4. Ask the doctor to pick an appointment by number, then extract the patient id.
5. Ask whether they want to see the patient's history.
6. If yes, use the get_patient_history tool and show each entry as:
   - Date: <date_time>
   - Description: <description>
7. To cancel one of the doctor's appointments, confirm first, then use cancel_appointment.`

func (d *Dispatcher) doctorHandler(deps DoctorDeps) *Handler {
	return &Handler{
		Kind:         HandlerDoctor,
		SystemPrompt: doctorPrompt,
		Tools: []Tool{
			&toolFunc{
				name:        "get_doctor",
				description: "Retrieve the record of the doctor you are talking to.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					doc, err := d.dir.ContactByID(ctx, directory.KindDoctor, deps.OfficeID, deps.DoctorID)
					if err != nil {
						if errors.Is(err, directory.ErrNotFound) {
							return map[string]any{"found": false}, nil
						}
						return nil, fmt.Errorf("agents: get_doctor: %w", err)
					}
					return map[string]any{
						"found": true,
						"id":    doc.ID,
						"name":  doc.Name,
						"bio":   doc.Bio,
					}, nil
				},
			},
			&toolFunc{
				name:        "list_appointments",
				description: "List the doctor's upcoming appointments with patient names.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					appts, err := d.scheduler.DoctorAppointments(ctx, deps.DoctorID, d.clock.Now())
					if err != nil {
						return nil, fmt.Errorf("agents: list_appointments: %w", err)
					}
					out := make([]map[string]any, 0, len(appts))
					for _, a := range appts {
						out = append(out, map[string]any{
							"id":           a.ID,
							"patient_id":   a.PatientID,
							"patient_name": a.PatientName,
							"starts_at":    a.StartsAt.Format(time.RFC3339),
						})
					}
					return map[string]any{"appointments": out}, nil
				},
			},
			&toolFunc{
				name:        "get_patient_history",
				description: "Retrieve the treatment history of a patient.",
				params: []Param{
					{Name: "patient_id", Description: "Id of the patient.", Required: true},
					{Name: "limit", Description: "Maximum number of entries, newest first. Defaults to 5.", Required: false},
				},
				call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
					patientID := stringArg(args, "patient_id")
					if patientID == "" {
						return map[string]any{"error": "patient_id is required"}, nil
					}
					limit := 0
					if raw := stringArg(args, "limit"); raw != "" {
						limit, _ = strconv.Atoi(raw)
					}
					entries, err := d.dir.PatientHistory(ctx, patientID, limit)
					if err != nil {
						return nil, fmt.Errorf("agents: get_patient_history: %w", err)
					}
					out := make([]map[string]any, 0, len(entries))
					for _, e := range entries {
						out = append(out, map[string]any{
							"date":        e.OccurredAt,
							"description": e.Description,
						})
					}
					return map[string]any{"history": out}, nil
				},
			},
			&toolFunc{
				name:        "cancel_appointment",
				description: "Cancel one of the doctor's appointments by id.",
				params: []Param{
					{Name: "appointment_id", Description: "Id of the appointment to cancel.", Required: true},
				},
				call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
					return d.cancelAppointment(ctx, deps.OfficeID, args)
				},
			},
		},
	}
}
