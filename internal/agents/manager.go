package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/healthup/dental-assistant/internal/directory"
)

const managerPrompt = `You are an operations assistant for the manager of a dental office. Perform the following steps:
1. Use the get_manager tool to retrieve the manager's record and greet them by name, then show the menu:
   1. Office appointments
   2. Inventory levels
   3. Popular services
2. When the manager asks for the schedule, use the list_office_appointments tool and show a numbered list in the format: <time> - <doctor>
3. When the manager asks about stock, use the get_office_inventory tool and flag items marked low.
4. When the manager asks what services are in demand, use the get_office_popular_services tool and show a ranked list with counts.`

// lowStockThreshold marks inventory lines worth reordering.
const lowStockThreshold = 5

func (d *Dispatcher) managerHandler(deps ManagerDeps) *Handler {
	return &Handler{
		Kind:         HandlerManager,
		SystemPrompt: managerPrompt,
		Tools: []Tool{
			&toolFunc{
				name:        "get_manager",
				description: "Retrieve the record of the manager you are talking to.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					mgr, err := d.dir.ContactByID(ctx, directory.KindManager, deps.OfficeID, deps.ManagerID)
					if err != nil {
						if errors.Is(err, directory.ErrNotFound) {
							return map[string]any{"found": false}, nil
						}
						return nil, fmt.Errorf("agents: get_manager: %w", err)
					}
					return map[string]any{"found": true, "id": mgr.ID, "name": mgr.Name}, nil
				},
			},
			&toolFunc{
				name:        "list_office_appointments",
				description: "List the office's upcoming appointments.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					appts, err := d.scheduler.UpcomingOfficeAppointments(ctx, deps.OfficeID, d.clock.Now(), 20)
					if err != nil {
						return nil, fmt.Errorf("agents: list_office_appointments: %w", err)
					}
					out := make([]map[string]any, 0, len(appts))
					for i := range appts {
						out = append(out, appointmentPayload(&appts[i], false))
					}
					return map[string]any{"appointments": out}, nil
				},
			},
			&toolFunc{
				name:        "get_office_inventory",
				description: "Retrieve current stock levels for the office's products.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					items, err := d.reports.OfficeInventory(ctx, deps.OfficeID)
					if err != nil {
						return nil, fmt.Errorf("agents: get_office_inventory: %w", err)
					}
					out := make([]map[string]any, 0, len(items))
					for _, it := range items {
						out = append(out, map[string]any{
							"product":  it.Name,
							"price":    it.Price,
							"quantity": it.Quantity,
							"low":      it.Quantity <= lowStockThreshold,
						})
					}
					return map[string]any{"inventory": out}, nil
				},
			},
			&toolFunc{
				name:        "get_office_popular_services",
				description: "Rank the office's services by how often they were invoiced.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					ranked, err := d.reports.PopularServices(ctx, deps.OfficeID, 10)
					if err != nil {
						return nil, fmt.Errorf("agents: get_office_popular_services: %w", err)
					}
					out := make([]map[string]any, 0, len(ranked))
					for _, s := range ranked {
						out = append(out, map[string]any{"service": s.Service, "count": s.Count})
					}
					return map[string]any{"services": out}, nil
				},
			},
		},
	}
}
