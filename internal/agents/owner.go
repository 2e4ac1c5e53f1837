package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/healthup/dental-assistant/internal/directory"
)

const ownerPrompt = `You are a business assistant for the owner of a dental office. Perform the following steps:
1. Use the get_owner tool to retrieve the owner's record and the get_office_info tool to retrieve office info.
2. Greet the owner by name and show the menu:
   1. Revenue
   2. Popular services
   3. Doctors
3. When the owner asks about revenue, use the get_office_revenue tool. Amounts are in cents; divide by 100 before presenting.
4. When the owner asks what is selling, use the get_office_popular_services tool and show a ranked list with counts.
5. When the owner asks about staff, use the list_doctors tool.`

func (d *Dispatcher) ownerHandler(deps OwnerDeps) *Handler {
	return &Handler{
		Kind:         HandlerOwner,
		SystemPrompt: ownerPrompt,
		Tools: []Tool{
			&toolFunc{
				name:        "get_owner",
				description: "Retrieve the record of the owner you are talking to.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					owner, err := d.dir.ContactByID(ctx, directory.KindOwner, deps.OfficeID, deps.OwnerID)
					if err != nil {
						if errors.Is(err, directory.ErrNotFound) {
							return map[string]any{"found": false}, nil
						}
						return nil, fmt.Errorf("agents: get_owner: %w", err)
					}
					return map[string]any{"found": true, "id": owner.ID, "name": owner.Name}, nil
				},
			},
			&toolFunc{
				name:        "get_office_info",
				description: "Retrieve the office profile.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					office, err := d.dir.OfficeByID(ctx, deps.OfficeID)
					if err != nil {
						if errors.Is(err, directory.ErrNotFound) {
							return map[string]any{"found": false}, nil
						}
						return nil, fmt.Errorf("agents: get_office_info: %w", err)
					}
					return map[string]any{
						"found":        true,
						"name":         office.Name,
						"address":      office.Address,
						"phone_number": office.PhoneNumber,
						"email":        office.Email,
					}, nil
				},
			},
			&toolFunc{
				name:        "get_office_revenue",
				description: "Total invoiced revenue for the office over the last 30 days, in cents.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					since := d.clock.Now().AddDate(0, 0, -30)
					rev, err := d.reports.OfficeRevenue(ctx, deps.OfficeID, since)
					if err != nil {
						return nil, fmt.Errorf("agents: get_office_revenue: %w", err)
					}
					return map[string]any{
						"since":         rev.Since.Format(time.RFC3339),
						"total_cents":   rev.TotalCents,
						"invoice_count": rev.InvoiceCount,
					}, nil
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
			&toolFunc{
				name:        "list_doctors",
				description: "List the doctors working at this office.",
				call: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
					doctors, err := d.dir.DoctorsByOffice(ctx, deps.OfficeID)
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
		},
	}
}
