package directory

import (
	"context"
	"errors"
	"fmt"
)

// resolveOrder fixes which variant wins when the same routing address is
// provisioned under more than one kind. The order is a contract: resolution
// must be total and reproducible, so the first match ends the search.
var resolveOrder = []ContactKind{KindPatient, KindDoctor, KindManager, KindOwner}

// Resolver maps routing addresses to offices and typed contacts.
type Resolver struct {
	repo *Repository
}

// NewResolver wires the resolver to the directory repository.
func NewResolver(repo *Repository) *Resolver {
	if repo == nil {
		panic("directory: repository required")
	}
	return &Resolver{repo: repo}
}

// ResolveOffice finds the tenant addressed by the inbound to-number.
func (r *Resolver) ResolveOffice(ctx context.Context, phone string) (*Office, error) {
	return r.repo.OfficeByNumber(ctx, phone)
}

// ResolveContact looks the address up across all four contact variants and
// returns the first hit in patient, doctor, manager, owner order.
// ErrNotFound means the sender is a not-yet-registered patient.
func (r *Resolver) ResolveContact(ctx context.Context, officeID, phone string) (*Contact, error) {
	for _, kind := range resolveOrder {
		contact, err := r.repo.ContactByPhone(ctx, kind, officeID, phone)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("directory: resolve %s: %w", kind, err)
		}
		return contact, nil
	}
	return nil, ErrNotFound
}
