// Package reports holds the read-only operational aggregates the manager
// and owner agents surface: stock levels, revenue, and service popularity.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// InventoryItem is one product with its current stock level.
type InventoryItem struct {
	ProductID   string
	Name        string
	Description string
	Price       float64
	Quantity    int
}

// Revenue aggregates invoiced amounts for an office since a cutoff.
type Revenue struct {
	OfficeID     string
	Since        time.Time
	TotalCents   int64
	InvoiceCount int
}

// ServiceCount ranks a service by how often it was invoiced.
type ServiceCount struct {
	Service string
	Count   int
}

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads operational aggregates from Postgres.
type Repository struct {
	pool Querier
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool Querier) *Repository {
	if pool == nil {
		panic("reports: pgx pool required")
	}
	return &Repository{pool: pool}
}

// OfficeInventory lists products with their stocked quantities.
func (r *Repository) OfficeInventory(ctx context.Context, officeID string) ([]InventoryItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.description, p.price, COALESCE(i.quantity, 0)
		FROM products p
		LEFT JOIN inventory i ON i.product_id = p.id AND i.office_id = p.office_id
		WHERE p.office_id = $1
		ORDER BY p.name
	`, officeID)
	if err != nil {
		return nil, fmt.Errorf("reports: office inventory: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		var item InventoryItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Description, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("reports: scan inventory: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reports: office inventory: %w", err)
	}
	return items, nil
}

// OfficeRevenue totals invoices issued at or after since.
func (r *Repository) OfficeRevenue(ctx context.Context, officeID string, since time.Time) (*Revenue, error) {
	rev := Revenue{OfficeID: officeID, Since: since}
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0), COUNT(*)
		FROM invoices
		WHERE office_id = $1 AND issued_at >= $2
	`, officeID, since).Scan(&rev.TotalCents, &rev.InvoiceCount)
	if err != nil {
		return nil, fmt.Errorf("reports: office revenue: %w", err)
	}
	return &rev, nil
}

// PopularServices ranks invoiced services by frequency, most popular first.
func (r *Repository) PopularServices(ctx context.Context, officeID string, limit int) ([]ServiceCount, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.pool.Query(ctx, `
		SELECT service, COUNT(*) AS bookings
		FROM invoices
		WHERE office_id = $1
		GROUP BY service
		ORDER BY bookings DESC, service
		LIMIT $2
	`, officeID, limit)
	if err != nil {
		return nil, fmt.Errorf("reports: popular services: %w", err)
	}
	defer rows.Close()

	var ranked []ServiceCount
	for rows.Next() {
		var sc ServiceCount
		if err := rows.Scan(&sc.Service, &sc.Count); err != nil {
			return nil, fmt.Errorf("reports: scan service count: %w", err)
		}
		ranked = append(ranked, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reports: popular services: %w", err)
	}
	return ranked, nil
}
