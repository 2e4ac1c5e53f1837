package directory

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var contactColumns = []string{"id", "name", "bio", "phone_number", "email", "address", "office_id"}

func TestResolveContactPrecedence(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	// Same address provisioned as both patient and doctor: the patient row
	// must win, and the doctor table must never be consulted.
	mock.ExpectQuery("FROM patients").
		WithArgs("office-1", "+5511999990000").
		WillReturnRows(pgxmock.NewRows(contactColumns).
			AddRow("p-1", "Ana", "", "+5511999990000", "", "", "office-1"))

	resolver := NewResolver(NewRepository(mock))
	contact, err := resolver.ResolveContact(context.Background(), "office-1", "+5511999990000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contact.Kind != KindPatient {
		t.Fatalf("expected patient to win precedence, got %s", contact.Kind)
	}
	if contact.ID != "p-1" {
		t.Fatalf("expected patient p-1, got %s", contact.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResolveContactFallsThroughVariants(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	empty := func() *pgxmock.Rows { return pgxmock.NewRows(contactColumns) }
	mock.ExpectQuery("FROM patients").WithArgs("office-1", "+5511888880000").WillReturnRows(empty())
	mock.ExpectQuery("FROM doctors").WithArgs("office-1", "+5511888880000").WillReturnRows(empty())
	mock.ExpectQuery("FROM managers").
		WithArgs("office-1", "+5511888880000").
		WillReturnRows(pgxmock.NewRows(contactColumns).
			AddRow("m-1", "Beto", "", "+5511888880000", "", "", "office-1"))

	resolver := NewResolver(NewRepository(mock))
	contact, err := resolver.ResolveContact(context.Background(), "office-1", "+5511888880000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contact.Kind != KindManager {
		t.Fatalf("expected manager, got %s", contact.Kind)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResolveContactNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	empty := func() *pgxmock.Rows { return pgxmock.NewRows(contactColumns) }
	mock.ExpectQuery("FROM patients").WithArgs("office-1", "+550000000000").WillReturnRows(empty())
	mock.ExpectQuery("FROM doctors").WithArgs("office-1", "+550000000000").WillReturnRows(empty())
	mock.ExpectQuery("FROM managers").WithArgs("office-1", "+550000000000").WillReturnRows(empty())
	mock.ExpectQuery("FROM owners").WithArgs("office-1", "+550000000000").WillReturnRows(empty())

	resolver := NewResolver(NewRepository(mock))
	_, err = resolver.ResolveContact(context.Background(), "office-1", "+550000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
