package directory

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+55 11 99999-0000", "+5511999990000"},
		{"(11) 3333-4444", "1133334444"},
		{"+5511999990000", "+5511999990000"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOfficeByNumberNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM offices").
		WithArgs("+5511000000000").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	repo := NewRepository(mock)
	_, err = repo.OfficeByNumber(context.Background(), "+5511000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePatientAssignsID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO patients").
		WithArgs(pgxmock.AnyArg(), "Ana Souza", "", "+5511999990000", "", "", "office-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewRepository(mock)
	patient, err := repo.CreatePatient(context.Background(), "office-1", "+55 11 99999-0000", "Ana Souza")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patient.ID == "" {
		t.Fatal("expected assigned id")
	}
	if patient.Kind != KindPatient {
		t.Fatalf("expected patient kind, got %s", patient.Kind)
	}
	if patient.PhoneNumber != "+5511999990000" {
		t.Fatalf("expected normalized phone, got %s", patient.PhoneNumber)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPatientHistoryScan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM patient_history").
		WithArgs("p-1", 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "patient_id", "doctor_id", "occurred_at", "description"}).
			AddRow("h-2", "p-1", "d-1", "2025-02-10T14:00:00-03:00", "Cleaning").
			AddRow("h-1", "p-1", "d-1", "2025-01-05T09:00:00-03:00", "Checkup"))

	repo := NewRepository(mock)
	entries, err := repo.PatientHistory(context.Background(), "p-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "h-2" {
		t.Fatalf("expected newest entry first, got %s", entries[0].ID)
	}
}
