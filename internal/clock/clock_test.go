package clock

import (
	"testing"
	"time"
)

func TestNewRejectsBadTimezone(t *testing.T) {
	if _, err := New("Mars/Olympus_Mons"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty timezone")
	}
}

func TestNowUsesLocation(t *testing.T) {
	c, err := New("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Now().Location().String(); got != "America/Sao_Paulo" {
		t.Fatalf("expected Sao Paulo location, got %s", got)
	}
}

func TestNewFixed(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewFixed(at)
	if !c.Now().Equal(at) {
		t.Fatalf("expected fixed instant %s, got %s", at, c.Now())
	}
}
