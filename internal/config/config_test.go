package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("OFFICE_TIMEZONE", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.OfficeTimezone != "America/Sao_Paulo" {
		t.Fatalf("expected default office timezone, got %s", cfg.OfficeTimezone)
	}
	if cfg.HistoryMaxMessages != 10 {
		t.Fatalf("expected default history bound, got %d", cfg.HistoryMaxMessages)
	}
	if cfg.HistoryMaxAge != 24*time.Hour {
		t.Fatalf("expected default history max age, got %s", cfg.HistoryMaxAge)
	}
	if cfg.SlotOpeningHour != 9 || cfg.SlotClosingHour != 18 {
		t.Fatalf("expected default business hours, got %d-%d", cfg.SlotOpeningHour, cfg.SlotClosingHour)
	}
	if len(cfg.SlotClosedWeekdays) != 1 || cfg.SlotClosedWeekdays[0] != time.Sunday {
		t.Fatalf("expected Sundays closed by default, got %v", cfg.SlotClosedWeekdays)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("OFFICE_TIMEZONE", "America/New_York")
	t.Setenv("WORKER_COUNT", "4")
	t.Setenv("HISTORY_MAX_MESSAGES", "25")
	t.Setenv("HISTORY_MAX_AGE", "48h")
	t.Setenv("SLOT_INTERVAL_MINS", "30")
	t.Setenv("SLOT_CLOSED_WEEKDAYS", "Saturday, Sunday")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.OfficeTimezone != "America/New_York" {
		t.Fatalf("expected timezone override, got %s", cfg.OfficeTimezone)
	}
	if cfg.WorkerCount != 4 {
		t.Fatalf("expected worker count override, got %d", cfg.WorkerCount)
	}
	if cfg.HistoryMaxMessages != 25 {
		t.Fatalf("expected history bound override, got %d", cfg.HistoryMaxMessages)
	}
	if cfg.HistoryMaxAge != 48*time.Hour {
		t.Fatalf("expected history max age override, got %s", cfg.HistoryMaxAge)
	}
	if cfg.SlotIntervalMins != 30 {
		t.Fatalf("expected slot interval override, got %d", cfg.SlotIntervalMins)
	}
	if !cfg.UseMemoryQueue {
		t.Fatal("expected memory queue override")
	}
	want := []time.Weekday{time.Saturday, time.Sunday}
	if len(cfg.SlotClosedWeekdays) != len(want) {
		t.Fatalf("expected closed weekday override, got %v", cfg.SlotClosedWeekdays)
	}
	for i, day := range want {
		if cfg.SlotClosedWeekdays[i] != day {
			t.Fatalf("expected closed weekday override, got %v", cfg.SlotClosedWeekdays)
		}
	}
}
