package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.BusinessOpenHour != 9 || cfg.BusinessCloseHour != 19 {
		t.Errorf("business hours = %d-%d, want 9-19", cfg.BusinessOpenHour, cfg.BusinessCloseHour)
	}
	if cfg.ClosedWeekday != time.Sunday {
		t.Errorf("ClosedWeekday = %v, want Sunday", cfg.ClosedWeekday)
	}
	if cfg.SearchHorizonDays != 14 {
		t.Errorf("SearchHorizonDays = %d, want 14", cfg.SearchHorizonDays)
	}
	if cfg.SearchStep != 30*time.Minute {
		t.Errorf("SearchStep = %v, want 30m", cfg.SearchStep)
	}
	if cfg.BusinessTimezone != "Atlantic/Canary" {
		t.Errorf("BusinessTimezone = %q", cfg.BusinessTimezone)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BUSINESS_OPEN_HOUR", "10")
	t.Setenv("BUSINESS_CLOSE_HOUR", "20")
	t.Setenv("CLOSED_WEEKDAY", "1")
	t.Setenv("SEARCH_STEP", "15m")
	t.Setenv("USE_MEMORY_QUEUE", "false")

	cfg := Load()

	if cfg.BusinessOpenHour != 10 || cfg.BusinessCloseHour != 20 {
		t.Errorf("business hours = %d-%d, want 10-20", cfg.BusinessOpenHour, cfg.BusinessCloseHour)
	}
	if cfg.ClosedWeekday != time.Monday {
		t.Errorf("ClosedWeekday = %v, want Monday", cfg.ClosedWeekday)
	}
	if cfg.SearchStep != 15*time.Minute {
		t.Errorf("SearchStep = %v, want 15m", cfg.SearchStep)
	}
	if cfg.UseMemoryQueue {
		t.Error("UseMemoryQueue should be false")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("BUSINESS_OPEN_HOUR", "nine")
	t.Setenv("SEARCH_STEP", "soon")

	cfg := Load()

	if cfg.BusinessOpenHour != 9 {
		t.Errorf("BusinessOpenHour = %d, want default 9", cfg.BusinessOpenHour)
	}
	if cfg.SearchStep != 30*time.Minute {
		t.Errorf("SearchStep = %v, want default 30m", cfg.SearchStep)
	}
}
