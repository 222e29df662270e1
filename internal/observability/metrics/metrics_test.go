package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveTurn("COLLECTING", "prompted")
	m.ObserveTurn("COLLECTING", "prompted")
	m.ObserveBooking()
	m.ObserveConflict()
	m.ObserveOracleFailure("extract")
	m.ObserveSearchDuration(0.25)
	m.ObserveSessionSaveFailure()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	byName := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	turns, ok := byName["salon_dialogue_turns_total"]
	if !ok {
		t.Fatal("turns_total not registered")
	}
	if got := turns.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("turns_total = %v, want 2", got)
	}

	if _, ok := byName["salon_availability_search_seconds"]; !ok {
		t.Error("search_seconds not registered")
	}
	if _, ok := byName["salon_sessions_save_failures_total"]; !ok {
		t.Error("save_failures_total not registered")
	}
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveTurn("x", "y")
	m.ObserveBooking()
	m.ObserveConflict()
	m.ObserveOracleFailure("intent")
	m.ObserveSearchDuration(1)
	m.ObserveSessionSaveFailure()
}
