package calendar

import (
	"context"
	"testing"
	"time"
)

func TestIntervalOverlaps(t *testing.T) {
	base := time.Date(2025, time.December, 5, 17, 0, 0, 0, time.UTC)
	iv := Interval{Start: base, End: base.Add(time.Hour)}

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical", base, base.Add(time.Hour), true},
		{"contained", base.Add(15 * time.Minute), base.Add(30 * time.Minute), true},
		{"overlap start", base.Add(-30 * time.Minute), base.Add(30 * time.Minute), true},
		{"overlap end", base.Add(30 * time.Minute), base.Add(90 * time.Minute), true},
		{"touching before", base.Add(-time.Hour), base, false},
		{"touching after", base.Add(time.Hour), base.Add(2 * time.Hour), false},
		{"disjoint", base.Add(3 * time.Hour), base.Add(4 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := iv.Overlaps(tt.start, tt.end); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFakeBackend(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeBackend()

	start := time.Date(2025, time.December, 5, 17, 0, 0, 0, time.UTC)
	ref, err := fake.InsertEvent(ctx, Event{Start: start, End: start.Add(time.Hour), Summary: "Cita de Marta"})
	if err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}
	if ref == "" {
		t.Error("InsertEvent returned empty reference")
	}

	intervals, err := fake.ListEvents(ctx, start.Add(-time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(intervals) != 1 {
		t.Fatalf("len(intervals) = %d, want 1", len(intervals))
	}

	intervals, err = fake.ListEvents(ctx, start.Add(2*time.Hour), start.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(intervals) != 0 {
		t.Errorf("len(intervals) = %d, want 0 outside the event", len(intervals))
	}

	fake.FailList = true
	if _, err := fake.ListEvents(ctx, start, start.Add(time.Hour)); err == nil {
		t.Error("ListEvents should fail when FailList is set")
	}
	fake.FailInsert = true
	if _, err := fake.InsertEvent(ctx, Event{Start: start, End: start.Add(time.Hour)}); err == nil {
		t.Error("InsertEvent should fail when FailInsert is set")
	}
}
