package availability

import (
	"context"
	"testing"
	"time"

	"github.com/hadasqueen/booking-assistant/internal/calendar"
	"github.com/hadasqueen/booking-assistant/internal/temporal"
	"github.com/hadasqueen/booking-assistant/pkg/logging"
)

func testEngine(backend calendar.Backend) *Engine {
	return New(backend, Config{
		OpenHour:      9,
		CloseHour:     19,
		ClosedWeekday: time.Sunday,
		HorizonDays:   14,
		Step:          30 * time.Minute,
		Location:      time.UTC,
	}, logging.New("error"), nil)
}

func mustDate(t *testing.T, s string) temporal.Date {
	t.Helper()
	d, err := temporal.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestHasConflict(t *testing.T) {
	ctx := context.Background()
	fake := calendar.NewFakeBackend()
	// Friday 2025-12-05, 17:00-18:00 occupied.
	fake.Seed(
		time.Date(2025, time.December, 5, 17, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 5, 18, 0, 0, 0, time.UTC),
	)
	engine := testEngine(fake)
	date := mustDate(t, "2025-12-05")

	if !engine.HasConflict(ctx, date, temporal.TimeOfDay{Hour: 17}, time.Hour) {
		t.Error("expected conflict at 17:00")
	}
	if !engine.HasConflict(ctx, date, temporal.TimeOfDay{Hour: 16, Minute: 30}, time.Hour) {
		t.Error("expected conflict for interval overlapping 17:00")
	}
	if engine.HasConflict(ctx, date, temporal.TimeOfDay{Hour: 18}, time.Hour) {
		t.Error("18:00 touches but does not overlap the occupied interval")
	}
	if engine.HasConflict(ctx, date, temporal.TimeOfDay{Hour: 10}, time.Hour) {
		t.Error("10:00 should be free")
	}
}

func TestHasConflictFailsSafe(t *testing.T) {
	fake := calendar.NewFakeBackend()
	fake.FailList = true
	engine := testEngine(fake)

	if !engine.HasConflict(context.Background(), mustDate(t, "2025-12-05"), temporal.TimeOfDay{Hour: 10}, time.Hour) {
		t.Error("backend errors must read as occupied")
	}
}

func TestFindNextAvailableAfterConflict(t *testing.T) {
	ctx := context.Background()
	fake := calendar.NewFakeBackend()
	fake.Seed(
		time.Date(2025, time.December, 5, 17, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 5, 18, 0, 0, 0, time.UTC),
	)
	engine := testEngine(fake)

	from := mustDate(t, "2025-12-05")
	fromTime := temporal.TimeOfDay{Hour: 17}
	date, tod, ok := engine.FindNextAvailable(ctx, &from, &fromTime, time.Hour)
	if !ok {
		t.Fatal("expected a slot within the horizon")
	}
	if date.ISO() != "2025-12-05" || tod.String() != "18:00" {
		t.Errorf("next slot = %s %s, want 2025-12-05 18:00", date.ISO(), tod)
	}

	// The conflicting start itself must never come back.
	if engine.HasConflict(ctx, date, tod, time.Hour) {
		t.Error("FindNextAvailable returned a conflicting slot")
	}
}

func TestFindNextAvailableRespectsBusinessRules(t *testing.T) {
	ctx := context.Background()
	engine := testEngine(calendar.NewFakeBackend())

	// 2025-12-07 is a Sunday; the search must land on Monday at opening.
	from := mustDate(t, "2025-12-07")
	fromTime := temporal.TimeOfDay{Hour: 10}
	date, tod, ok := engine.FindNextAvailable(ctx, &from, &fromTime, time.Hour)
	if !ok {
		t.Fatal("expected a slot")
	}
	if date.ISO() != "2025-12-08" || tod.String() != "09:00" {
		t.Errorf("next slot = %s %s, want 2025-12-08 09:00", date.ISO(), tod)
	}
	if date.Weekday() == time.Sunday {
		t.Error("returned a slot on the closed weekday")
	}
	if tod.Hour < 9 || tod.Hour >= 19 {
		t.Errorf("returned a slot outside business hours: %s", tod)
	}
}

func TestFindNextAvailableStartsTodayWhenUnset(t *testing.T) {
	ctx := context.Background()
	fake := calendar.NewFakeBackend()
	engine := testEngine(fake).WithClock(func() time.Time {
		// A Wednesday morning before opening.
		return time.Date(2025, time.December, 3, 7, 0, 0, 0, time.UTC)
	})

	date, tod, ok := engine.FindNextAvailable(ctx, nil, nil, time.Hour)
	if !ok {
		t.Fatal("expected a slot")
	}
	if date.ISO() != "2025-12-03" || tod.String() != "09:00" {
		t.Errorf("next slot = %s %s, want 2025-12-03 09:00", date.ISO(), tod)
	}
}

func TestFindNextAvailableNotFound(t *testing.T) {
	ctx := context.Background()
	fake := calendar.NewFakeBackend()
	fake.FailList = true // every candidate reads as occupied
	engine := New(fake, Config{
		OpenHour:      9,
		CloseHour:     11,
		ClosedWeekday: time.Sunday,
		HorizonDays:   1,
		Step:          30 * time.Minute,
		Location:      time.UTC,
	}, logging.New("error"), nil)

	from := mustDate(t, "2025-12-05")
	fromTime := temporal.TimeOfDay{Hour: 9}
	if _, _, ok := engine.FindNextAvailable(ctx, &from, &fromTime, time.Hour); ok {
		t.Error("expected NotFound when every slot conflicts")
	}
}
