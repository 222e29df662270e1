package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrUnavailable is returned by a FakeBackend configured to fail.
var ErrUnavailable = errors.New("calendar: backend unavailable")

// FakeBackend is an in-memory Backend for tests and local development.
type FakeBackend struct {
	mu     sync.Mutex
	events []Event

	// FailList and FailInsert force the corresponding call to error.
	FailList   bool
	FailInsert bool
}

// NewFakeBackend creates an empty fake calendar.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{}
}

// Seed adds an occupied interval without going through InsertEvent.
func (f *FakeBackend) Seed(start, end time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, Event{Start: start, End: end, Summary: "seeded"})
}

// ListEvents returns every stored event overlapping [start, end).
func (f *FakeBackend) ListEvents(_ context.Context, start, end time.Time) ([]Interval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailList {
		return nil, ErrUnavailable
	}

	var intervals []Interval
	for _, ev := range f.events {
		iv := Interval{Start: ev.Start, End: ev.End}
		if iv.Overlaps(start, end) {
			intervals = append(intervals, iv)
		}
	}
	return intervals, nil
}

// InsertEvent stores the event and returns a synthetic reference.
func (f *FakeBackend) InsertEvent(_ context.Context, event Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailInsert {
		return "", ErrUnavailable
	}

	f.events = append(f.events, event)
	return fmt.Sprintf("fake-event-%d", len(f.events)), nil
}

// Events returns a copy of all stored events.
func (f *FakeBackend) Events() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}
