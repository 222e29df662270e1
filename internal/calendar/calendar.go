// Package calendar abstracts the durable event storage behind the booking
// flow. The core only needs to list occupied intervals and insert events;
// the backing implementation is Google Calendar in production and an
// in-memory fake in tests and development.
package calendar

import (
	"context"
	"time"
)

// Interval is an occupied time range read from the backend. Intervals are
// half-open: [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the interval intersects [start, end).
func (i Interval) Overlaps(start, end time.Time) bool {
	return i.Start.Before(end) && start.Before(i.End)
}

// Event is a reservation to be written to the backend.
type Event struct {
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
}

// Backend is the external calendar the availability engine queries and the
// booking flow writes to. ListEvents returns every interval overlapping
// [start, end). InsertEvent returns an opaque reference (a link or ID) for
// the created event.
type Backend interface {
	ListEvents(ctx context.Context, start, end time.Time) ([]Interval, error)
	InsertEvent(ctx context.Context, event Event) (string, error)
}
