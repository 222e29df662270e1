package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleBackend implements Backend on top of the Google Calendar API.
type GoogleBackend struct {
	service    *gcal.Service
	calendarID string
	timezone   string
}

// NewGoogleBackend builds a backend from service-account credentials JSON.
func NewGoogleBackend(ctx context.Context, credentialsJSON []byte, calendarID, timezone string) (*GoogleBackend, error) {
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to create google client: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleBackend{service: svc, calendarID: calendarID, timezone: timezone}, nil
}

// ListEvents returns the occupied intervals overlapping [start, end).
func (g *GoogleBackend) ListEvents(ctx context.Context, start, end time.Time) ([]Interval, error) {
	events, err := g.service.Events.List(g.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to list events: %w", err)
	}

	intervals := make([]Interval, 0, len(events.Items))
	for _, item := range events.Items {
		if item.Start == nil || item.End == nil {
			continue
		}
		// All-day events carry Date instead of DateTime; treat them as
		// occupying the whole day.
		evStart, err := parseEventTime(item.Start)
		if err != nil {
			continue
		}
		evEnd, err := parseEventTime(item.End)
		if err != nil {
			continue
		}
		intervals = append(intervals, Interval{Start: evStart, End: evEnd})
	}
	return intervals, nil
}

// InsertEvent creates the event and returns its HTML link.
func (g *GoogleBackend) InsertEvent(ctx context.Context, event Event) (string, error) {
	created, err := g.service.Events.Insert(g.calendarID, &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start: &gcal.EventDateTime{
			DateTime: event.Start.Format("2006-01-02T15:04:05"),
			TimeZone: g.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: event.End.Format("2006-01-02T15:04:05"),
			TimeZone: g.timezone,
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: failed to insert event: %w", err)
	}
	return created.HtmlLink, nil
}

func parseEventTime(edt *gcal.EventDateTime) (time.Time, error) {
	if edt.DateTime != "" {
		return time.Parse(time.RFC3339, edt.DateTime)
	}
	return time.Parse("2006-01-02", edt.Date)
}
