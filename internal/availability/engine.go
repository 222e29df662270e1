// Package availability decides whether a candidate appointment collides
// with the calendar and searches forward for the next free slot under
// business-hour constraints.
package availability

import (
	"context"
	"time"

	"github.com/hadasqueen/booking-assistant/internal/calendar"
	"github.com/hadasqueen/booking-assistant/internal/observability/metrics"
	"github.com/hadasqueen/booking-assistant/internal/temporal"
	"github.com/hadasqueen/booking-assistant/pkg/logging"
)

// Defaults match the salon's published schedule.
const (
	defaultOpenHour    = 9
	defaultCloseHour   = 19
	defaultHorizonDays = 14
	defaultStep        = 30 * time.Minute
)

// Config carries the business constraints for slot search.
type Config struct {
	OpenHour      int
	CloseHour     int
	ClosedWeekday time.Weekday
	HorizonDays   int
	Step          time.Duration
	Location      *time.Location
}

func (c Config) withDefaults() Config {
	if c.OpenHour == 0 && c.CloseHour == 0 {
		c.OpenHour = defaultOpenHour
		c.CloseHour = defaultCloseHour
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.Step <= 0 {
		c.Step = defaultStep
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

// Engine answers conflict and next-free-slot questions against a calendar
// backend. It is a pure reader of calendar state and never mutates sessions.
type Engine struct {
	backend calendar.Backend
	cfg     Config
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
	now     func() time.Time
}

// New creates an availability engine. metrics may be nil.
func New(backend calendar.Backend, cfg Config, logger *logging.Logger, m *metrics.BookingMetrics) *Engine {
	if backend == nil {
		panic("availability: backend cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		backend: backend,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock overrides the engine clock, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	if now != nil {
		e.now = now
	}
	return e
}

// HasConflict reports whether any calendar event overlaps the half-open
// interval [date+time, date+time+duration). A backend read error counts as
// a conflict: an uncertain read must never lead to a double booking.
func (e *Engine) HasConflict(ctx context.Context, date temporal.Date, tod temporal.TimeOfDay, duration time.Duration) bool {
	start := date.At(tod, e.cfg.Location)
	end := start.Add(duration)

	events, err := e.backend.ListEvents(ctx, start, end)
	if err != nil {
		e.logger.Warn("calendar read failed, treating slot as occupied",
			"error", err, "start", start)
		return true
	}

	for _, ev := range events {
		if ev.Overlaps(start, end) {
			e.metrics.ObserveConflict()
			return true
		}
	}
	return false
}

// FindNextAvailable scans forward from the given start in fixed steps and
// returns the first conflict-free slot whose local hour falls inside
// business hours on an open weekday. A nil fromDate starts the search today
// at opening time. The third return value is false when nothing clears
// within the horizon; that is a user-facing outcome, not an error.
func (e *Engine) FindNextAvailable(ctx context.Context, fromDate *temporal.Date, fromTime *temporal.TimeOfDay, duration time.Duration) (temporal.Date, temporal.TimeOfDay, bool) {
	searchStart := e.now()
	defer func() {
		e.metrics.ObserveSearchDuration(time.Since(searchStart).Seconds())
	}()

	var start time.Time
	if fromDate == nil {
		start = temporal.DateOf(e.now().In(e.cfg.Location)).At(temporal.TimeOfDay{Hour: e.cfg.OpenHour}, e.cfg.Location)
	} else {
		tod := temporal.TimeOfDay{Hour: e.cfg.OpenHour}
		if fromTime != nil {
			tod = *fromTime
		}
		start = fromDate.At(tod, e.cfg.Location)
	}

	limit := start.AddDate(0, 0, e.cfg.HorizonDays)
	for current := start; !current.After(limit); current = current.Add(e.cfg.Step) {
		if ctx.Err() != nil {
			return temporal.Date{}, temporal.TimeOfDay{}, false
		}
		if current.Hour() < e.cfg.OpenHour || current.Hour() >= e.cfg.CloseHour {
			continue
		}
		if current.Weekday() == e.cfg.ClosedWeekday {
			continue
		}

		date := temporal.DateOf(current)
		tod := temporal.TimeOfDay{Hour: current.Hour(), Minute: current.Minute()}
		if !e.HasConflict(ctx, date, tod, duration) {
			return date, tod, true
		}
	}

	return temporal.Date{}, temporal.TimeOfDay{}, false
}
