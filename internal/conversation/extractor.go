package conversation

import (
	"strings"

	"github.com/hadasqueen/booking-assistant/internal/catalog"
	"github.com/hadasqueen/booking-assistant/internal/temporal"
)

// Extractor turns oracle output plus the raw message text into slot updates.
// Oracle values win when present; deterministic parsing of the raw text fills
// whatever the oracle missed. Filled slots are never blanked here.
type Extractor struct {
	catalog  *catalog.Catalog
	resolver *temporal.Resolver
}

// NewExtractor builds an extractor over the given catalog and resolver.
func NewExtractor(cat *catalog.Catalog, resolver *temporal.Resolver) *Extractor {
	if cat == nil {
		cat = catalog.Default()
	}
	if resolver == nil {
		resolver = temporal.NewResolver()
	}
	return &Extractor{catalog: cat, resolver: resolver}
}

// UpdateSlots applies one message's worth of new information to the slot set.
func (e *Extractor) UpdateSlots(slots SlotSet, values SlotValues, text string) SlotSet {
	// Oracle values overwrite: a correction ("mejor el viernes") must land.
	if v := strings.TrimSpace(values.Service); v != "" {
		slots.Service = e.catalog.Normalize(v)
	}
	if v := strings.TrimSpace(values.Date); v != "" {
		if d := e.parseDate(v); d != nil {
			slots.Date = d.ISO()
		}
	}
	if v := strings.TrimSpace(values.Time); v != "" {
		if t := e.parseTime(v); t != nil {
			slots.Time = t.String()
		}
	}
	if v := strings.TrimSpace(values.Name); v != "" {
		slots.Name = v
	}

	// Deterministic fallbacks fill only empty slots from the raw text.
	if slots.Service == "" {
		if name, ok := e.catalog.Match(text); ok {
			slots.Service = name
		}
	}
	date, tod := e.resolver.ResolveDateTime(text)
	if slots.Date == "" && date != nil {
		slots.Date = date.ISO()
	}
	if slots.Time == "" && tod != nil {
		slots.Time = tod.String()
	}
	if slots.Time == "" {
		if t := temporal.DefaultTimeForPeriod(text); t != nil {
			slots.Time = t.String()
		}
	}
	return slots
}

// parseDate accepts ISO dates from the oracle and falls back to resolving the
// value as Spanish natural language.
func (e *Extractor) parseDate(value string) *temporal.Date {
	if d, err := temporal.ParseDate(value); err == nil {
		return &d
	}
	d, _ := e.resolver.ResolveDateTime(value)
	return d
}

// parseTime accepts HH:MM from the oracle, treating midnight as the "no time
// extracted" sentinel, and falls back to natural-language resolution and
// period-of-day defaults ("por la tarde" and friends).
func (e *Extractor) parseTime(value string) *temporal.TimeOfDay {
	if t, err := temporal.ParseTimeOfDay(value); err == nil {
		if t.IsMidnight() {
			return nil
		}
		return &t
	}
	if t := e.resolver.ResolveTime(value); t != nil {
		return t
	}
	return temporal.DefaultTimeForPeriod(value)
}
