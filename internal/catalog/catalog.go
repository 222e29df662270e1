// Package catalog holds the salon's treatment catalog: canonical service
// names, appointment durations, and the synonym tokens used to match
// free-text mentions.
package catalog

import (
	"strings"
	"time"
)

// DefaultDuration is used when a service has no catalog entry, so an
// unrecognized service never blocks the booking flow.
const DefaultDuration = 60 * time.Minute

// Service is one bookable treatment.
type Service struct {
	Name     string
	Duration time.Duration
	Synonyms []string
}

// Catalog is a fixed, ordered list of services. Order matters: synonym
// matching returns the first service whose token appears in the text.
type Catalog struct {
	services []Service
}

// New creates a catalog from the given services.
func New(services []Service) *Catalog {
	return &Catalog{services: services}
}

// Default returns the Hadas Queen treatment catalog.
func Default() *Catalog {
	return New([]Service{
		{
			Name:     "reductor ultra",
			Duration: 60 * time.Minute,
			Synonyms: []string{"reductor ultra", "reductor", "anticelulítico abdomen", "reafirmante abdomen"},
		},
		{
			Name:     "piernas de acero",
			Duration: 75 * time.Minute,
			Synonyms: []string{"piernas de acero", "piernas", "glúteos", "drenante"},
		},
		{
			Name:     "celulox brazos deluxe",
			Duration: 45 * time.Minute,
			Synonyms: []string{"celulox brazos deluxe", "brazos", "anticelulítico brazos"},
		},
		{
			Name:     "criofrecuencia",
			Duration: 60 * time.Minute,
			Synonyms: []string{"criofrecuencia", "crio", "piernas reafirmante"},
		},
		{
			Name:     "ritual piel bonita",
			Duration: 90 * time.Minute,
			Synonyms: []string{"ritual piel bonita", "exfoliación", "masaje corporal", "facial japonés"},
		},
		{
			Name:     "rejuvenecimiento facial",
			Duration: 60 * time.Minute,
			Synonyms: []string{"rejuvenecimiento facial", "reafirma", "arrugas", "facial"},
		},
	})
}

// Names returns the canonical service names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.services))
	for _, svc := range c.services {
		names = append(names, svc.Name)
	}
	return names
}

// Normalize maps free text to a canonical service name. Canonical names are
// checked before synonyms so a name that also appears in another service's
// synonym list always wins. Unmatched text is returned trimmed and
// lowercased, never empty-for-nonempty and never an error: duration lookup
// on the raw value falls back to DefaultDuration downstream.
func (c *Catalog) Normalize(text string) string {
	s := strings.ToLower(text)
	for _, svc := range c.services {
		if strings.Contains(s, svc.Name) {
			return svc.Name
		}
	}
	for _, svc := range c.services {
		for _, token := range svc.Synonyms {
			if strings.Contains(s, token) {
				return svc.Name
			}
		}
	}
	return strings.TrimSpace(s)
}

// Match scans text against every synonym list and reports the first service
// mentioned. Unlike Normalize it does not return unmatched input; it is the
// heuristic used when the extraction oracle produced no service at all.
func (c *Catalog) Match(text string) (string, bool) {
	s := strings.ToLower(text)
	for _, svc := range c.services {
		for _, token := range svc.Synonyms {
			if strings.Contains(s, token) {
				return svc.Name, true
			}
		}
	}
	return "", false
}

// Duration returns the appointment length for a canonical service name,
// or DefaultDuration if the name is not in the catalog.
func (c *Catalog) Duration(name string) time.Duration {
	lower := strings.ToLower(name)
	for _, svc := range c.services {
		if svc.Name == lower {
			return svc.Duration
		}
	}
	return DefaultDuration
}

// Contains reports whether name is a canonical catalog service.
func (c *Catalog) Contains(name string) bool {
	lower := strings.ToLower(name)
	for _, svc := range c.services {
		if svc.Name == lower {
			return true
		}
	}
	return false
}
