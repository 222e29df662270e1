package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Resolver parses Spanish natural-language date and time mentions.
// Ambiguous dates resolve to their next future occurrence.
type Resolver struct {
	now func() time.Time
}

// NewResolver creates a resolver using the system clock.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// NewResolverWithClock creates a resolver with an injected clock, for tests.
func NewResolverWithClock(now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{now: now}
}

var monthNames = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

var weekdayNames = map[string]time.Weekday{
	"domingo":   time.Sunday,
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miércoles": time.Wednesday,
	"miercoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sábado":    time.Saturday,
	"sabado":    time.Saturday,
}

var (
	isoDateRE     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	numericDateRE = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	dayMonthRE    = regexp.MustCompile(`\b(\d{1,2})\s+de\s+([a-záéíóúñ]+)(?:\s+(?:de(?:l)?\s+)?(\d{4}))?`)

	clockTimeRE    = regexp.MustCompile(`\b([01]?\d|2[0-3])[:.]([0-5]\d)\b`)
	hourMeridiemRE = regexp.MustCompile(`\b(\d{1,2})\s+de\s+la\s+(mañana|madrugada|tarde|noche)\b`)
	bareHourRE     = regexp.MustCompile(`a\s+las?\s+(\d{1,2})\b`)
)

// ResolveDateTime extracts a calendar date and/or a time of day from text.
// Either result may be nil. A parsed time of exactly midnight is treated as
// "no time given" and returned as nil.
func (r *Resolver) ResolveDateTime(text string) (*Date, *TimeOfDay) {
	lower := strings.ToLower(text)
	date := r.resolveDate(lower)
	tod := resolveTime(lower)
	if tod != nil && tod.IsMidnight() {
		tod = nil
	}
	return date, tod
}

// ResolveTime extracts only a time of day, with the midnight sentinel
// applied. Used when the oracle hands back a bare time string.
func (r *Resolver) ResolveTime(text string) *TimeOfDay {
	tod := resolveTime(strings.ToLower(text))
	if tod != nil && tod.IsMidnight() {
		return nil
	}
	return tod
}

// DefaultTimeForPeriod maps period-of-day keywords to fixed booking times:
// morning/early ten o'clock, afternoon five, midday one. Anything else is
// unspecified.
func DefaultTimeForPeriod(text string) *TimeOfDay {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "mañana") || strings.Contains(lower, "temprano"):
		return &TimeOfDay{Hour: 10}
	case strings.Contains(lower, "tarde"):
		return &TimeOfDay{Hour: 17}
	case strings.Contains(lower, "mediodía") || strings.Contains(lower, "mediodia"):
		return &TimeOfDay{Hour: 13}
	}
	return nil
}

// ClockTime matches a strict HH:MM pattern in text. This is the last-resort
// extraction pass and applies no future/period heuristics.
func ClockTime(text string) *TimeOfDay {
	m := clockTimeRE.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return &TimeOfDay{Hour: hour, Minute: minute}
}

func (r *Resolver) resolveDate(lower string) *Date {
	today := DateOf(r.now())

	if m := isoDateRE.FindStringSubmatch(lower); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return validDate(year, time.Month(month), day)
	}

	if m := dayMonthRE.FindStringSubmatch(lower); m != nil {
		if month, ok := monthNames[m[2]]; ok {
			day, _ := strconv.Atoi(m[1])
			if m[3] != "" {
				year, _ := strconv.Atoi(m[3])
				return validDate(year, month, day)
			}
			return r.nextOccurrence(today, month, day)
		}
	}

	if m := numericDateRE.FindStringSubmatch(lower); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if m[3] != "" {
			year, _ := strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
			return validDate(year, time.Month(month), day)
		}
		return r.nextOccurrence(today, time.Month(month), day)
	}

	// Relative words. "pasado mañana" must be checked before "mañana", and
	// "mañana" only counts after "de la mañana" (a time-of-day phrase, not a
	// date) has been ruled out.
	if containsWord(lower, "hoy") {
		d := today
		return &d
	}
	if strings.Contains(lower, "pasado mañana") {
		d := today.AddDays(2)
		return &d
	}
	if containsWord(lower, "mañana") && !strings.Contains(lower, "de la mañana") && !strings.Contains(lower, "por la mañana") {
		d := today.AddDays(1)
		return &d
	}

	for name, weekday := range weekdayNames {
		if containsWord(lower, name) {
			d := nextWeekday(today, weekday)
			return &d
		}
	}

	return nil
}

// nextOccurrence finds the next future date with the given month and day.
func (r *Resolver) nextOccurrence(today Date, month time.Month, day int) *Date {
	candidate := validDate(today.Year, month, day)
	if candidate == nil {
		return nil
	}
	if candidate.Before(today) {
		return validDate(today.Year+1, month, day)
	}
	return candidate
}

// nextWeekday returns the next strictly-future occurrence of the weekday.
func nextWeekday(today Date, weekday time.Weekday) Date {
	delta := (int(weekday) - int(today.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return today.AddDays(delta)
}

// validDate rejects impossible day-of-month values (e.g. 31 de febrero) by
// round-tripping through time.Date, which normalizes overflow.
func validDate(year int, month time.Month, day int) *Date {
	if day < 1 || day > 31 {
		return nil
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return nil
	}
	d := DateOf(t)
	return &d
}

func resolveTime(lower string) *TimeOfDay {
	if tod := ClockTime(lower); tod != nil {
		return tod
	}

	if m := hourMeridiemRE.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour >= 1 && hour <= 12 {
			switch m[2] {
			case "tarde", "noche":
				if hour < 12 {
					hour += 12
				}
			}
			return &TimeOfDay{Hour: hour}
		}
	}

	if m := bareHourRE.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour >= 0 && hour <= 23 {
			// Bare "a las 5" almost always means the afternoon slot; salon
			// hours make 1-7 in the morning implausible.
			if hour >= 1 && hour <= 7 {
				hour += 12
			}
			return &TimeOfDay{Hour: hour}
		}
	}

	return nil
}

// containsWord reports whether lower contains word bounded by non-letters.
func containsWord(lower, word string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(rune(lower[start-1]))
		afterOK := end >= len(lower) || !isLetter(rune(lower[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = end
	}
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r >= 0x80
}
