package conversation

import (
	"time"
)

// Phase is the dialogue state of a session.
type Phase string

const (
	PhaseCollecting           Phase = "COLLECTING"
	PhaseAwaitingConfirmation Phase = "AWAITING_CONFIRMATION"
	PhaseConfirmed            Phase = "CONFIRMED"
)

// Speaker labels for transcript turns.
const (
	SpeakerUser      = "user"
	SpeakerAssistant = "assistant"
)

// Turn is one transcript entry.
type Turn struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Slot names, in prompt priority order.
const (
	SlotService = "service"
	SlotDate    = "date"
	SlotTime    = "time"
	SlotName    = "name"
)

var slotPriority = []string{SlotService, SlotDate, SlotTime, SlotName}

// SlotSet holds the four booking fields. An empty string means unset; dates
// are stored ISO (2006-01-02) and times as HH:MM.
type SlotSet struct {
	Service string `json:"service,omitempty"`
	Date    string `json:"date,omitempty"`
	Time    string `json:"time,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Complete reports whether all four slots are filled.
func (s SlotSet) Complete() bool {
	return s.Service != "" && s.Date != "" && s.Time != "" && s.Name != ""
}

// Empty reports whether no slot is filled.
func (s SlotSet) Empty() bool {
	return s.Service == "" && s.Date == "" && s.Time == "" && s.Name == ""
}

// Missing returns the unset slot names in priority order.
func (s SlotSet) Missing() []string {
	var missing []string
	for _, name := range slotPriority {
		if s.get(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func (s SlotSet) get(name string) string {
	switch name {
	case SlotService:
		return s.Service
	case SlotDate:
		return s.Date
	case SlotTime:
		return s.Time
	case SlotName:
		return s.Name
	}
	return ""
}

// Suggestion is a proposed alternative slot offered after a conflict.
type Suggestion struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Session is the per-sender conversation state. The dialogue engine is the
// only writer of Slots and Phase.
type Session struct {
	ID                string      `json:"id"`
	Turns             []Turn      `json:"turns"`
	Slots             SlotSet     `json:"slots"`
	Phase             Phase       `json:"phase"`
	PendingSuggestion *Suggestion `json:"pending_suggestion,omitempty"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// NewSession creates a fresh session for a sender identifier.
func NewSession(id string) *Session {
	return &Session{
		ID:    id,
		Phase: PhaseCollecting,
	}
}

// Append records a transcript turn.
func (s *Session) Append(speaker, text string) {
	s.Turns = append(s.Turns, Turn{Speaker: speaker, Text: text, At: time.Now().UTC()})
}

// RecentTurns returns up to n most recent turns, oldest first. Used as the
// extraction context so the oracle prompt stays bounded.
func (s *Session) RecentTurns(n int) []Turn {
	if n <= 0 || len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}

// ClearBooking drops the slot values and any pending suggestion. The session
// itself persists for reuse.
func (s *Session) ClearBooking() {
	s.Slots = SlotSet{}
	s.PendingSuggestion = nil
}

// BookingRequest is the reservation payload submitted to the calendar
// backend, derived from a complete confirmed slot set.
type BookingRequest struct {
	Name       string
	ContactRef string
	Service    string
	Date       string
	Time       string
}
