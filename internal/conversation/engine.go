package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hadasqueen/booking-assistant/internal/availability"
	"github.com/hadasqueen/booking-assistant/internal/calendar"
	"github.com/hadasqueen/booking-assistant/internal/catalog"
	"github.com/hadasqueen/booking-assistant/internal/observability/metrics"
	"github.com/hadasqueen/booking-assistant/internal/temporal"
	"github.com/hadasqueen/booking-assistant/pkg/logging"
)

// User-facing copy. The assistant speaks Spanish; senders are salon clients.
const (
	replyGreeting  = "¡Hola! 👋 ¿Quieres reservar, consultar servicios o ver disponibilidad?"
	replyFallback  = "Perdona, no entendí bien. ¿Quieres reservar, consultar servicios o comprobar disponibilidad?"
	replyCancelled = "Reserva cancelada. ¿Quieres empezar de nuevo?"
	replyChange    = "Perfecto, dime qué quieres cambiar (servicio, fecha, hora, nombre)."
	replyMalformed = "⚠️ No pude entender la fecha/hora. Por favor indica de nuevo."
	replyNoSlot    = "⚠️ No encontré hueco disponible en los próximos días."
	replyInsertErr = "❌ Error al guardar la cita en la agenda."

	promptService = "👉 ¿Qué tratamiento deseas? Opciones: %s"
	promptDate    = "📅 Perfecto, ¿para qué día te viene bien?"
	promptTime    = "⏰ ¿A qué hora prefieres?"
	promptName    = "👤 ¿A nombre de quién hago la reserva?"

	replyConflict = "⚠️ Esa hora está ocupada. Puedo proponerte %s a las %s. ¿Te sirve?"
	replySummary  = "Voy a reservar:\n💆 %s\n📅 %s\n⏰ %s\n👤 %s\n¿Confirmo? (sí/no)"
	replySuccess  = "✅ Tu cita ha sido confirmada.\n📅 %s a las %s\n💆 Servicio: %s\n👤 Nombre: %s\n🔗 %s"
)

// affirmatives is the closed set of confirmation answers.
var affirmatives = map[string]struct{}{
	"sí": {}, "si": {}, "ok": {}, "vale": {}, "confirmar": {},
	"claro": {}, "perfecto": {}, "sii": {}, "si claro": {},
}

// Turn outcomes recorded per handled message.
const (
	outcomePrompt     = "prompt"
	outcomeProposed   = "proposed"
	outcomeConflict   = "conflict"
	outcomeBooked     = "booked"
	outcomeCancelled  = "cancelled"
	outcomeSideIntent = "side_intent"
	outcomeNoSlot     = "no_slot"
	outcomeError      = "error"
)

// Deps wires the dialogue engine to its collaborators. Transcripts and
// Metrics may be nil.
type Deps struct {
	Oracle       Oracle
	Catalog      *catalog.Catalog
	Extractor    *Extractor
	Availability *availability.Engine
	Backend      calendar.Backend
	Store        SessionStore
	Transcripts  TranscriptStore
	Location     *time.Location
	Logger       *logging.Logger
	Metrics      *metrics.BookingMetrics
}

// Engine drives the booking dialogue: it owns session state transitions and
// is the only component that mutates slots and phase. One message per sender
// is processed at a time; concurrent messages from different senders proceed
// independently.
type Engine struct {
	oracle      Oracle
	catalog     *catalog.Catalog
	extractor   *Extractor
	avail       *availability.Engine
	backend     calendar.Backend
	store       SessionStore
	transcripts TranscriptStore
	location    *time.Location
	logger      *logging.Logger
	metrics     *metrics.BookingMetrics

	locks sync.Map // sender ID -> *sync.Mutex

	mu    sync.Mutex
	cache map[string]*Session
}

// NewEngine creates the dialogue engine.
func NewEngine(deps Deps) *Engine {
	if deps.Oracle == nil || deps.Availability == nil || deps.Backend == nil || deps.Store == nil {
		panic("conversation: oracle, availability, backend and store are required")
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.Extractor == nil {
		deps.Extractor = NewExtractor(deps.Catalog, nil)
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Engine{
		oracle:      deps.Oracle,
		catalog:     deps.Catalog,
		extractor:   deps.Extractor,
		avail:       deps.Availability,
		backend:     deps.Backend,
		store:       deps.Store,
		transcripts: deps.Transcripts,
		location:    deps.Location,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		cache:       make(map[string]*Session),
	}
}

// HandleMessage processes one inbound message and returns the reply. It never
// returns an error for user-level problems; the error path is reserved for
// callers that need to know delivery failed entirely.
func (e *Engine) HandleMessage(ctx context.Context, req MessageRequest) (Response, error) {
	sender := strings.TrimSpace(req.SenderID)
	if sender == "" {
		return Response{}, fmt.Errorf("conversation: empty sender id")
	}

	lock := e.senderLock(sender)
	lock.Lock()
	defer lock.Unlock()

	session := e.loadSession(ctx, sender)
	session.Append(SpeakerUser, req.Text)
	e.archive(ctx, sender, SpeakerUser, req.Text)

	reply, outcome := e.advance(ctx, session, req.Text)

	session.Append(SpeakerAssistant, reply)
	e.archive(ctx, sender, SpeakerAssistant, reply)
	session.UpdatedAt = time.Now().UTC()
	e.saveSession(ctx, session)

	e.metrics.ObserveTurn(string(session.Phase), outcome)
	e.logger.Info("turn handled",
		"sender", sender, "phase", session.Phase, "outcome", outcome)

	return Response{Text: reply}, nil
}

// Preload hydrates the in-process cache from the session store, so dialogues
// survive a restart. Store errors leave the cache empty; sessions then load
// lazily per sender.
func (e *Engine) Preload(ctx context.Context) int {
	sessions, err := e.store.LoadAll(ctx)
	if err != nil {
		e.logger.Warn("session preload failed", "error", err)
	}

	e.mu.Lock()
	for id, session := range sessions {
		e.cache[id] = session
	}
	e.mu.Unlock()
	return len(sessions)
}

func (e *Engine) senderLock(sender string) *sync.Mutex {
	v, _ := e.locks.LoadOrStore(sender, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// loadSession prefers the in-process cache so a store outage degrades to
// per-process memory instead of dropping mid-dialogue state.
func (e *Engine) loadSession(ctx context.Context, sender string) *Session {
	e.mu.Lock()
	cached := e.cache[sender]
	e.mu.Unlock()
	if cached != nil {
		return cached
	}

	session, err := e.store.Get(ctx, sender)
	if err != nil {
		e.logger.Warn("session load failed, starting fresh", "sender", sender, "error", err)
	}
	if session == nil {
		session = NewSession(sender)
	}

	e.mu.Lock()
	e.cache[sender] = session
	e.mu.Unlock()
	return session
}

func (e *Engine) saveSession(ctx context.Context, session *Session) {
	if err := e.store.Put(ctx, session); err != nil {
		e.metrics.ObserveSessionSaveFailure()
		e.logger.Error("session save failed", "sender", session.ID, "error", err)
	}
}

func (e *Engine) archive(ctx context.Context, sender, speaker, text string) {
	if e.transcripts == nil {
		return
	}
	if err := e.transcripts.SaveTurn(ctx, sender, speaker, text); err != nil {
		e.logger.Warn("transcript archive failed", "sender", sender, "error", err)
	}
}

func (e *Engine) advance(ctx context.Context, s *Session, text string) (string, string) {
	if s.Phase == PhaseConfirmed {
		// A confirmed session accepts a new booking from scratch.
		s.ClearBooking()
		s.Phase = PhaseCollecting
	}

	// Extraction runs on every message, including while a confirmation is
	// pending: a correction embedded in the reply ("cambiar la hora, mejor
	// a las 18:00") must land on the slot set before the reply is
	// classified.
	e.extract(ctx, s, text)

	if s.Phase == PhaseAwaitingConfirmation {
		return e.handleConfirmation(ctx, s, text)
	}
	return e.collect(ctx, s, text)
}

// extract merges the oracle's reading of the recent transcript and the
// deterministic passes over the raw text into the session's slot set.
func (e *Engine) extract(ctx context.Context, s *Session, text string) {
	values, err := e.oracle.ExtractSlots(ctx, s.RecentTurns(extractionContextTurns))
	if err != nil {
		e.metrics.ObserveOracleFailure("extract_slots")
		e.logger.Warn("slot extraction failed, relying on deterministic parsing",
			"sender", s.ID, "error", err)
		values = SlotValues{}
	}
	s.Slots = e.extractor.UpdateSlots(s.Slots, values, text)
}

// collect prompts for the first missing slot or proposes the completed
// booking.
func (e *Engine) collect(ctx context.Context, s *Session, text string) (string, string) {
	if s.Slots.Empty() {
		return e.handleSideIntent(ctx, s, text)
	}
	if missing := s.Slots.Missing(); len(missing) > 0 {
		return e.promptFor(missing[0]), outcomePrompt
	}
	return e.propose(s)
}

func (e *Engine) promptFor(slot string) string {
	switch slot {
	case SlotService:
		return fmt.Sprintf(promptService, strings.Join(e.catalog.Names(), ", "))
	case SlotDate:
		return promptDate
	case SlotTime:
		return promptTime
	default:
		return promptName
	}
}

// propose summarizes the completed slot set and asks for confirmation. The
// calendar is not consulted yet; conflicts surface when the user confirms.
// Re-entering with the session already awaiting confirmation never reaches
// here, so the summary is not repeated.
func (e *Engine) propose(s *Session) (string, string) {
	date, tod, ok := e.parseSlots(s)
	if !ok {
		s.Slots.Date = ""
		s.Slots.Time = ""
		return replyMalformed, outcomeError
	}

	s.PendingSuggestion = nil
	s.Phase = PhaseAwaitingConfirmation
	return fmt.Sprintf(replySummary, s.Slots.Service, formatDate(date), tod, s.Slots.Name), outcomeProposed
}

func (e *Engine) handleConfirmation(ctx context.Context, s *Session, text string) (string, string) {
	answer := strings.Trim(strings.ToLower(strings.TrimSpace(text)), "¡!.¿?")

	if _, yes := affirmatives[answer]; yes {
		return e.book(ctx, s)
	}
	if strings.Contains(answer, "cambiar") || strings.Contains(answer, "modificar") {
		s.PendingSuggestion = nil
		s.Phase = PhaseCollecting
		return replyChange, outcomePrompt
	}

	// Anything else while awaiting confirmation cancels the booking.
	s.ClearBooking()
	s.Phase = PhaseCollecting
	return replyCancelled, outcomeCancelled
}

// book writes the confirmed reservation. A pending suggestion replaces the
// originally requested slot, and the interval is checked immediately before
// the insert because the calendar may have changed since the summary.
func (e *Engine) book(ctx context.Context, s *Session) (string, string) {
	if s.PendingSuggestion != nil {
		s.Slots.Date = s.PendingSuggestion.Date
		s.Slots.Time = s.PendingSuggestion.Time
		s.PendingSuggestion = nil
	}

	date, tod, ok := e.parseSlots(s)
	if !ok {
		// Keep the session awaiting confirmation so the user can restate.
		return replyMalformed, outcomeError
	}

	duration := e.catalog.Duration(s.Slots.Service)
	if e.avail.HasConflict(ctx, date, tod, duration) {
		nd, nt, found := e.avail.FindNextAvailable(ctx, &date, &tod, duration)
		if !found {
			// Slots stay as they are; the user can change the date.
			s.PendingSuggestion = nil
			return replyNoSlot, outcomeNoSlot
		}
		s.PendingSuggestion = &Suggestion{Date: nd.ISO(), Time: nt.String()}
		return fmt.Sprintf(replyConflict, formatDate(nd), nt), outcomeConflict
	}

	req := BookingRequest{
		Name:       s.Slots.Name,
		ContactRef: s.ID,
		Service:    s.Slots.Service,
		Date:       date.ISO(),
		Time:       tod.String(),
	}
	link, err := e.backend.InsertEvent(ctx, e.eventFromRequest(req, date, tod, duration))
	if err != nil {
		e.logger.Error("calendar insert failed", "sender", s.ID, "error", err)
		return replyInsertErr, outcomeError
	}

	e.metrics.ObserveBooking()
	s.Phase = PhaseConfirmed
	return fmt.Sprintf(replySuccess, formatDate(date), tod, s.Slots.Service, s.Slots.Name, link), outcomeBooked
}

func (e *Engine) handleSideIntent(ctx context.Context, s *Session, text string) (string, string) {
	intent, err := e.oracle.ClassifyIntent(ctx, text)
	if err != nil {
		e.metrics.ObserveOracleFailure("classify_intent")
		e.logger.Warn("intent classification failed", "sender", s.ID, "error", err)
		intent = IntentOther
	}

	switch intent {
	case IntentGreeting:
		return replyGreeting, outcomeSideIntent
	case IntentConsult:
		return e.serviceList(), outcomeSideIntent
	case IntentAvailability:
		return e.nextOpening(ctx), outcomeSideIntent
	case IntentCancel:
		s.ClearBooking()
		s.Phase = PhaseCollecting
		return replyCancelled, outcomeCancelled
	case IntentReserve:
		return e.promptFor(SlotService), outcomePrompt
	case IntentModify:
		return replyChange, outcomeSideIntent
	default:
		return replyFallback, outcomeSideIntent
	}
}

func (e *Engine) serviceList() string {
	var b strings.Builder
	b.WriteString("📋 Nuestros tratamientos:\n")
	for _, name := range e.catalog.Names() {
		fmt.Fprintf(&b, "• %s (%d min)\n", name, int(e.catalog.Duration(name).Minutes()))
	}
	b.WriteString("¿Cuál te interesa?")
	return b.String()
}

func (e *Engine) nextOpening(ctx context.Context) string {
	date, tod, found := e.avail.FindNextAvailable(ctx, nil, nil, catalog.DefaultDuration)
	if !found {
		return replyNoSlot
	}
	return fmt.Sprintf("🕐 El próximo hueco libre es el %s a las %s.", formatDate(date), tod)
}

// eventFromRequest materializes a confirmed reservation as a calendar event
// in the business timezone.
func (e *Engine) eventFromRequest(r BookingRequest, date temporal.Date, tod temporal.TimeOfDay, duration time.Duration) calendar.Event {
	start := date.At(tod, e.location)
	return calendar.Event{
		Start:       start,
		End:         start.Add(duration),
		Summary:     fmt.Sprintf("💆 %s - %s", r.Service, r.Name),
		Description: fmt.Sprintf("Reserva vía WhatsApp (%s)", r.ContactRef),
	}
}

func (e *Engine) parseSlots(s *Session) (temporal.Date, temporal.TimeOfDay, bool) {
	date, err := temporal.ParseDate(s.Slots.Date)
	if err != nil {
		return temporal.Date{}, temporal.TimeOfDay{}, false
	}
	tod, err := temporal.ParseTimeOfDay(s.Slots.Time)
	if err != nil {
		return temporal.Date{}, temporal.TimeOfDay{}, false
	}
	return date, tod, true
}

func formatDate(d temporal.Date) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}
