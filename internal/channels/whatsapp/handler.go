// Package whatsapp receives Twilio WhatsApp webhooks and answers with TwiML,
// so the reply rides back on the webhook response without a separate send.
package whatsapp

import (
	"encoding/xml"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hadasqueen/booking-assistant/internal/conversation"
	"github.com/hadasqueen/booking-assistant/pkg/logging"
)

const replyApology = "Lo siento, ha ocurrido un error. Inténtalo de nuevo en unos minutos. 🙏"

// twiml is the Twilio messaging response envelope.
type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// Handler serves the inbound WhatsApp webhook.
type Handler struct {
	service    conversation.Service
	authToken  string
	webhookURL string
	logger     *logging.Logger
	tracer     trace.Tracer
}

// NewHandler creates the webhook handler. An empty authToken disables
// signature validation, for local development only.
func NewHandler(service conversation.Service, authToken, webhookURL string, logger *logging.Logger) *Handler {
	if service == nil {
		panic("whatsapp: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service:    service,
		authToken:  authToken,
		webhookURL: webhookURL,
		logger:     logger,
		tracer:     otel.Tracer("salon.internal.channels.whatsapp"),
	}
}

// HandleInbound processes one Twilio webhook POST. Twilio retries on non-2xx,
// so every user-level failure still answers 200 with an apology message.
func (h *Handler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "whatsapp.inbound")
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic while handling inbound message", "panic", rec)
			h.writeTwiML(w, replyApology)
		}
	}()

	if h.authToken != "" && !ValidateTwilioSignature(r, h.authToken, h.webhookURL) {
		h.logger.Warn("rejected webhook with invalid signature", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	msg, err := ParseInbound(r)
	if err != nil {
		h.logger.Warn("malformed webhook payload", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("whatsapp.from", msg.From))

	resp, err := h.service.HandleMessage(ctx, conversation.MessageRequest{
		SenderID: msg.From,
		Text:     msg.Body,
	})
	if err != nil {
		h.logger.Error("message handling failed", "sender", msg.From, "error", err)
		h.writeTwiML(w, replyApology)
		return
	}

	h.writeTwiML(w, resp.Text)
}

func (h *Handler) writeTwiML(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)

	body, err := xml.Marshal(twiml{Message: message})
	if err != nil {
		h.logger.Error("failed to encode TwiML response", "error", err)
		return
	}
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(body)
}
