package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hadasqueen/booking-assistant/internal/conversation"
	"github.com/hadasqueen/booking-assistant/pkg/logging"
)

type stubService struct {
	resp    conversation.Response
	err     error
	lastReq conversation.MessageRequest
}

func (s *stubService) HandleMessage(_ context.Context, req conversation.MessageRequest) (conversation.Response, error) {
	s.lastReq = req
	return s.resp, s.err
}

func postForm(t *testing.T, handler *Handler, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.HandleInbound(rec, req)
	return rec
}

func TestHandleInboundRepliesWithTwiML(t *testing.T) {
	service := &stubService{resp: conversation.Response{Text: "¡Hola! 👋"}}
	handler := NewHandler(service, "", "", logging.Default())

	rec := postForm(t, handler, url.Values{
		"From": {"whatsapp:+3466600001"},
		"Body": {"hola"},
	}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Errorf("content type = %q, want application/xml", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Response><Message>") || !strings.Contains(body, "¡Hola! 👋") {
		t.Errorf("unexpected TwiML body: %q", body)
	}
	if service.lastReq.SenderID != "whatsapp:+3466600001" {
		t.Errorf("sender = %q", service.lastReq.SenderID)
	}
}

func TestHandleInboundMissingFrom(t *testing.T) {
	handler := NewHandler(&stubService{}, "", "", logging.Default())

	rec := postForm(t, handler, url.Values{"Body": {"hola"}}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleInboundServiceErrorStillReplies(t *testing.T) {
	service := &stubService{err: context.DeadlineExceeded}
	handler := NewHandler(service, "", "", logging.Default())

	rec := postForm(t, handler, url.Values{
		"From": {"whatsapp:+3466600001"},
		"Body": {"hola"},
	}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 so Twilio does not retry", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Lo siento") {
		t.Errorf("expected apology reply, got %q", rec.Body.String())
	}
}

func TestHandleInboundSignatureValidation(t *testing.T) {
	const (
		authToken  = "secret-token"
		webhookURL = "https://salon.example/webhooks/whatsapp"
	)
	form := url.Values{
		"From": {"whatsapp:+3466600001"},
		"Body": {"hola"},
	}

	handler := NewHandler(&stubService{resp: conversation.Response{Text: "ok"}}, authToken, webhookURL, logging.Default())

	t.Run("missing signature is rejected", func(t *testing.T) {
		rec := postForm(t, handler, form, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("valid signature is accepted", func(t *testing.T) {
		payload := webhookURL + "Body" + "hola" + "From" + "whatsapp:+3466600001"
		sig := computeSignature(payload, authToken)

		rec := postForm(t, handler, form, map[string]string{"X-Twilio-Signature": sig})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("tampered body is rejected", func(t *testing.T) {
		payload := webhookURL + "Body" + "hola" + "From" + "whatsapp:+3466600001"
		sig := computeSignature(payload, authToken)

		tampered := url.Values{
			"From": {"whatsapp:+3466600001"},
			"Body": {"otra cosa"},
		}
		rec := postForm(t, handler, tampered, map[string]string{"X-Twilio-Signature": sig})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})
}
