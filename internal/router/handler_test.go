package router

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/healthup/dental-assistant/internal/directory"
	"github.com/healthup/dental-assistant/pkg/logging"
)

func newWebhookFixture(t *testing.T) (*InboundHandler, *MemoryQueue) {
	t.Helper()
	queue := NewMemoryQueue(8)
	w := NewWorker(
		queue,
		&stubResolver{office: &directory.Office{ID: "off-1"}},
		&stubDispatcher{handler: appointmentStubHandler()},
		&stubEngine{reply: "ola"},
		&stubHistory{inserted: true},
		&stubMessenger{},
		logging.Default(),
	)
	return NewInboundHandler(w, logging.Default()), queue
}

func postForm(t *testing.T, h *InboundHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/inbound", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Inbound(rec, req)
	return rec
}

func TestInboundHandler_AcceptsAndEnqueues(t *testing.T) {
	h, queue := newWebhookFixture(t)

	form := url.Values{}
	form.Set("To", "+5511999990000")
	form.Set("From", "whatsapp:+5511888880000")
	form.Set("Body", "oi")
	form.Set("MessageSid", "SM200")

	rec := postForm(t, h, form)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "<Response>") {
		t.Fatalf("expected empty TwiML, got %q", rec.Body.String())
	}

	msgs, err := queue.Receive(t.Context(), 1, 0)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("expected one enqueued message, got %v %v", msgs, err)
	}
}

func TestInboundHandler_RejectsMalformed(t *testing.T) {
	h, queue := newWebhookFixture(t)

	form := url.Values{}
	form.Set("From", "+5511888880000")
	form.Set("Body", "oi")

	rec := postForm(t, h, form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(queue.ch) != 0 {
		t.Fatal("malformed webhook must not be enqueued")
	}
}
