package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/healthup/dental-assistant/pkg/logging"
)

func TestSplitMessage_ShortBodyStaysWhole(t *testing.T) {
	chunks := SplitMessage("See you soon!", MaxChunkRunes)
	if len(chunks) != 1 || chunks[0] != "See you soon!" {
		t.Fatalf("unexpected chunks %#v", chunks)
	}
}

func TestSplitMessage_Empty(t *testing.T) {
	if chunks := SplitMessage("   ", MaxChunkRunes); chunks != nil {
		t.Fatalf("expected nil for blank body, got %#v", chunks)
	}
}

func TestSplitMessage_BreaksAtWordBoundary(t *testing.T) {
	body := strings.Repeat("palavra ", 300) // ~2400 runes
	chunks := SplitMessage(body, MaxChunkRunes)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if utf8.RuneCountInString(c) > MaxChunkRunes {
			t.Fatalf("chunk %d exceeds limit: %d runes", i, utf8.RuneCountInString(c))
		}
		if strings.HasPrefix(c, " ") || strings.HasSuffix(c, " ") {
			t.Fatalf("chunk %d not trimmed: %q", i, c)
		}
	}
	rejoined := strings.Join(chunks, " ")
	if rejoined != strings.TrimSpace(body) {
		t.Fatal("chunks do not reassemble into the original body")
	}
}

func TestSplitMessage_HardCutWithoutSpaces(t *testing.T) {
	body := strings.Repeat("x", 3500)
	chunks := SplitMessage(body, MaxChunkRunes)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != MaxChunkRunes {
		t.Fatalf("expected a hard cut at the limit, got %d", len(chunks[0]))
	}
}

func TestTwilioMessenger_SendsEachChunk(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		bodies = append(bodies, r.PostFormValue("Body"))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"sid": "SM123", "status": "queued"})
	}))
	defer srv.Close()

	m := NewTwilioMessenger("AC123", "token", "+15550001111", logging.Default())
	m.httpClient = srv.Client()
	// Point the messenger at the test server by rewriting the endpoint via
	// a transport that redirects api.twilio.com.
	m.httpClient.Transport = rewriteHost(srv)

	meta := map[string]string{}
	err := m.SendReply(context.Background(), OutboundReply{
		OfficeID: "off-1",
		To:       "+15550002222",
		Body:     strings.Repeat("a ", 1200), // two chunks
		Metadata: meta,
	})
	if err != nil {
		t.Fatalf("SendReply failed: %v", err)
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(bodies))
	}
	if meta["provider_message_id"] != "SM123" {
		t.Fatalf("expected provider sid captured, got %#v", meta)
	}
}

func TestTwilioMessenger_ClientErrorDoesNotRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"code": 21211, "message": "Invalid 'To' number"})
	}))
	defer srv.Close()

	m := NewTwilioMessenger("AC123", "token", "+15550001111", logging.Default())
	m.httpClient = srv.Client()
	m.httpClient.Transport = rewriteHost(srv)

	err := m.SendReply(context.Background(), OutboundReply{To: "bogus", Body: "hi"})
	if err == nil {
		t.Fatal("expected an error for a rejected number")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt for a 400, got %d", calls)
	}
	if !strings.Contains(err.Error(), "21211") {
		t.Fatalf("expected the provider error code in %v", err)
	}
}

func TestTwilioMessenger_ValidatesInput(t *testing.T) {
	m := NewTwilioMessenger("AC123", "token", "", logging.Default())
	if err := m.SendReply(context.Background(), OutboundReply{Body: "hi"}); err == nil {
		t.Fatal("expected an error without a recipient")
	}
	if err := m.SendReply(context.Background(), OutboundReply{To: "+1555", Body: "hi"}); err == nil {
		t.Fatal("expected an error without a from number")
	}
	if err := m.SendReply(context.Background(), OutboundReply{To: "+1555", From: "+1556"}); err == nil {
		t.Fatal("expected an error without a body")
	}
}

// rewriteHost sends every request to the test server regardless of the URL
// the client built.
func rewriteHost(srv *httptest.Server) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		target := srv.URL + req.URL.Path
		clone := req.Clone(req.Context())
		u, err := clone.URL.Parse(target)
		if err != nil {
			return nil, err
		}
		clone.URL = u
		clone.Host = u.Host
		return http.DefaultTransport.RoundTrip(clone)
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
