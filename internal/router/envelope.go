// Package router consumes inbound provider messages from a queue, resolves
// the office and contact, runs the role handler, and sends the reply.
package router

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError marks an envelope the pipeline must drop rather than
// retry: redelivering it will never make it parseable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("router: invalid envelope: %s %s", e.Field, e.Reason)
}

// Envelope is one inbound message as received from the SMS provider.
type Envelope struct {
	To                string `json:"to"`
	From              string `json:"from"`
	Body              string `json:"body"`
	ProviderMessageID string `json:"provider_message_id"`
	MediaURL          string `json:"media_url,omitempty"`
	MediaContentType  string `json:"media_content_type,omitempty"`
}

// HasMedia reports whether the message carries an attachment to transcribe.
func (e *Envelope) HasMedia() bool {
	return e.MediaURL != ""
}

// ParseEnvelope builds an Envelope from a provider webhook form. Channel
// scheme prefixes ("whatsapp:+55...") are stripped so the directory only
// ever sees bare numbers.
func ParseEnvelope(form url.Values) (*Envelope, error) {
	env := &Envelope{
		To:                stripScheme(form.Get("To")),
		From:              stripScheme(form.Get("From")),
		Body:              strings.TrimSpace(form.Get("Body")),
		ProviderMessageID: strings.TrimSpace(form.Get("MessageSid")),
		MediaURL:          strings.TrimSpace(form.Get("MediaUrl0")),
		MediaContentType:  strings.TrimSpace(form.Get("MediaContentType0")),
	}
	if env.To == "" {
		return nil, &ValidationError{Field: "To", Reason: "is required"}
	}
	if env.From == "" {
		return nil, &ValidationError{Field: "From", Reason: "is required"}
	}
	if env.ProviderMessageID == "" {
		return nil, &ValidationError{Field: "MessageSid", Reason: "is required"}
	}
	if env.Body == "" && env.MediaURL == "" {
		return nil, &ValidationError{Field: "Body", Reason: "or media is required"}
	}
	return env, nil
}

func stripScheme(addr string) string {
	addr = strings.TrimSpace(addr)
	if i := strings.IndexByte(addr, ':'); i >= 0 {
		addr = addr[i+1:]
	}
	return strings.TrimSpace(addr)
}
