package router

import (
	"errors"
	"net/url"
	"testing"
)

func TestParseEnvelope_StripsChannelScheme(t *testing.T) {
	form := url.Values{}
	form.Set("To", "whatsapp:+5511999990000")
	form.Set("From", "whatsapp:+5511888880000")
	form.Set("Body", "quero marcar uma consulta")
	form.Set("MessageSid", "SM001")

	env, err := ParseEnvelope(form)
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}
	if env.To != "+5511999990000" {
		t.Fatalf("expected scheme stripped from To, got %q", env.To)
	}
	if env.From != "+5511888880000" {
		t.Fatalf("expected scheme stripped from From, got %q", env.From)
	}
}

func TestParseEnvelope_MediaOnlyIsValid(t *testing.T) {
	form := url.Values{}
	form.Set("To", "+5511999990000")
	form.Set("From", "+5511888880000")
	form.Set("MessageSid", "SM002")
	form.Set("MediaUrl0", "https://api.twilio.com/Media/ME123")
	form.Set("MediaContentType0", "audio/ogg")

	env, err := ParseEnvelope(form)
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}
	if !env.HasMedia() {
		t.Fatal("expected HasMedia for a voice note")
	}
}

func TestParseEnvelope_Malformed(t *testing.T) {
	cases := []struct {
		name  string
		unset string
	}{
		{"missing to", "To"},
		{"missing from", "From"},
		{"missing sid", "MessageSid"},
		{"missing body and media", "Body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := url.Values{}
			form.Set("To", "+5511999990000")
			form.Set("From", "+5511888880000")
			form.Set("Body", "oi")
			form.Set("MessageSid", "SM003")
			form.Del(tc.unset)

			_, err := ParseEnvelope(form)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected a ValidationError, got %v", err)
			}
		})
	}
}
