package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/healthup/dental-assistant/pkg/logging"
)

func TestNewWhisper_RequiresAPIKey(t *testing.T) {
	if _, err := NewWhisper(Config{}, logging.Default()); err == nil {
		t.Fatal("expected an error without an api key")
	}
}

func TestTranscribeMedia(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("fake-ogg-bytes"))
	}))
	defer media.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("model") != "whisper-1" {
			t.Fatalf("unexpected model %q", r.FormValue("model"))
		}
		if r.FormValue("response_format") != "text" {
			t.Fatalf("unexpected response_format %q", r.FormValue("response_format"))
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		file.Close()
		w.Write([]byte("quero marcar uma consulta\n"))
	}))
	defer api.Close()

	mediaDir := t.TempDir()
	tr, err := NewWhisper(Config{
		BaseURL:   api.URL,
		APIKey:    "sk-test",
		MediaDir:  mediaDir,
		MediaUser: "AC123",
		MediaPass: "secret",
	}, logging.Default())
	if err != nil {
		t.Fatalf("NewWhisper: %v", err)
	}

	text, err := tr.TranscribeMedia(context.Background(), media.URL+"/Media/ME123", "audio/ogg")
	if err != nil {
		t.Fatalf("TranscribeMedia: %v", err)
	}
	if text != "quero marcar uma consulta" {
		t.Fatalf("unexpected transcription %q", text)
	}

	// The staged copy is scratch; it must not outlive the request.
	left, err := os.ReadDir(mediaDir)
	if err != nil {
		t.Fatalf("read media dir: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected staged media removed, found %d files", len(left))
	}
}

func TestTranscribeMedia_MediaFetchFailure(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer media.Close()

	tr, err := NewWhisper(Config{APIKey: "sk-test", MediaDir: t.TempDir()}, logging.Default())
	if err != nil {
		t.Fatalf("NewWhisper: %v", err)
	}
	_, err = tr.TranscribeMedia(context.Background(), media.URL+"/Media/MEgone", "audio/ogg")
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("expected a fetch failure, got %v", err)
	}
}
