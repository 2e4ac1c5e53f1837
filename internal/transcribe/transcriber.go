// Package transcribe turns inbound voice-note media into text so audio
// messages flow through the same pipeline as typed ones.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/healthup/dental-assistant/pkg/logging"
)

// Transcriber converts one media attachment into text.
type Transcriber interface {
	TranscribeMedia(ctx context.Context, mediaURL, mimeType string) (string, error)
}

// WhisperTranscriber downloads provider media and posts it to an
// OpenAI-compatible /audio/transcriptions endpoint.
type WhisperTranscriber struct {
	baseURL    string
	apiKey     string
	model      string
	mediaDir   string
	mediaUser  string
	mediaPass  string
	httpClient *http.Client
	logger     *logging.Logger
}

// Config carries the credentials for both halves of the job: fetching the
// media from the SMS provider and posting it to the transcription API.
type Config struct {
	BaseURL   string // defaults to the OpenAI API
	APIKey    string
	Model     string // defaults to whisper-1
	MediaDir  string // defaults to the system temp dir
	MediaUser string // provider basic-auth for the media fetch
	MediaPass string
}

// NewWhisper validates the config and builds the transcriber.
func NewWhisper(cfg Config, logger *logging.Logger) (*WhisperTranscriber, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("transcribe: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	if cfg.MediaDir == "" {
		cfg.MediaDir = os.TempDir()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WhisperTranscriber{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		mediaDir:   cfg.MediaDir,
		mediaUser:  cfg.MediaUser,
		mediaPass:  cfg.MediaPass,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger.WithComponent("transcribe"),
	}, nil
}

var _ Transcriber = (*WhisperTranscriber)(nil)

// TranscribeMedia fetches the attachment, stages it on disk, and returns
// the transcription as plain text.
func (t *WhisperTranscriber) TranscribeMedia(ctx context.Context, mediaURL, mimeType string) (string, error) {
	filename, err := t.fetchMedia(ctx, mediaURL, mimeType)
	if err != nil {
		return "", err
	}
	// Staged files are per-request scratch; a long-running worker must not
	// accumulate them.
	defer os.Remove(filename)

	text, err := t.transcribeFile(ctx, filename)
	if err != nil {
		return "", err
	}
	t.logger.Info("media transcribed", "media_url", mediaURL, "chars", len(text))
	return text, nil
}

func (t *WhisperTranscriber) fetchMedia(ctx context.Context, mediaURL, mimeType string) (string, error) {
	parsed, err := url.Parse(mediaURL)
	if err != nil {
		return "", fmt.Errorf("transcribe: bad media url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", fmt.Errorf("transcribe: build media request: %w", err)
	}
	if t.mediaUser != "" {
		req.SetBasicAuth(t.mediaUser, t.mediaPass)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: fetch media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcribe: fetch media: status %d", resp.StatusCode)
	}

	ext := extensionFor(mimeType)
	sid := path.Base(parsed.Path)
	filename := filepath.Join(t.mediaDir, sid+ext)

	out, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("transcribe: stage media: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("transcribe: stage media: %w", err)
	}
	return filename, nil
}

func (t *WhisperTranscriber) transcribeFile(ctx context.Context, filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("transcribe: open staged media: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if err := form.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if err := form.WriteField("response_format", "text"); err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: post audio: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("transcribe: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcribe: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}

func extensionFor(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
