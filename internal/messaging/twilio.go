package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/healthup/dental-assistant/pkg/logging"
)

var twilioTracer = otel.Tracer("dental.internal.messaging.twilio")

const twilioSendAttempts = 3

// TwilioMessenger posts SMS messages through Twilio's REST API.
type TwilioMessenger struct {
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilioMessenger builds a messenger with a bounded HTTP client.
func NewTwilioMessenger(accountSID, authToken, defaultFrom string, logger *logging.Logger) *TwilioMessenger {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioMessenger{
		accountSID: accountSID,
		authToken:  authToken,
		from:       defaultFrom,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.WithComponent("twilio"),
	}
}

var _ ReplyMessenger = (*TwilioMessenger)(nil)

// SendReply chunks the body to the provider limit and sends the chunks in
// order. A failed chunk aborts the remainder so the caller never sees the
// tail of a reply without its head.
func (m *TwilioMessenger) SendReply(ctx context.Context, msg OutboundReply) error {
	if m.accountSID == "" || m.authToken == "" {
		return errors.New("messaging: twilio credentials missing")
	}
	if msg.To == "" {
		return errors.New("messaging: to required")
	}
	if msg.From == "" {
		msg.From = m.from
	}
	if msg.From == "" {
		return errors.New("messaging: from required")
	}
	chunks := SplitMessage(msg.Body, MaxChunkRunes)
	if len(chunks) == 0 {
		return errors.New("messaging: body required")
	}

	ctx, span := twilioTracer.Start(ctx, "messaging.twilio.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("dental.office_id", msg.OfficeID),
		attribute.String("dental.to", msg.To),
		attribute.Bool("dental.is_media", msg.IsMedia),
		attribute.Int("dental.chunks", len(chunks)),
	)

	for i, chunk := range chunks {
		if err := m.sendChunk(ctx, msg, chunk); err != nil {
			span.RecordError(err)
			return fmt.Errorf("messaging: chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	m.logger.Info("sms sent", "office_id", msg.OfficeID, "to", msg.To, "chunks", len(chunks))
	return nil
}

func (m *TwilioMessenger) sendChunk(ctx context.Context, msg OutboundReply, body string) error {
	payload := url.Values{}
	payload.Set("To", msg.To)
	payload.Set("From", msg.From)
	payload.Set("Body", body)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", m.accountSID)

	var lastErr error
	for attempt := 1; attempt <= twilioSendAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
		if err != nil {
			return err
		}
		req.SetBasicAuth(m.accountSID, m.authToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := m.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				if msg.Metadata != nil && len(respBody) > 0 {
					var parsed struct {
						SID    string `json:"sid"`
						Status string `json:"status"`
					}
					if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.SID != "" {
						msg.Metadata["provider_message_id"] = parsed.SID
						msg.Metadata["provider_status"] = parsed.Status
					}
				}
				return nil
			}
			lastErr = fmt.Errorf("twilio: %s", formatTwilioError(resp.StatusCode, respBody))
			// 4xx other than rate limiting will not heal on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return lastErr
			}
		}

		if attempt < twilioSendAttempts {
			time.Sleep(time.Duration(200+rand.Intn(300)) * time.Millisecond)
		}
	}
	return lastErr
}

type twilioAPIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func formatTwilioError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}
