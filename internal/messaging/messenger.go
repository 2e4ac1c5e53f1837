// Package messaging delivers assistant replies back to the caller over SMS.
// Long replies are split into provider-sized chunks before sending.
package messaging

import (
	"context"
	"strings"
	"unicode/utf8"
)

// MaxChunkRunes is the largest message body the SMS provider accepts in a
// single send.
const MaxChunkRunes = 1600

// OutboundReply is one reply addressed to a caller. IsMedia marks an
// exchange the caller opened with a voice note; the delivery adapter may
// hand such replies to a speech synthesizer instead of sending plain text.
type OutboundReply struct {
	OfficeID string
	To       string
	From     string
	Body     string
	IsMedia  bool
	Metadata map[string]string
}

// ReplyMessenger sends a reply, chunking internally when the body exceeds
// the provider limit.
type ReplyMessenger interface {
	SendReply(ctx context.Context, msg OutboundReply) error
}

// SplitMessage cuts body into chunks of at most max runes, preferring to
// break at a newline or space so words survive intact. A single word longer
// than max is cut mid-word.
func SplitMessage(body string, max int) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	if max <= 0 {
		max = MaxChunkRunes
	}
	if utf8.RuneCountInString(body) <= max {
		return []string{body}
	}

	var chunks []string
	runes := []rune(body)
	for len(runes) > 0 {
		if len(runes) <= max {
			chunks = append(chunks, strings.TrimSpace(string(runes)))
			break
		}
		cut := max
		for i := max; i > 0; i-- {
			if runes[i-1] == '\n' || runes[i-1] == ' ' {
				cut = i
				break
			}
		}
		chunk := strings.TrimSpace(string(runes[:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = runes[cut:]
	}
	return chunks
}
