package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/healthup/dental-assistant/internal/ids"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

type queuePayload struct {
	ID       string   `json:"id"`
	Envelope Envelope `json:"envelope"`
}

func encodePayload(payload queuePayload) (queuePayload, string, error) {
	if payload.ID == "" {
		payload.ID = ids.New()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return queuePayload{}, "", fmt.Errorf("router: encode payload: %w", err)
	}
	return payload, string(body), nil
}
