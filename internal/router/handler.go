package router

import (
	"errors"
	"net/http"

	"github.com/healthup/dental-assistant/pkg/logging"
)

// InboundHandler accepts provider webhook posts and enqueues them for the
// pipeline. The provider retries non-2xx responses, so only validation
// failures return 400.
type InboundHandler struct {
	worker *Worker
	logger *logging.Logger
}

// NewInboundHandler wires the webhook to the worker's queue.
func NewInboundHandler(worker *Worker, logger *logging.Logger) *InboundHandler {
	if worker == nil {
		panic("router: worker cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &InboundHandler{worker: worker, logger: logger.WithComponent("webhook")}
}

// Inbound handles POST /webhooks/inbound.
func (h *InboundHandler) Inbound(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	env, err := ParseEnvelope(r.PostForm)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			h.logger.Warn("rejecting malformed webhook", "error", err)
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	jobID, err := h.worker.Enqueue(r.Context(), env)
	if err != nil {
		h.logger.Error("failed to enqueue inbound message", "error", err)
		http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
		return
	}

	h.logger.Info("inbound message accepted",
		"job_id", jobID,
		"provider_message_id", env.ProviderMessageID,
	)
	// Empty TwiML keeps the provider from sending its own auto-reply.
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Response></Response>`))
}
