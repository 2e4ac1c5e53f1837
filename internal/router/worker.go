package router

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/healthup/dental-assistant/internal/agents"
	"github.com/healthup/dental-assistant/internal/conversation"
	"github.com/healthup/dental-assistant/internal/directory"
	"github.com/healthup/dental-assistant/internal/messaging"
	"github.com/healthup/dental-assistant/internal/observability/metrics"
	"github.com/healthup/dental-assistant/internal/transcribe"
	"github.com/healthup/dental-assistant/pkg/logging"
)

// OfficeResolver locates the tenant for an inbound routing address.
type OfficeResolver interface {
	ResolveOffice(ctx context.Context, phone string) (*directory.Office, error)
	ResolveContact(ctx context.Context, officeID, phone string) (*directory.Contact, error)
}

// HistoryStore persists and replays conversation fragments.
type HistoryStore interface {
	Append(ctx context.Context, officeID, phone string, content []byte, providerMessageID string) (string, bool, error)
	LoadRecent(ctx context.Context, officeID, phone string, maxCount int, maxAge time.Duration) ([]conversation.Fragment, error)
}

// HandlerDispatcher selects the role handler for a resolved contact.
type HandlerDispatcher interface {
	Dispatch(office *directory.Office, contact *directory.Contact, phone string) *agents.Handler
}

// Worker consumes inbound messages and drives the conversation pipeline:
// dedup, office and contact resolution, optional transcription, handler
// dispatch, engine run, history append, reply send.
type Worker struct {
	queue       queueClient
	dedup       Deduper
	resolver    OfficeResolver
	dispatcher  HandlerDispatcher
	engine      agents.Engine
	history     HistoryStore
	messenger   messaging.ReplyMessenger
	transcriber transcribe.Transcriber
	metrics     *metrics.RouterMetrics
	logger      *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
	historyMaxCount  int
	historyMaxAge    time.Duration
	dedup            Deduper
	transcriber      transcribe.Transcriber
	metrics          *metrics.RouterMetrics
}

const (
	defaultWorkerCount = 2
	defaultWaitSeconds = 2
	defaultBatchSize   = 5
	maxWaitSeconds     = 20
	maxBatchSize       = 10

	defaultHistoryMaxCount = 10
	defaultHistoryMaxAge   = 24 * time.Hour
)

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the queue long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxBatchSize {
			size = maxBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// WithHistoryWindow bounds how much history is replayed per exchange.
func WithHistoryWindow(maxCount int, maxAge time.Duration) WorkerOption {
	return func(cfg *workerConfig) {
		if maxCount > 0 {
			cfg.historyMaxCount = maxCount
		}
		if maxAge > 0 {
			cfg.historyMaxAge = maxAge
		}
	}
}

// WithDeduper wires redelivery suppression.
func WithDeduper(d Deduper) WorkerOption {
	return func(cfg *workerConfig) {
		if d != nil {
			cfg.dedup = d
		}
	}
}

// WithTranscriber enables voice-note transcription.
func WithTranscriber(t transcribe.Transcriber) WorkerOption {
	return func(cfg *workerConfig) {
		cfg.transcriber = t
	}
}

// WithMetrics wires pipeline instrumentation.
func WithMetrics(m *metrics.RouterMetrics) WorkerOption {
	return func(cfg *workerConfig) {
		cfg.metrics = m
	}
}

// NewWorker constructs a queue consumer around the pipeline dependencies.
func NewWorker(
	queue queueClient,
	resolver OfficeResolver,
	dispatcher HandlerDispatcher,
	engine agents.Engine,
	history HistoryStore,
	messenger messaging.ReplyMessenger,
	logger *logging.Logger,
	opts ...WorkerOption,
) *Worker {
	if queue == nil {
		panic("router: queue cannot be nil")
	}
	if resolver == nil || dispatcher == nil || engine == nil || history == nil || messenger == nil {
		panic("router: pipeline dependencies cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
		historyMaxCount:  defaultHistoryMaxCount,
		historyMaxAge:    defaultHistoryMaxAge,
		dedup:            NoopDeduper{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		queue:       queue,
		dedup:       cfg.dedup,
		resolver:    resolver,
		dispatcher:  dispatcher,
		engine:      engine,
		history:     history,
		messenger:   messenger,
		transcriber: cfg.transcriber,
		metrics:     cfg.metrics,
		logger:      logger.WithComponent("router"),
		cfg:         cfg,
	}
}

// Enqueue publishes a parsed envelope for asynchronous processing.
func (w *Worker) Enqueue(ctx context.Context, env *Envelope) (string, error) {
	payload, body, err := encodePayload(queuePayload{Envelope: *env})
	if err != nil {
		return "", err
	}
	if err := w.queue.Send(ctx, body); err != nil {
		return "", err
	}
	return payload.ID, nil
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("router worker started", "worker_id", workerID)

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("router worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive inbound messages", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	started := time.Now()

	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("dropping undecodable inbound message", "error", err, "msg_id", msg.ID)
		w.metrics.ObserveInbound("dropped")
		w.deleteMessage(msg.ReceiptHandle)
		return
	}
	env := payload.Envelope

	handler, err := w.process(ctx, &env)
	status := "processed"
	switch {
	case err == nil:
		w.deleteMessage(msg.ReceiptHandle)
	case errors.As(err, new(*ValidationError)):
		// Malformed forever; retrying cannot help.
		w.logger.Warn("dropping invalid inbound message", "error", err, "job_id", payload.ID)
		status = "dropped"
		w.deleteMessage(msg.ReceiptHandle)
	case errors.Is(err, errDuplicate):
		status = "duplicate"
		w.deleteMessage(msg.ReceiptHandle)
	default:
		// Leave the message for redelivery. This delivery owns the dedup
		// marker, so drop it or the redelivery would be suppressed as a
		// duplicate and the message silently lost.
		if unmarkErr := w.dedup.Unmark(ctx, env.ProviderMessageID); unmarkErr != nil {
			w.logger.Error("failed to unmark message for retry", "error", unmarkErr, "provider_message_id", env.ProviderMessageID)
		}
		w.logger.Error("inbound message failed, leaving for retry",
			"error", err,
			"job_id", payload.ID,
			"provider_message_id", env.ProviderMessageID,
		)
		status = "retry"
	}

	w.metrics.ObserveInbound(status)
	if handler != "" {
		w.metrics.ObservePipelineLatency(handler, time.Since(started).Seconds())
	}
}

var errDuplicate = errors.New("router: duplicate message")

// process runs the pipeline for one envelope and returns the handler kind
// that served it, for instrumentation.
func (w *Worker) process(ctx context.Context, env *Envelope) (string, error) {
	first, err := w.dedup.MarkProcessed(ctx, env.ProviderMessageID)
	if err != nil {
		return "", err
	}
	if !first {
		w.logger.Info("skipping duplicate inbound message", "provider_message_id", env.ProviderMessageID)
		return "", errDuplicate
	}

	office, err := w.resolver.ResolveOffice(ctx, env.To)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return "", &ValidationError{Field: "To", Reason: "matches no office"}
		}
		return "", err
	}

	userText := env.Body
	if env.HasMedia() {
		if w.transcriber == nil {
			return "", &ValidationError{Field: "MediaUrl0", Reason: "transcription is not enabled"}
		}
		text, err := w.transcriber.TranscribeMedia(ctx, env.MediaURL, env.MediaContentType)
		if err != nil {
			return "", err
		}
		userText = text
	}

	contact, err := w.resolver.ResolveContact(ctx, office.ID, env.From)
	if err != nil && !errors.Is(err, directory.ErrNotFound) {
		return "", err
	}

	handler := w.dispatcher.Dispatch(office, contact, env.From)
	kind := string(handler.Kind)

	history, err := w.loadHistory(ctx, office.ID, env.From)
	if err != nil {
		return kind, err
	}

	result, err := w.engine.Run(ctx, agents.RunInput{
		System:   []string{handler.SystemPrompt},
		History:  history,
		UserText: userText,
		Tools:    handler.Tools,
	})
	if err != nil {
		w.metrics.ObserveHandlerRun(kind, "error")
		return kind, err
	}
	w.metrics.ObserveHandlerRun(kind, "ok")

	fragment, err := agents.EncodeFragment(result.Transcript)
	if err != nil {
		return kind, err
	}
	if _, inserted, err := w.history.Append(ctx, office.ID, env.From, fragment, env.ProviderMessageID); err != nil {
		return kind, err
	} else if !inserted {
		// A concurrent delivery beat us to the append; it owns the reply.
		w.logger.Info("fragment already persisted, suppressing reply", "provider_message_id", env.ProviderMessageID)
		return kind, errDuplicate
	}

	if err := w.messenger.SendReply(ctx, messaging.OutboundReply{
		OfficeID: office.ID,
		To:       env.From,
		From:     env.To,
		Body:     result.Reply,
		IsMedia:  env.HasMedia(),
	}); err != nil {
		w.metrics.ObserveReply("error")
		// The exchange is persisted; delivery failures must not replay the
		// whole pipeline.
		w.logger.Error("failed to send reply", "error", err, "office_id", office.ID, "to", env.From)
		return kind, nil
	}
	w.metrics.ObserveReply("sent")
	return kind, nil
}

func (w *Worker) loadHistory(ctx context.Context, officeID, phone string) ([]agents.Turn, error) {
	fragments, err := w.history.LoadRecent(ctx, officeID, phone, w.cfg.historyMaxCount, w.cfg.historyMaxAge)
	if err != nil {
		return nil, err
	}
	var turns []agents.Turn
	for _, f := range fragments {
		decoded, err := agents.DecodeFragment(f.Content)
		if err != nil {
			return nil, err
		}
		turns = append(turns, decoded...)
	}
	return turns, nil
}

func (w *Worker) deleteMessage(receiptHandle string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete queue message", "error", err)
	}
}
