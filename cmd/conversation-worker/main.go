package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/healthup/dental-assistant/cmd/mainconfig"
	"github.com/healthup/dental-assistant/internal/agents"
	"github.com/healthup/dental-assistant/internal/clock"
	appconfig "github.com/healthup/dental-assistant/internal/config"
	"github.com/healthup/dental-assistant/internal/conversation"
	"github.com/healthup/dental-assistant/internal/directory"
	"github.com/healthup/dental-assistant/internal/http/middleware"
	"github.com/healthup/dental-assistant/internal/messaging"
	"github.com/healthup/dental-assistant/internal/observability/metrics"
	"github.com/healthup/dental-assistant/internal/reports"
	"github.com/healthup/dental-assistant/internal/router"
	"github.com/healthup/dental-assistant/internal/scheduling"
	"github.com/healthup/dental-assistant/internal/transcribe"
	"github.com/healthup/dental-assistant/pkg/logging"
)

func main() {
	// Local development reads a .env file; deployments set real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" || cfg.GeminiAPIKey == "" {
		logger.Error("conversation worker requires DATABASE_URL and GEMINI_API_KEY")
		os.Exit(1)
	}

	clk, err := clock.New(cfg.OfficeTimezone)
	if err != nil {
		logger.Error("failed to load office timezone", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	dirRepo := directory.NewRepository(pool)
	resolver := directory.NewResolver(dirRepo)
	history := conversation.NewStore(pool, clk)
	schedRepo := scheduling.NewRepository(pool)
	reportsRepo := reports.NewRepository(pool)

	var locker scheduling.Locker
	var deduper router.Deduper
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		locker = scheduling.NewRedisSlotLocker(redisClient, cfg.SlotLockTTL)
		deduper = router.NewRedisDeduper(redisClient)
	}

	policy := scheduling.SlotPolicy{
		OpeningHour:    cfg.SlotOpeningHour,
		ClosingHour:    cfg.SlotClosingHour,
		Interval:       time.Duration(cfg.SlotIntervalMins) * time.Minute,
		ClosedWeekdays: cfg.SlotClosedWeekdays,
	}
	scheduler := scheduling.NewService(schedRepo, locker, policy, logger)
	dispatcher := agents.NewDispatcher(dirRepo, scheduler, reportsRepo, clk)

	engine, err := agents.NewGeminiEngine(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID, clk, logger)
	if err != nil {
		logger.Error("failed to create gemini engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	messenger := messaging.NewTwilioMessenger(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)

	routerMetrics := metrics.NewRouterMetrics(prometheus.DefaultRegisterer)
	engine.InstrumentTools(routerMetrics)

	opts := []router.WorkerOption{
		router.WithWorkerCount(cfg.WorkerCount),
		router.WithHistoryWindow(cfg.HistoryMaxMessages, cfg.HistoryMaxAge),
		router.WithMetrics(routerMetrics),
	}
	if deduper != nil {
		opts = append(opts, router.WithDeduper(deduper))
	}
	if cfg.TranscriptionAPIKey != "" {
		transcriber, err := transcribe.NewWhisper(transcribe.Config{
			BaseURL:   cfg.TranscriptionBaseURL,
			APIKey:    cfg.TranscriptionAPIKey,
			MediaDir:  cfg.MediaDir,
			MediaUser: cfg.TwilioAccountSID,
			MediaPass: cfg.TwilioAuthToken,
		}, logger)
		if err != nil {
			logger.Error("failed to create transcriber", "error", err)
			os.Exit(1)
		}
		opts = append(opts, router.WithTranscriber(transcriber))
	}

	// SQS in deployment, in-memory channel for local runs.
	var worker *router.Worker
	if cfg.UseMemoryQueue {
		worker = router.NewWorker(router.NewMemoryQueue(256), resolver, dispatcher, engine, history, messenger, logger, opts...)
	} else {
		awsConfig, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		queue := router.NewSQSQueue(sqs.NewFromConfig(awsConfig), cfg.InboundQueueURL)
		worker = router.NewWorker(queue, resolver, dispatcher, engine, history, messenger, logger, opts...)
	}

	worker.Start(ctx)

	webhook := router.NewInboundHandler(worker, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.With(middleware.RateLimit(5, 10)).Post("/webhooks/inbound", webhook.Inbound)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}

	logger.Info("shutting down conversation worker...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	cancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
		logger.Info("conversation worker stopped")
	case <-shutdownCtx.Done():
		logger.Error("conversation worker shutdown timed out", "error", shutdownCtx.Err())
	}
}
