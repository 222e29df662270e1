package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hadasqueen/booking-assistant/internal/api/router"
	"github.com/hadasqueen/booking-assistant/internal/availability"
	"github.com/hadasqueen/booking-assistant/internal/calendar"
	"github.com/hadasqueen/booking-assistant/internal/catalog"
	"github.com/hadasqueen/booking-assistant/internal/channels/whatsapp"
	appconfig "github.com/hadasqueen/booking-assistant/internal/config"
	"github.com/hadasqueen/booking-assistant/internal/conversation"
	"github.com/hadasqueen/booking-assistant/internal/observability/metrics"
	"github.com/hadasqueen/booking-assistant/internal/temporal"
	"github.com/hadasqueen/booking-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	location, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		logger.Error("invalid business timezone, falling back to UTC",
			"timezone", cfg.BusinessTimezone, "error", err)
		location = time.UTC
	}

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	store := buildSessionStore(cfg, logger)
	backend := buildCalendarBackend(cfg, logger)
	oracle := buildOracle(cfg, logger)
	transcripts := buildTranscriptStore(cfg, logger)

	cat := catalog.Default()
	avail := availability.New(backend, availability.Config{
		OpenHour:      cfg.BusinessOpenHour,
		CloseHour:     cfg.BusinessCloseHour,
		ClosedWeekday: cfg.ClosedWeekday,
		HorizonDays:   cfg.SearchHorizonDays,
		Step:          cfg.SearchStep,
		Location:      location,
	}, logger.Component("availability"), bookingMetrics)

	engine := conversation.NewEngine(conversation.Deps{
		Oracle:       oracle,
		Catalog:      cat,
		Extractor:    conversation.NewExtractor(cat, temporal.NewResolver()),
		Availability: avail,
		Backend:      backend,
		Store:        store,
		Transcripts:  transcripts,
		Location:     location,
		Logger:       logger.Component("dialogue"),
		Metrics:      bookingMetrics,
	})

	preloadCtx, preloadCancel := context.WithTimeout(context.Background(), 10*time.Second)
	restored := engine.Preload(preloadCtx)
	preloadCancel()
	if restored > 0 {
		logger.Info("sessions restored", "count", restored)
	}

	dispatcher := buildDispatcher(cfg, engine, logger)

	webhookURL := strings.TrimRight(cfg.PublicBaseURL, "/") + "/webhooks/whatsapp"
	whatsappHandler := whatsapp.NewHandler(dispatcher, cfg.TwilioWebhookSecret, webhookURL,
		logger.Component("whatsapp"))

	r := router.New(&router.Config{
		Logger:          logger,
		WhatsAppHandler: whatsappHandler,
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := dispatcher.Shutdown(ctx); err != nil {
		logger.Error("orchestrator forced to shutdown", "error", err)
	}
	if closer, ok := transcripts.(*conversation.PostgresTranscriptStore); ok && closer != nil {
		_ = closer.Close()
	}

	logger.Info("server stopped")
}

func buildSessionStore(cfg *appconfig.Config, logger *logging.Logger) conversation.SessionStore {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, sessions held in process memory only")
		return conversation.NewMemoryStore()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("redis unreachable, sessions held in process memory only",
			"addr", cfg.RedisAddr, "error", err)
		return conversation.NewMemoryStore()
	}

	logger.Info("session store connected", "addr", cfg.RedisAddr)
	return conversation.NewRedisStore(client, logger.Component("sessions"))
}

func buildCalendarBackend(cfg *appconfig.Config, logger *logging.Logger) calendar.Backend {
	if cfg.GoogleCredentialsJSON == "" {
		logger.Warn("GOOGLE_CREDENTIALS_JSON not set, using in-memory calendar")
		return calendar.NewFakeBackend()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CalendarRequestTimeout)
	defer cancel()
	backend, err := calendar.NewGoogleBackend(ctx, []byte(cfg.GoogleCredentialsJSON),
		cfg.GoogleCalendarID, cfg.BusinessTimezone)
	if err != nil {
		logger.Error("google calendar init failed, using in-memory calendar", "error", err)
		return calendar.NewFakeBackend()
	}

	logger.Info("google calendar connected", "calendar_id", cfg.GoogleCalendarID)
	return backend
}

func buildOracle(cfg *appconfig.Config, logger *logging.Logger) conversation.Oracle {
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, slot extraction is regex-only")
		return &conversation.StaticOracle{}
	}
	return conversation.NewOpenAIOracle(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OracleTimeout,
		logger.Component("oracle"))
}

func buildTranscriptStore(cfg *appconfig.Config, logger *logging.Logger) conversation.TranscriptStore {
	if cfg.DatabaseURL == "" {
		return nil
	}

	store, err := conversation.NewPostgresTranscriptStore(cfg.DatabaseURL)
	if err != nil {
		logger.Error("transcript store init failed, archiving disabled", "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("transcript schema setup failed, archiving disabled", "error", err)
		return nil
	}

	logger.Info("transcript archive connected")
	return store
}

// buildDispatcher wraps the engine in the queue-backed orchestrator. SQS is
// used when a queue URL is configured; otherwise work dispatches through the
// in-process queue.
func buildDispatcher(cfg *appconfig.Config, engine *conversation.Engine, logger *logging.Logger) *conversation.Orchestrator {
	orchLogger := logger.Component("orchestrator")

	if cfg.UseMemoryQueue || cfg.ConversationQueueURL == "" {
		return conversation.NewOrchestrator(engine, conversation.NewMemoryQueue(128), orchLogger,
			conversation.WithWorkerCount(cfg.WorkerCount))
	}

	awsCfg, err := loadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("AWS config load failed, falling back to in-process queue", "error", err)
		return conversation.NewOrchestrator(engine, conversation.NewMemoryQueue(128), orchLogger,
			conversation.WithWorkerCount(cfg.WorkerCount))
	}

	queue := conversation.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.ConversationQueueURL)
	logger.Info("dispatching through SQS", "queue_url", cfg.ConversationQueueURL)
	return conversation.NewOrchestrator(engine, queue, orchLogger,
		conversation.WithWorkerCount(cfg.WorkerCount))
}

// loadAWSConfig centralizes AWS SDK initialization so LocalStack and
// production share the same wiring.
func loadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}

	if endpoint := cfg.AWSEndpointOverride; endpoint != "" {
		awsCfg.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
			func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
				if service == sqs.ServiceID {
					return aws.Endpoint{
						URL:           endpoint,
						PartitionID:   "aws",
						SigningRegion: cfg.AWSRegion,
					}, nil
				}
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			},
		)
	}

	return awsCfg, nil
}
