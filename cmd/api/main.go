// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/trip-assistant/internal/config"
	"github.com/capitalize-ai/trip-assistant/internal/handler"
	"github.com/capitalize-ai/trip-assistant/internal/idempotency"
	"github.com/capitalize-ai/trip-assistant/internal/llm"
	natsclient "github.com/capitalize-ai/trip-assistant/internal/nats"
	"github.com/capitalize-ai/trip-assistant/internal/repository"
	"github.com/capitalize-ai/trip-assistant/internal/service"
	"github.com/capitalize-ai/trip-assistant/pkg/logger"
	"github.com/capitalize-ai/trip-assistant/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var (
		log *logger.Logger
		err error
	)
	if os.Getenv("ENV") == "development" {
		log, err = logger.NewDevelopment()
	} else {
		log, err = logger.New(cfg.LogLevel)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "trip-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open database
	db, err := repository.Open(ctx, repository.Config{
		Driver:       cfg.DatabaseDriver,
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
		log.Info("database schema applied")
	}

	turns := repository.NewTurnRepository(db)
	catalog := repository.NewCachedCatalog(repository.NewAttractionRepository(db), cfg.CatalogCacheTTL)
	trips := repository.NewTripRepository(db)

	// Connect to NATS when configured; events are best-effort
	var (
		natsClient *natsclient.Client
		events     service.EventPublisher
	)
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,

			Name:          cfg.NATSClientName,
			MaxReconnects: cfg.NATSMaxReconnects,
			ReconnectWait: cfg.NATSReconnectWait,
			StreamMaxAge:  cfg.NATSStreamMaxAge,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		events = streamManager
	} else {
		log.Info("NATS_URL not set, events disabled")
	}

	// Action deduplication
	var dedup idempotency.Store
	if cfg.RedisURL != "" {
		redisStore, err := idempotency.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisStore.Close()
		dedup = redisStore
	} else {
		dedup = idempotency.NewMemoryStore()
	}

	// Initialize LLM client
	llmOpts := llm.Options{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.LLMBaseURL}
	if llm.Provider(cfg.LLMProvider) == llm.ProviderAnthropic {
		llmOpts.APIKey = cfg.AnthropicAPIKey
	}
	llmClient, err := llm.NewClient(llm.Provider(cfg.LLMProvider), llmOpts)
	if err != nil {
		log.Fatal("failed to create LLM client", zap.Error(err))
	}

	// Initialize services
	builder := service.NewContextBuilder(turns, catalog, service.ContextConfig{
		HistoryWindow: cfg.HistoryWindow,
		CatalogLimit:  cfg.CatalogLimit,
		DefaultCity:   cfg.DefaultCity,
		DefaultDays:   cfg.DefaultDays,
	}, log)
	engine := service.NewDialogueEngine(llmClient, service.DialogueConfig{
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     cfg.LLMTimeout,
	}, log)
	materializer := service.NewTripMaterializer(catalog, trips, dedup, service.MaterializerConfig{
		CatalogLimit:  6,
		DefaultCity:   cfg.DefaultCity,
		DefaultDays:   cfg.DefaultDays,
		PublicBaseURL: cfg.PublicBaseURL,
		DedupTTL:      cfg.ActionDedupTTL,
	}, log)
	chatSvc := service.NewChatService(service.ChatDeps{
		Turns:        turns,
		Builder:      builder,
		Engine:       engine,
		Extractor:    service.TrailingJSONExtractor{},
		Materializer: materializer,
		TurnLogger:   service.NewTurnLogger(turns, events, log),
		Events:       events,
		Logger:       log,
	})

	// Create router
	router := handler.NewRouter(handler.RouterConfig{
		Chat:              handler.NewChatHandler(chatSvc, log),
		Health:            handler.NewHealthHandler(db, natsClient),
		Logger:            log,
		JWTSecret:         cfg.JWTSecret,
		CORSOrigins:       cfg.CORSOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
