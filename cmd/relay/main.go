package main

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/infrastructure/grpc/server"
	"chat-relay/infrastructure/storage"
	"chat-relay/infrastructure/translator"
	"chat-relay/infrastructure/websocket"
	"chat-relay/internal"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and owns the lifecycle so that defers always execute.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Directory (Badger + Bluge, or Postgres)
	directory, closeDirectory, err := internal.OpenDirectory(ctx, config, logger, func(db *badger.DB) {
		if logger.Enabled(ctx, slog.LevelDebug) {
			endpoint := "/inspect"
			url := fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint)
			logger.Info("Debug Badger inspector available", "url", url)
			database.StartDebugServer(db, config.DebugPort, endpoint, storage.InspectMapper)
		}
	})
	defer closeDirectory()
	if err != nil {
		return exitRuntime, err
	}

	// 3. Translation backend
	var translation contract.Translator = translator.Disabled{}
	if config.TranslatorBackend == internal.TranslatorOpenAI {
		translation, err = translator.NewOpenAI(logger, config.OpenAIApiKey, config.OpenAIBaseURL, config.OpenAIModel)
		if err != nil {
			return exitConfig, err
		}
	} else {
		logger.Warn("Translation disabled, every message is relayed untranslated")
	}

	// 4. Supervision & Orchestration
	telemetryChan := make(chan event.Event, config.BufferSize)
	sup := workers.NewSupervisor(logger, telemetryChan, config.RestartInterval)
	registry := runtime.NewRegistry()
	stats := observability.NewRelayStats(logger)
	normalizer := domain.NewLanguageNormalizer(domain.Language(config.DefaultLanguage), config.Languages())

	orchestrator := runtime.NewOrchestrator(logger, sup, registry, directory, translation, normalizer,
		telemetryChan, stats, runtime.Settings{
			MaxMessageLength:     config.MaxMessageLength,
			TranslationWorkers:   config.TranslationWorkers,
			TranslationTimeout:   config.TranslationTimeout,
			SkipSameLanguage:     config.SkipSameLanguage,
			DeliveryTimeout:      config.DeliveryTimeout,
			LookupConcurrency:    config.LookupConcurrency,
			InboxSize:            config.InboxSize,
			BufferSize:           config.BufferSize,
			MetricInterval:       config.MetricInterval,
			LatencyThreshold:     config.LatencyThreshold,
			LowCapacityThreshold: config.LowCapacityThreshold,
			CensorEnabled:        config.CensorEnabled,
			CensoredWordsDir:     config.CensoredWordsDir,
			CharReplacement:      charReplacement,
		})

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 3)

	go func() {
		logger.Info("Starting orchestrator...")
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
		}
	}()

	// 6. WebSocket relay
	issuer := auth.NewTokenIssuer(config.JwtSecret, config.AuthTokenDuration)
	wsServer := websocket.NewServer(logger, services.NewChatService(orchestrator), config.ConnectionBufferSize,
		config.WriteTimeout, config.PingInterval, config.MaxMessageLength)
	mux := http.NewServeMux()
	mux.Handle(websocket.Path, wsServer.Handler(auth.NewJWTAuthenticator(issuer)))
	mux.Handle("GET /api/monitoring", server.MonitoringHandler(stats))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Starting WebSocket server", "address", httpServer.Addr, "path", websocket.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. gRPC admin surface
	address := fmt.Sprintf("%s:%d", config.Host, config.GrpcPort)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(grpc3.UnaryLoggingInterceptor(logger)))
	healthServer := server.NewHealthServer(logger)
	healthServer.Register(s)
	go func() {
		logger.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	healthServer.Serving()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 9. Graceful shutdown: stop admitting, close sockets, then drain workers
	logger.Info("Shutting down gracefully...")
	healthServer.Draining()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	wsServer.Shutdown()
	s.GracefulStop()
	orchestrator.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}
