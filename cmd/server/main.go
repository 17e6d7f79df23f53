package main

import (
	"chat-relay/auth"
	"chat-relay/infrastructure/http/server"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/search"
	"chat-relay/services"
	"chat-relay/session"
	"chat-relay/storage"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run owns every resource so that deferred cleanups execute before the exit code is returned.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	config, err := internal.Load()
	if err != nil {
		return exitConfig, err
	}
	replacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage: badger, bluge and the attachment directory
	db, err := repositories.OpenBadger(config.BadgerFilepath, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if config.InspectorPort > 0 {
		logger.Info("Badger inspector available", "url", fmt.Sprintf("http://localhost:%d/inspect", config.InspectorPort))
		database.StartDebugServer(db, config.InspectorPort, "/inspect", repositories.InspectMapper)
	}

	index, err := search.OpenIndex(config.BlugeFilepath, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = index.Close()
	}()

	store, err := storage.NewDiskStore(config.ContentDir, config.MaxUploadSize, logger)
	if err != nil {
		return exitRuntime, err
	}

	censorer, err := buildCensorer(config.EnableModeration, replacement, logger)
	if err != nil {
		return exitRuntime, err
	}

	// 3. Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(promRegistry)

	// 4. Delivery core
	users := repositories.NewUserRepository(db)
	messages := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	groups := repositories.NewGroupRepository(db)
	registry := runtime.NewRegistry(config.RegistryShards)
	router := runtime.NewRouter(logger, registry, groups, metrics)
	tokens := auth.NewTokenService(config.JWTSecret, config.AuthTokenDuration)
	gateway := session.NewGateway(logger, registry, tokens, metrics, config.ConnectionBufferSize, config.Origins())

	// 5. Background workers
	clock := clockwork.NewRealClock()
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	var sampler workers.ProcessSampler
	if self, err := workers.NewSelfSampler(); err != nil {
		logger.Warn("Process stats unavailable", "error", err)
	} else {
		sampler = self
	}
	supervisor.Add(
		workers.NewTelemetryWorker(logger, clock, registry, metrics, sampler, config.MetricInterval),
		workers.NewStorageGCWorker(logger, clock, db, config.GCInterval),
	)
	supervisorDone := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(supervisorDone)
	}()

	// 6. HTTP boundary
	httpServer := server.NewServer(logger, tokens, server.Services{
		Auth:   services.NewAuthService(logger, users, tokens),
		Chat:   services.NewChatService(logger, users, messages, groups, index, router, censorer, metrics, config.MaxContentLength),
		Groups: services.NewGroupService(logger, users, groups),
		Files:  services.NewFileService(logger, store),
	}, gateway, registry, promRegistry, config.MaxUploadSize)

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Start(config.Address())
	}()

	// 7. Wait for Stop or Error
	code := exitOK
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err = <-errChan:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
			code = exitRuntime
		}
	}

	// 8. Graceful shutdown: live channels are hijacked, so they are closed explicitly
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	gateway.CloseAll()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("HTTP shutdown failed", "error", shutdownErr)
	}
	supervisor.Stop()
	<-supervisorDone
	logger.Info("Program stopped cleanly")

	return code, err
}

func buildCensorer(enabled bool, replacement rune, logger *slog.Logger) (moderation.Censorer, error) {
	if !enabled {
		logger.Info("Moderation disabled")
		return moderation.Noop{}, nil
	}
	dictionary, err := moderation.LoadDictionary()
	if err != nil {
		return nil, fmt.Errorf("loading censored words: %w", err)
	}
	logger.Info("Moderation enabled", "words", len(dictionary.Words), "languages", dictionary.Languages)
	return moderation.NewModerator(dictionary.Words, replacement, logger)
}
