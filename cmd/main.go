/*
Package main is the entry point for the Stamp Rally server.

It is responsible for loading configuration, initializing the global logging system,
loading the question pool, starting the session coordinator, setting up the HTTP server,
and gracefully handling operating system interrupt signals (SIGINT, SIGTERM)
to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stamprally/internal/app/session"
	"stamprally/internal/app/storage"
	"stamprally/internal/configs"
	"stamprally/internal/handler"
	"stamprally/internal/pkg/logx"
)

func main() {
	// A missing .env file is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("questions_per_game", cfg.QuestionsPerGame).
		Bool("avatar_storage", cfg.AvatarStorageEnabled()).
		Msg("Configuration loaded successfully")

	questions, err := session.LoadQuestions(cfg.QuestionsFile, cfg.QuestionsPerGame)
	if err != nil {
		logx.Fatal(err, "Failed to load the question pool")
	}
	logx.Info("Question pool loaded", "questions", len(questions))

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wire the session coordinator
	store := session.NewStore(questions)
	registry := session.NewRegistry()
	notifier := session.NewNotifier(registry)
	handlers := session.NewHandlers(store, notifier, nil, cfg.QuestionsPerGame)
	coordinator := session.NewCoordinator(store, registry, notifier, handlers, cfg.SessionSecret)

	go coordinator.Run(ctx)

	deps := &handler.AppDeps{
		Coordinator: coordinator,
		Config:      cfg,
	}

	if cfg.AvatarStorageEnabled() {
		storageService, err := storage.NewStorageService(storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize avatar storage")
		}
		deps.StorageService = storageService
	}

	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Stamp Rally Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
