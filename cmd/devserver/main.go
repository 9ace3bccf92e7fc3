// Command devserver is a local stand-in for the EventHub backend. It serves
// the same HTTP API the eventhub client consumes, backed by memory or by
// PostgreSQL when DB_HOST is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventhub/internal/database"
	"github.com/Shivanand-hulikatti/eventhub/internal/handler"
	"github.com/Shivanand-hulikatti/eventhub/internal/logging"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
	"github.com/Shivanand-hulikatti/eventhub/internal/service"
)

func main() {
	logger := logging.New(getEnv("LOG_LEVEL", "info"))
	if err := run(logger); err != nil {
		logger.WithError(err).Fatal("devserver failed")
	}
}

func run(logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Pick a store ──────────────────────────────────────────────────
	var store repository.Store
	if database.Enabled() {
		cfg := database.ConfigFromEnv()
		pool, err := database.NewPool(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.WithField("host", cfg.Host).Info("connected to PostgreSQL")
		store = repository.NewPostgresStore(pool)
	} else {
		logger.Info("DB_HOST not set, using in-memory store")
		store = repository.NewMemoryStore()
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	authSvc := service.NewAuthService(store, logger)
	eventSvc := service.NewEventService(store, logger)
	uploads := service.NewUploadService(getEnv("UPLOAD_DIR", "./uploads"))
	eventHandler := handler.NewEventHandler(authSvc, eventSvc, uploads, logger)

	var origins []string
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
	}
	router := handler.NewRouter(eventHandler, logger, origins)

	// ── 3. Start server with graceful shutdown ───────────────────────────
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("server listening on http://localhost:%s/api", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
