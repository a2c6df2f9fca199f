package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/GeorgePPP/bill-splitter/internal/config"
	"github.com/GeorgePPP/bill-splitter/internal/extract"
	"github.com/GeorgePPP/bill-splitter/internal/extract/openai"
	"github.com/GeorgePPP/bill-splitter/internal/extract/tesseract"
	"github.com/GeorgePPP/bill-splitter/internal/metrics"
	"github.com/GeorgePPP/bill-splitter/internal/middleware"
	"github.com/GeorgePPP/bill-splitter/internal/service"
	"github.com/GeorgePPP/bill-splitter/internal/storage/sqlite"
	"github.com/GeorgePPP/bill-splitter/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(getEnv("CONFIG_PATH", ""))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup structured logging
	level, _ := logging.ParseLevel(cfg.Log.Level) // validated by config.Load
	logging.SetupJSON(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	var pipeline *extract.Pipeline
	if cfg.ExtractionEnabled() {
		ocr := tesseract.New(cfg.OCR.Language, cfg.OCR.TessdataPrefix, runtime.NumCPU())
		llm := openai.New(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Timeout:     cfg.OpenAI.Timeout,
		})
		pipeline = extract.NewPipeline(ocr, llm)
		slog.Info("Receipt extraction enabled", "model", cfg.OpenAI.Model, "ocr_language", cfg.OCR.Language)
	} else {
		slog.Warn("Receipt extraction disabled: openai.api_key is not set")
	}

	m := metrics.New()
	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()

	// Register Connect services
	mux.Handle(service.NewReceiptServiceHandler(
		service.NewReceiptService(store, pipeline, cfg.Upload.MaxFileSize, m), interceptors))
	mux.Handle(service.NewSplitServiceHandler(
		service.NewSplitService(store, store, m), interceptors))
	mux.Handle(service.NewSessionServiceHandler(
		service.NewSessionService(store, cfg.Session.TTL), interceptors))

	mux.Handle("/health", service.HealthHandler(store, cfg.ExtractionEnabled()))
	mux.Handle("/metrics", m.Handler())

	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedOrigins)(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go service.SweepExpiredSessions(ctx, store, cfg.Session.SweepInterval)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return <-errCh
}
