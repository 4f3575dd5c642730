package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finpulse/finpulse/internal/api/handlers"
	"github.com/finpulse/finpulse/internal/api/middleware"
	"github.com/finpulse/finpulse/internal/archive"
	"github.com/finpulse/finpulse/internal/assistant"
	"github.com/finpulse/finpulse/internal/config"
	"github.com/finpulse/finpulse/internal/logger"
	"github.com/finpulse/finpulse/internal/provider"
	"github.com/finpulse/finpulse/internal/store"
	bqstore "github.com/finpulse/finpulse/internal/store/bigquery"
	"github.com/finpulse/finpulse/internal/store/memory"
	"github.com/finpulse/finpulse/internal/syncer"
)

func main() {
	configPath := flag.String("config", os.Getenv("FINPULSE_CONFIG"), "Path to config file (or set FINPULSE_CONFIG)")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Document store: BigQuery when a project is configured, in-memory
	// otherwise (local development).
	var docs store.DocumentStore
	if cfg.BigQuery.ProjectID != "" {
		bq, err := bqstore.NewStore(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery store")
		}
		defer bq.Close()
		docs = bq
	} else {
		log.Warn().Msg("No BigQuery project configured - using in-memory store")
		docs = memory.NewStore()
	}

	var archiver syncer.DeltaArchiver
	if cfg.Archive.Bucket != "" {
		aw, err := archive.NewWriter(ctx, cfg.Archive.Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create archive writer")
		}
		defer aw.Close()
		archiver = aw
	}

	source := provider.NewClient(
		cfg.Provider.BaseURL,
		cfg.Provider.ClientID,
		cfg.Provider.Secret,
		time.Duration(cfg.Provider.TimeoutSeconds)*time.Second,
	)
	coordinator := syncer.New(source, docs, archiver, log)

	gate := assistant.NewGate(cfg.Assistant.Keywords)
	asst := assistant.NewService(
		assistant.NewAssembler(gate),
		assistant.NewGeminiCompleter(cfg.Assistant.Model),
		log,
	)

	handler := handlers.New(coordinator, docs, asst, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	handler.Routes(r)

	server := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: r,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	done := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		close(done)
	}()

	log.Info().Str("port", cfg.HTTP.Port).Msg("Starting API server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed")
	}
	<-done
}
