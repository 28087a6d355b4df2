package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/inbox-ledger/internal/api/handlers"
	"github.com/dvloznov/inbox-ledger/internal/api/middleware"
	"github.com/dvloznov/inbox-ledger/internal/archive"
	"github.com/dvloznov/inbox-ledger/internal/config"
	"github.com/dvloznov/inbox-ledger/internal/extract"
	infraBQ "github.com/dvloznov/inbox-ledger/internal/infra/bigquery"
	"github.com/dvloznov/inbox-ledger/internal/logger"
	"github.com/dvloznov/inbox-ledger/internal/mail"
	"github.com/dvloznov/inbox-ledger/internal/runlog"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Mailbox access (runs the consent flow on first start)
	mailSvc, err := mail.NewGmailService(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile, cfg.MailPageSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gmail service")
	}

	// Transaction store
	store, err := infraBQ.NewTransactionRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction repository")
	}
	defer store.Close()

	// Optional raw-reply archive
	var replyArchive extract.ReplyArchiver
	if cfg.ArchiveBucket != "" {
		gcsArchive, err := archive.NewGCSArchive(ctx, cfg.ArchiveBucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create reply archive")
		}
		defer gcsArchive.Close()
		replyArchive = gcsArchive
	} else {
		log.Warn().Msg("No archive bucket configured - unparseable model replies will not be kept")
	}

	// Classifier and extraction pipeline
	classifier, err := extract.NewGeminiClassifier(ctx, extract.ClassifierConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	}, replyArchive, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create classifier")
	}

	extractor := extract.NewExtractor(mailSvc, store, classifier, cfg.AICallBudget, log)

	// Run history
	runs := runlog.NewMemoryStore()

	// Handlers
	messagesHandler := handlers.NewMessagesHandler(mailSvc, log)
	extractHandler := handlers.NewExtractHandler(extractor, runs, log)
	transactionsHandler := handlers.NewTransactionsHandler(store, log)
	runsHandler := handlers.NewRunsHandler(runs, log)

	// Router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			messagesHandler.ListMessageIDs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/messages/info", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			messagesHandler.ListMessageInfos(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/extract", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			extractHandler.TriggerExtraction(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			runsHandler.ListRuns(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
		if runID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Run ID is required")
			return
		}
		runsHandler.GetRun(w, r, runID)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
		// An extraction run blocks its request for the full run, so the
		// write timeout has to cover a whole budgeted pass.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
