package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/inbox-ledger/internal/archive"
	"github.com/dvloznov/inbox-ledger/internal/config"
	"github.com/dvloznov/inbox-ledger/internal/extract"
	infraBQ "github.com/dvloznov/inbox-ledger/internal/infra/bigquery"
	"github.com/dvloznov/inbox-ledger/internal/logger"
	"github.com/dvloznov/inbox-ledger/internal/mail"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	budget := flag.Int("budget", 0, "Override the model call budget for this run (0 = configured default)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *budget > 0 {
		cfg.AICallBudget = *budget
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	mailSvc, err := mail.NewGmailService(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile, cfg.MailPageSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gmail service")
	}

	store, err := infraBQ.NewTransactionRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction repository")
	}
	defer store.Close()

	var replyArchive extract.ReplyArchiver
	if cfg.ArchiveBucket != "" {
		gcsArchive, err := archive.NewGCSArchive(ctx, cfg.ArchiveBucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create reply archive")
		}
		defer gcsArchive.Close()
		replyArchive = gcsArchive
	}

	classifier, err := extract.NewGeminiClassifier(ctx, extract.ClassifierConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	}, replyArchive, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create classifier")
	}

	extractor := extract.NewExtractor(mailSvc, store, classifier, cfg.AICallBudget, log)

	log.Info().Int("budget", cfg.AICallBudget).Msg("Starting extraction run")

	report, err := extractor.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Extraction run failed")
	}

	log.Info().
		Int("listed", report.Listed).
		Int("examined", report.Examined).
		Int("calls_used", report.CallsUsed).
		Int("saved", report.Saved).
		Msg("Extraction run completed")

	fmt.Println(report.String())
}
