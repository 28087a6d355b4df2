package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/inbox-ledger/internal/config"
	infraBQ "github.com/dvloznov/inbox-ledger/internal/infra/bigquery"
	"github.com/dvloznov/inbox-ledger/internal/logger"
	"github.com/dvloznov/inbox-ledger/internal/notionsync"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	year := flag.Int("year", 0, "Year to sync (required)")
	month := flag.Int("month", 0, "Month to sync, 1-12 (required)")
	notionToken := flag.String("notion-token", "", "Notion API token (defaults to NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (defaults to NOTION_DATABASE_ID)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *year < 2000 || *year > 2200 {
		log.Fatal().Msg("Error: --year is required and must be a four-digit year")
	}
	if *month < 1 || *month > 12 {
		log.Fatal().Msg("Error: --month is required and must be between 1 and 12")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *notionToken == "" {
		*notionToken = cfg.NotionToken
	}
	if *notionDBID == "" {
		*notionDBID = cfg.NotionDatabaseID
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token or NOTION_TOKEN is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id or NOTION_DATABASE_ID is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Int("year", *year).
		Int("month", *month).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	// Initialize BigQuery repository
	repo, err := infraBQ.NewTransactionRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	// Sync transactions
	if err := notionsync.SyncMonth(ctx, repo, notionClient, *notionDBID, *year, time.Month(*month), *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
