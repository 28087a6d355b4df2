package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/inbox-ledger/internal/domain"
	"github.com/dvloznov/inbox-ledger/internal/logger"
)

// TransactionSource provides the saved transactions to mirror.
type TransactionSource interface {
	ListByMonth(ctx context.Context, year int, month time.Month) ([]*domain.Transaction, error)
}

// SyncMonth mirrors one month of saved transactions into a Notion database.
// Pages are keyed by transaction id: transactions already present in Notion
// are skipped, missing ones are created. Nothing is updated or deleted.
// A failure on one page does not stop the sync.
func SyncMonth(ctx context.Context, source TransactionSource, notion NotionService, databaseID string, year int, month time.Month, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Int("year", year).
		Int("month", int(month)).
		Bool("dry_run", dryRun).
		Msg("Starting transaction sync to Notion")

	transactions, err := source.ListByMonth(ctx, year, month)
	if err != nil {
		return fmt.Errorf("SyncMonth: listing transactions: %w", err)
	}
	log.Info().Int("transaction_count", len(transactions)).Msg("Retrieved saved transactions")

	existing, err := queryAllPages(ctx, notion, databaseID)
	if err != nil {
		return fmt.Errorf("SyncMonth: querying Notion pages: %w", err)
	}

	existingIDs := make(map[string]bool)
	for _, page := range existing {
		if id := extractTransactionID(page); id != "" {
			existingIDs[id] = true
		}
	}

	var created, skipped int
	for _, tx := range transactions {
		if existingIDs[tx.ID] {
			skipped++
			continue
		}

		if dryRun {
			log.Info().Str("transaction_id", tx.ID).Msg("[DRY RUN] Would create Notion page")
			created++
			continue
		}

		page, err := notion.CreatePage(ctx, databaseID, TransactionToNotionProperties(tx))
		if err != nil {
			log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to create Notion page")
			continue
		}
		log.Info().
			Str("transaction_id", tx.ID).
			Str("page_id", string(page.ID)).
			Msg("Created Notion page")
		created++
	}

	log.Info().
		Int("created", created).
		Int("skipped", skipped).
		Int("total", len(transactions)).
		Msg("Notion sync finished")

	return nil
}

// queryAllPages pages through the whole database.
func queryAllPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	req := &notionapi.DatabaseQueryRequest{PageSize: 100}

	for {
		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			return pages, nil
		}
		req.StartCursor = notionapi.Cursor(resp.NextCursor)
	}
}
