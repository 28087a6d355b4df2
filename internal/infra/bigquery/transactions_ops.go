package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/inbox-ledger/internal/domain"
)

// TransactionRepository persists extracted transactions in BigQuery. It
// holds a shared client to avoid reconnecting per operation.
type TransactionRepository struct {
	client  *bigquery.Client
	dataset string
}

// NewTransactionRepository creates a repository against the given project and
// dataset using Application Default Credentials.
func NewTransactionRepository(ctx context.Context, projectID, datasetID string) (*TransactionRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewTransactionRepository: creating client: %w", err)
	}
	return &TransactionRepository{
		client:  client,
		dataset: datasetID,
	}, nil
}

// Close closes the underlying BigQuery client.
func (r *TransactionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Save inserts one transaction via the streaming inserter and returns a copy
// carrying the assigned id. Records are never updated or deleted afterwards.
func (r *TransactionRepository) Save(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	row := rowFromDomain(tx)
	row.TransactionID = uuid.NewString()
	row.CreatedTS = time.Now()

	inserter := r.client.Dataset(r.dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return nil, fmt.Errorf("Save: inserting row: %w", err)
	}

	saved := *tx
	saved.ID = row.TransactionID
	return &saved, nil
}

// ListByMonth returns all transactions whose date falls in the given
// year-month, oldest first.
func (r *TransactionRepository) ListByMonth(ctx context.Context, year int, month time.Month) ([]*domain.Transaction, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			transaction_date,
			amount,
			merchant,
			type,
			description,
			source_message_id,
			created_ts
		FROM %s.%s
		WHERE EXTRACT(YEAR FROM transaction_date) = @year
		  AND EXTRACT(MONTH FROM transaction_date) = @month
		ORDER BY transaction_date, created_ts
	`, r.dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "year", Value: int64(year)},
		{Name: "month", Value: int64(month)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListByMonth: query read: %w", err)
	}

	var txs []*domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListByMonth: iter next: %w", err)
		}
		txs = append(txs, row.toDomain())
	}

	return txs, nil
}
