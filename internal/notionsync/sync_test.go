package notionsync

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/dvloznov/inbox-ledger/internal/domain"
)

type fakeSource struct {
	txs []*domain.Transaction
}

func (f *fakeSource) ListByMonth(ctx context.Context, year int, month time.Month) ([]*domain.Transaction, error) {
	return f.txs, nil
}

type fakeNotion struct {
	existing []notionapi.Page
	created  []string // transaction ids of created pages
}

func (f *fakeNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	title := properties["Transaction ID"].(notionapi.TitleProperty)
	f.created = append(f.created, title.Title[0].Text.Content)
	return &notionapi.Page{ID: "page-new"}, nil
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: f.existing, HasMore: false}, nil
}

func pageWithTitle(txID string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID("page-" + txID),
		Properties: notionapi.Properties{
			"Transaction ID": &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: txID}},
			},
		},
	}
}

func tx(id string) *domain.Transaction {
	return &domain.Transaction{
		ID:     id,
		Date:   civil.Date{Year: 2025, Month: 6, Day: 3},
		Amount: 10,
		Type:   domain.TxTypeDebit,
	}
}

func TestSyncMonth_CreatesOnlyMissing(t *testing.T) {
	source := &fakeSource{txs: []*domain.Transaction{tx("a"), tx("b"), tx("c")}}
	notion := &fakeNotion{existing: []notionapi.Page{pageWithTitle("b")}}

	if err := SyncMonth(context.Background(), source, notion, "db", 2025, time.June, false); err != nil {
		t.Fatalf("SyncMonth failed: %v", err)
	}

	if len(notion.created) != 2 {
		t.Fatalf("created %d pages, want 2", len(notion.created))
	}
	for _, id := range notion.created {
		if id == "b" {
			t.Error("created a page for an already-synced transaction")
		}
	}
}

func TestSyncMonth_DryRunCreatesNothing(t *testing.T) {
	source := &fakeSource{txs: []*domain.Transaction{tx("a")}}
	notion := &fakeNotion{}

	if err := SyncMonth(context.Background(), source, notion, "db", 2025, time.June, true); err != nil {
		t.Fatalf("SyncMonth failed: %v", err)
	}
	if len(notion.created) != 0 {
		t.Errorf("dry run created %d pages, want 0", len(notion.created))
	}
}

func TestTransactionToNotionProperties(t *testing.T) {
	props := TransactionToNotionProperties(&domain.Transaction{
		ID:          "tx-1",
		Date:        civil.Date{Year: 2025, Month: 6, Day: 3},
		Amount:      250.5,
		Merchant:    "Unknown",
		Type:        domain.TxTypeDebit,
		Description: "Card alert",
	})

	title, ok := props["Transaction ID"].(notionapi.TitleProperty)
	if !ok || title.Title[0].Text.Content != "tx-1" {
		t.Errorf("Transaction ID property = %+v", props["Transaction ID"])
	}
	amount, ok := props["Amount"].(notionapi.NumberProperty)
	if !ok || amount.Number != 250.5 {
		t.Errorf("Amount property = %+v", props["Amount"])
	}
	sel, ok := props["Type"].(notionapi.SelectProperty)
	if !ok || sel.Select.Name != "Debit" {
		t.Errorf("Type property = %+v", props["Type"])
	}
	if _, ok := props["Date"]; !ok {
		t.Error("Date property missing")
	}
}
