package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/inbox-ledger/internal/domain"
)

const transactionsTable = "transactions"

// TransactionRow mirrors the <dataset>.transactions schema.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC
	Merchant        string     `bigquery:"merchant"`
	Type            string     `bigquery:"type"` // "Credit" | "Debit"
	Description     string     `bigquery:"description"`

	// SourceMessageID is provenance only; nothing deduplicates on it.
	SourceMessageID string `bigquery:"source_message_id"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// rowFromDomain maps a domain transaction onto its storage row. The id and
// created timestamp are filled in by Save.
func rowFromDomain(tx *domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionDate: tx.Date,
		Amount:          new(big.Rat).SetFloat64(tx.Amount),
		Merchant:        tx.Merchant,
		Type:            string(tx.Type),
		Description:     tx.Description,
		SourceMessageID: tx.MessageID,
	}
}

// toDomain maps a storage row back into the domain type. Amounts outside
// float64 range cannot occur here; NUMERIC precision loss is accepted on read.
func (r *TransactionRow) toDomain() *domain.Transaction {
	amount := 0.0
	if r.Amount != nil {
		amount, _ = r.Amount.Float64()
	}
	txType, _ := domain.ParseTxType(r.Type)
	return &domain.Transaction{
		ID:          r.TransactionID,
		Date:        r.TransactionDate,
		Amount:      amount,
		Merchant:    r.Merchant,
		Type:        txType,
		Description: r.Description,
		MessageID:   r.SourceMessageID,
	}
}
