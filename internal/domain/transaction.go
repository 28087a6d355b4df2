package domain

import (
	"strings"

	"cloud.google.com/go/civil"
)

// TxType is the direction of a transaction as reported by the classifier.
type TxType string

const (
	TxTypeCredit TxType = "Credit"
	TxTypeDebit  TxType = "Debit"
)

// ParseTxType maps a free-form type label to a TxType, case-insensitively.
// Anything other than Credit or Debit is rejected.
func ParseTxType(s string) (TxType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit":
		return TxTypeCredit, true
	case "debit":
		return TxTypeDebit, true
	default:
		return "", false
	}
}

// Transaction is one extracted financial transaction.
// ID is assigned by the store on save; MessageID records which mail message
// the record was extracted from (provenance only; extraction runs are not
// deduplicated, so two runs over the same mailbox produce duplicate rows).
type Transaction struct {
	ID          string     `json:"id"`
	Date        civil.Date `json:"date"`
	Amount      float64    `json:"amount"`
	Merchant    string     `json:"merchant"`
	Type        TxType     `json:"type"`
	Description string     `json:"description"`
	MessageID   string     `json:"message_id"`
}
