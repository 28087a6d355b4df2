package extract

import (
	"regexp"
	"strings"
)

// transactionKeywords is the fixed vocabulary of transaction-related words.
// Matching is against whole tokens, never substrings, so "cardigan" does not
// match "card".
var transactionKeywords = map[string]struct{}{
	"transaction": {},
	"credited":    {},
	"debited":     {},
	"spent":       {},
	"paid":        {},
	"received":    {},
	"purchase":    {},
	"payment":     {},
	"transferred": {},
	"withdrawal":  {},
	"deposit":     {},
	"billed":      {},
	"order":       {},
	"upi":         {},
	"imps":        {},
	"neft":        {},
	"rtgs":        {},
	"card":        {},
	"transfer":    {},
	"refund":      {},
	"amount":      {},
}

// wordSplitter splits on runs of non-word characters (word = letters, digits,
// underscore).
var wordSplitter = regexp.MustCompile(`\W+`)

// ContainsTransactionKeyword reports whether any token of the lowercased text
// exactly matches a transaction keyword. Empty text never matches.
func ContainsTransactionKeyword(text string) bool {
	if text == "" {
		return false
	}
	for _, token := range wordSplitter.Split(strings.ToLower(text), -1) {
		if token == "" {
			continue
		}
		if _, ok := transactionKeywords[token]; ok {
			return true
		}
	}
	return false
}
