// Package ledger holds the club's domain records and the normalization and
// deduplication rules every boundary crossing (remote read, remote write,
// change-feed event, local mirror read) must go through.
// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package ledger

// Kind classifies a transaction as money in or money out
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Transaction is the core financial record. The id is assigned by the remote
// store on creation, or synthesized locally (millisecond timestamp string)
// when the record is created while the remote store is unreachable.
type Transaction struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Kind        Kind    `json:"type"`
	Category    string  `json:"category"`
	Date        string  `json:"date"` // always YYYY-MM-DD
	Owner       string  `json:"user_id"`
}

// Player is the scoring-leaderboard record. Goals never goes negative.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Goals    int    `json:"goals"`
	Position string `json:"position,omitempty"`
}

// Sum returns total income, total expense and balance over the collection.
// Callers are expected to pass a settled (deduplicated) collection so the
// aggregates are never double-counted.
func Sum(txs []Transaction) (income, expense, balance float64) {
	for _, t := range txs {
		switch t.Kind {
		case KindIncome:
			income += t.Amount
		case KindExpense:
			expense += t.Amount
		}
	}
	return income, expense, income - expense
}
