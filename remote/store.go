// Package remote is the client for the authoritative Postgres store: row
// queries and mutations scoped by owner, plus a live change feed over
// LISTEN/NOTIFY. Every value crossing this boundary passes through ledger
// normalization, in both directions.
// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Armandorocha13/Finance.io/ledger"
)

// Error taxonomy. ErrUnavailable means the store could not be reached or
// refused the call; it triggers the local fallback path and is never fatal.
// ErrNotFound means the store answered but the target row does not exist;
// deletes treat it as already satisfied.
var (
	ErrUnavailable = errors.New("remote store unavailable")
	ErrNotFound    = errors.New("remote row not found")
)

// Store issues owner-scoped queries against the remote Postgres store.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a remote store client from an existing pool.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// LoadTransactions returns all transactions for owner, most recent first
// (date descending, then creation order descending), dates and amounts
// normalized.
func (s *Store) LoadTransactions(ctx context.Context, owner string) ([]ledger.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, description, amount::float8, type, category, date, user_id::text
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
	`, owner)
	if err != nil {
		return nil, unavailable("query transactions", err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		var (
			t            ledger.Transaction
			desc, cat    *string
			amount, date any
			kind         string
		)
		if err := rows.Scan(&t.ID, &desc, &amount, &kind, &cat, &date, &t.Owner); err != nil {
			return nil, unavailable("scan transaction", err)
		}
		if desc != nil {
			t.Description = *desc
		}
		if cat != nil {
			t.Category = *cat
		}
		t.Kind = ledger.Kind(kind)
		t.Amount = ledger.CoerceAmount(amount)
		t.Date = ledger.NormalizeDate(date)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate transactions", err)
	}
	return out, nil
}

// InsertTransaction submits the record tagged with owner and returns the
// server-assigned full record. The outgoing date is normalized to YYYY-MM-DD
// before transmission; callers must not transmit time-of-day.
func (s *Store) InsertTransaction(ctx context.Context, owner string, t ledger.Transaction) (ledger.Transaction, error) {
	t = ledger.Normalize(t)
	var (
		saved        ledger.Transaction
		amount, date any
		kind         string
	)
	err := s.pool.QueryRow(ctx, `
		INSERT INTO transactions (description, amount, type, category, date, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, description, amount::float8, type, category, date, user_id::text
	`, t.Description, t.Amount, string(t.Kind), t.Category, t.Date, owner).
		Scan(&saved.ID, &saved.Description, &amount, &kind, &saved.Category, &date, &saved.Owner)
	if err != nil {
		return ledger.Transaction{}, unavailable("insert transaction", err)
	}
	saved.Kind = ledger.Kind(kind)
	saved.Amount = ledger.CoerceAmount(amount)
	saved.Date = ledger.NormalizeDate(date)
	return saved, nil
}

// DeleteTransaction deletes by id, scoped to owner so one owner's delete can
// never touch another owner's rows. A missing row reports ErrNotFound.
func (s *Store) DeleteTransaction(ctx context.Context, id, owner string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM transactions WHERE id::text = $1 AND user_id = $2
	`, id, owner)
	if err != nil {
		return unavailable("delete transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s", ErrNotFound, id)
	}
	return nil
}

// ListPlayerNames returns the lower-cased names already registered for owner.
// Bulk import uses this set for its case-insensitive duplicate check.
func (s *Store) ListPlayerNames(ctx context.Context, owner string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM players WHERE user_id = $1`, owner)
	if err != nil {
		return nil, unavailable("query players", err)
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, unavailable("scan player", err)
		}
		names[strings.ToLower(name)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate players", err)
	}
	return names, nil
}

// InsertPlayers inserts the given players for owner and returns how many rows
// were written. Callers filter duplicates before calling.
func (s *Store) InsertPlayers(ctx context.Context, owner string, players []ledger.Player) (int, error) {
	inserted := 0
	for _, p := range players {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO players (name, goals, position, user_id)
			VALUES ($1, $2, NULLIF($3, ''), $4)
		`, p.Name, p.Goals, p.Position, owner)
		if err != nil {
			return inserted, unavailable("insert player", err)
		}
		inserted++
	}
	return inserted, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
