// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/Armandorocha13/Finance.io/ledger"
)

// EventType identifies what a feed notification did to a row.
type EventType string

const (
	EventInserted EventType = "INSERT"
	EventUpdated  EventType = "UPDATE"
	EventDeleted  EventType = "DELETE"
)

// Event is one owner-scoped row change. Tx is populated (and normalized) for
// inserts and updates; ID is the only payload of a delete.
type Event struct {
	Type EventType
	Tx   ledger.Transaction
	ID   string
}

// Feed subscribes to live transaction changes over Postgres LISTEN/NOTIFY.
// Each subscription holds a dedicated connection for the lifetime of the
// authenticated session.
type Feed struct {
	connString string
	logger     *slog.Logger
}

// NewFeed creates a change feed factory.
func NewFeed(connString string, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{connString: connString, logger: logger}
}

// Subscription is one live owner-scoped notification channel. Close releases
// the underlying connection deterministically; it must be called when the
// owning session ends or the owner changes so channels never leak across
// identity switches.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Close tears the subscription down and waits for its receive loop to exit.
// No event is delivered after Close returns. Safe to call more than once.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Subscribe opens a long-lived notification channel scoped to owner and
// invokes fn for every change to that owner's transactions. Events carrying
// a row pass through the same date/amount normalization as LoadTransactions
// before delivery.
func (f *Feed) Subscribe(ctx context.Context, owner string, fn func(Event)) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)

	conn, err := pgx.Connect(subCtx, f.connString)
	if err != nil {
		cancel()
		return nil, unavailable("connect feed", err)
	}
	if _, err := conn.Exec(subCtx, "LISTEN "+feedChannel); err != nil {
		_ = conn.Close(context.Background())
		cancel()
		return nil, unavailable("listen", err)
	}

	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		defer conn.Close(context.Background())
		for {
			notification, err := conn.WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					f.logger.Warn("Change feed receive failed", "owner", owner, "error", err)
				}
				return
			}
			event, ok, err := decodeEvent([]byte(notification.Payload), owner)
			if err != nil {
				f.logger.Warn("Dropping malformed feed payload", "error", err)
				continue
			}
			if ok {
				fn(event)
			}
		}
	}()

	f.logger.Debug("Change feed subscribed", "owner", owner, "channel", feedChannel)
	return sub, nil
}

// feedPayload mirrors the JSON emitted by the notify trigger.
type feedPayload struct {
	Op    string          `json:"op"`
	ID    string          `json:"id"`
	Owner string          `json:"user_id"`
	Row   json.RawMessage `json:"row"`
}

// feedRow decodes the raw row with loose value types so boundary
// normalization can coerce whatever representation the store emits.
type feedRow struct {
	ID          string  `json:"id"`
	Description *string `json:"description"`
	Amount      any     `json:"amount"`
	Type        string  `json:"type"`
	Category    *string `json:"category"`
	Date        any     `json:"date"`
	Owner       string  `json:"user_id"`
}

// decodeEvent parses one notification. The second result is false when the
// event belongs to a different owner and must be dropped.
func decodeEvent(payload []byte, owner string) (Event, bool, error) {
	var p feedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Event{}, false, fmt.Errorf("failed to decode feed payload: %w", err)
	}
	if p.Owner != owner {
		return Event{}, false, nil
	}

	switch EventType(p.Op) {
	case EventDeleted:
		return Event{Type: EventDeleted, ID: p.ID}, true, nil
	case EventInserted, EventUpdated:
		var row feedRow
		if err := json.Unmarshal(p.Row, &row); err != nil {
			return Event{}, false, fmt.Errorf("failed to decode feed row: %w", err)
		}
		t := ledger.Transaction{
			ID:     row.ID,
			Kind:   ledger.Kind(row.Type),
			Amount: ledger.CoerceAmount(row.Amount),
			Date:   ledger.NormalizeDate(row.Date),
			Owner:  row.Owner,
		}
		if row.Description != nil {
			t.Description = *row.Description
		}
		if row.Category != nil {
			t.Category = *row.Category
		}
		return Event{Type: EventType(p.Op), Tx: t, ID: t.ID}, true, nil
	default:
		return Event{}, false, fmt.Errorf("unknown feed op %q", p.Op)
	}
}
