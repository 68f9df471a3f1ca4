// Package reconcile keeps a local, de-duplicated, eventually-consistent view
// of one owner's transactions in sync with the remote store: load with local
// fallback, write with local fallback, and live change-feed merging. The
// collection it publishes is settled (deduplicated by identity and by content
// fingerprint) at every observable point, so displayed aggregates are never
// double-counted.
// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/Armandorocha13/Finance.io/identity"
	"github.com/Armandorocha13/Finance.io/ledger"
	"github.com/Armandorocha13/Finance.io/mirror"
	"github.com/Armandorocha13/Finance.io/remote"
)

var (
	// ErrInvalidInput reports a malformed add request, rejected before any
	// store is touched.
	ErrInvalidInput = errors.New("invalid transaction input")

	// ErrNotStarted reports an operation on a session without an owner.
	ErrNotStarted = errors.New("session not started")
)

// RemoteClient is the slice of the remote store the session consumes.
// *remote.Store satisfies it.
type RemoteClient interface {
	LoadTransactions(ctx context.Context, owner string) ([]ledger.Transaction, error)
	InsertTransaction(ctx context.Context, owner string, t ledger.Transaction) (ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, id, owner string) error
}

// Config holds session policy knobs.
type Config struct {
	// AllowSentinelRemote permits remote calls under the pre-authentication
	// sentinel owner. Off by default: outside explicitly-flagged development
	// setups, sentinel operations stay local-only.
	AllowSentinelRemote bool
}

// Input is the UI-boundary shape of a new transaction.
type Input struct {
	Description string
	Amount      float64
	Kind        ledger.Kind
	Category    string
	Date        string
}

func (in Input) validate() error {
	if in.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if in.Date == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if in.Kind != ledger.KindIncome && in.Kind != ledger.KindExpense {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, in.Kind)
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return fmt.Errorf("%w: amount must be finite", ErrInvalidInput)
	}
	return nil
}

// Session owns the reconciliation state for one authenticated owner.
//
// All state mutation is serialized under one mutex; the change-feed callback
// takes the same mutex and checks the session generation so events racing a
// teardown are dropped. Loads are single-flight: a load request while one is
// outstanding is ignored.
type Session struct {
	remote   RemoteClient // nil means local-only operation
	feed     Feed         // nil means no live updates
	store    mirror.Store
	notifier Notifier
	logger   *slog.Logger
	config   Config

	mu       sync.Mutex
	owner    string
	txs      []ledger.Transaction
	started  bool
	loading  bool
	degraded bool
	gen      int
	sub      Subscription
}

// NewSession creates an uninitialized session. Call Start to bind an owner.
func NewSession(rc RemoteClient, feed Feed, store mirror.Store, cfg Config, notifier Notifier, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &Session{
		remote:   rc,
		feed:     feed,
		store:    store,
		notifier: notifier,
		logger:   logger,
		config:   cfg,
	}
}

// Start binds the session to the effective owner of auth, loads the
// collection (remote first, mirror fallback) and opens the change feed.
// While authentication is still resolving the session stays uninitialized.
// Starting with a different owner tears down the previous subscription and
// clears in-memory state before the new load, so nothing leaks across
// identity switches; starting again with the same owner is a no-op.
func (s *Session) Start(ctx context.Context, auth identity.Context) error {
	if auth.Resolving {
		s.logger.Debug("Auth still resolving, session stays uninitialized")
		return nil
	}
	owner := auth.Effective()

	s.mu.Lock()
	if s.started && s.owner == owner {
		s.mu.Unlock()
		return nil
	}
	prev := s.teardownLocked()
	s.owner = owner
	s.started = true
	s.loading = true
	gen := s.gen
	s.mu.Unlock()

	// Close outside the lock: the subscription goroutine may be waiting on it.
	if prev != nil {
		prev.Close()
	}

	s.logger.Info("Session starting", "owner", owner, "sentinel", identity.IsSentinel(owner))
	s.load(ctx, owner, gen)

	if s.feed != nil && s.remoteAllowed(owner) {
		sub, err := s.feed.Subscribe(ctx, owner, func(e remote.Event) {
			s.applyEvent(gen, e)
		})
		if err != nil {
			s.logger.Warn("Change feed unavailable, live updates disabled", "owner", owner, "error", err)
		} else {
			s.mu.Lock()
			if s.gen == gen && s.started {
				s.sub = sub
				s.mu.Unlock()
			} else {
				s.mu.Unlock()
				sub.Close()
			}
		}
	}
	return nil
}

// Stop releases the change feed subscription and clears in-memory state.
func (s *Session) Stop() {
	s.mu.Lock()
	sub := s.teardownLocked()
	s.started = false
	s.owner = ""
	s.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

// teardownLocked invalidates outstanding callbacks and clears state.
// The caller must close the returned subscription after releasing the lock.
func (s *Session) teardownLocked() Subscription {
	s.gen++
	sub := s.sub
	s.sub = nil
	s.txs = nil
	s.loading = false
	s.degraded = false
	return sub
}

// Refresh re-runs the load. Coalesced: a refresh while a load is outstanding
// is ignored.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	if !s.started || s.loading {
		s.mu.Unlock()
		return
	}
	s.loading = true
	owner, gen := s.owner, s.gen
	s.mu.Unlock()
	s.load(ctx, owner, gen)
}

// load pulls the collection from the remote store; on failure it falls back
// to the local mirror. Either way the published collection is settled.
func (s *Session) load(ctx context.Context, owner string, gen int) {
	var (
		txs []ledger.Transaction
		err error
	)
	if s.remoteAllowed(owner) {
		txs, err = s.remote.LoadTransactions(ctx, owner)
	} else {
		err = fmt.Errorf("%w: remote disabled for owner", remote.ErrUnavailable)
	}

	if err == nil {
		settled := ledger.Dedupe(txs)
		s.logger.Info("Loaded transactions from remote store",
			"owner", owner, "total", len(txs), "settled", len(settled))
		s.publish(gen, settled, false)
		// Skip the mirror write when the remote result is empty so a spurious
		// empty response never clobbers a previously cached state.
		if len(settled) > 0 {
			s.mirrorWrite(settled)
		}
		return
	}

	s.logger.Warn("Remote load failed, falling back to local mirror", "owner", owner, "error", err)
	local, lerr := mirror.LoadTransactions(s.store)
	if lerr != nil {
		// Corrupt or unreadable mirror data is discarded, never surfaced as
		// a crash; the collection resets to empty and resyncs later.
		s.logger.Warn("Local mirror unreadable, starting empty", "error", lerr)
		local = nil
	}
	settled := ledger.Dedupe(local)
	s.publish(gen, settled, true)
	if len(settled) > 0 && len(settled) != len(local) {
		// Re-mirror so stale duplicates don't survive in storage.
		s.mirrorWrite(settled)
	}
}

// publish installs a settled collection, dropping the result if the session
// was torn down while the load was in flight.
func (s *Session) publish(gen int, settled []ledger.Transaction, degraded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.txs = settled
	s.loading = false
	s.degraded = degraded
}

// Add normalizes and stores a new transaction: remote first, local-only on
// failure. Both outcomes resolve without error; the notifier tells callers
// which one happened. Invalid input is rejected before any store is touched.
func (s *Session) Add(ctx context.Context, in Input) error {
	if err := in.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	owner, gen := s.owner, s.gen
	s.mu.Unlock()

	t := ledger.Transaction{
		Description: in.Description,
		Amount:      ledger.CoerceAmount(in.Amount),
		Kind:        in.Kind,
		Category:    in.Category,
		Date:        ledger.NormalizeDate(in.Date),
		Owner:       owner,
	}

	if s.remoteAllowed(owner) {
		saved, err := s.remote.InsertTransaction(ctx, owner, t)
		if err == nil {
			// Merge rather than append: a concurrently-arrived feed event may
			// already have delivered this id.
			s.mergeAndMirror(gen, saved, false)
			s.notifier.Success("Transaction saved to the remote store.")
			return nil
		}
		s.logger.Warn("Remote insert failed, saving locally", "owner", owner, "error", err)
	}

	t.ID = ledger.LocalID()
	s.mergeAndMirror(gen, t, true)
	s.notifier.Warning("Transaction saved locally only; it has not reached the remote store.")
	return nil
}

// Remove deletes a transaction by id. A row already gone remotely counts as
// success; an unreachable remote store still removes locally (deletes are
// never blocked by being offline) and flags the session degraded.
func (s *Session) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	owner, gen := s.owner, s.gen
	s.mu.Unlock()

	degraded := false
	if s.remoteAllowed(owner) {
		err := s.remote.DeleteTransaction(ctx, id, owner)
		switch {
		case err == nil:
		case errors.Is(err, remote.ErrNotFound):
			// Already satisfied.
			s.logger.Debug("Remote row already gone", "id", id)
		default:
			s.logger.Warn("Remote delete failed, removing locally", "id", id, "error", err)
			degraded = true
		}
	} else {
		degraded = true
	}

	s.removeLocal(gen, id, degraded)
	if degraded {
		s.notifier.Warning("Transaction deleted locally only; the remote store was unreachable.")
	} else {
		s.notifier.Success("Transaction deleted.")
	}
	return nil
}

// applyEvent folds one change-feed event into the collection. Events from a
// torn-down subscription are dropped by the generation check.
func (s *Session) applyEvent(gen int, e remote.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}

	switch e.Type {
	case remote.EventInserted:
		// A re-delivery of an id we already hold must not create a duplicate;
		// Merge's identity pass drops it.
		before := len(s.txs)
		s.txs = ledger.Merge(s.txs, e.Tx)
		if len(s.txs) == before {
			s.logger.Debug("Feed re-delivery dropped", "id", e.Tx.ID)
		}
	case remote.EventUpdated:
		replaced := false
		for i := range s.txs {
			if s.txs[i].ID == e.Tx.ID {
				s.txs[i] = e.Tx
				replaced = true
				break
			}
		}
		if replaced {
			s.txs = ledger.Dedupe(s.txs)
		} else {
			// Update for a row we never saw: treat as insert.
			s.txs = ledger.Merge(s.txs, e.Tx)
		}
	case remote.EventDeleted:
		// Absence is a no-op, not an error.
		s.txs = removeByID(s.txs, e.ID)
	}

	s.mirrorLocked()
}

// mergeAndMirror folds one record into the settled collection and mirrors.
func (s *Session) mergeAndMirror(gen int, t ledger.Transaction, degraded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.txs = ledger.Merge(s.txs, t)
	if degraded {
		s.degraded = true
	}
	s.mirrorLocked()
}

func (s *Session) removeLocal(gen int, id string, degraded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.txs = removeByID(s.txs, id)
	if degraded {
		s.degraded = true
	}
	s.mirrorLocked()
}

// mirrorLocked writes the current collection through to the local mirror.
// Mirror failures are diagnostic only; they never fail the operation.
func (s *Session) mirrorLocked() {
	var err error
	if len(s.txs) > 0 {
		err = mirror.SaveTransactions(s.store, s.txs)
	} else {
		err = s.store.Remove(mirror.KeyTransactions)
	}
	if err != nil {
		s.logger.Warn("Mirror write failed", "error", err)
	}
}

func (s *Session) mirrorWrite(txs []ledger.Transaction) {
	if err := mirror.SaveTransactions(s.store, txs); err != nil {
		s.logger.Warn("Mirror write failed", "error", err)
	}
}

func (s *Session) remoteAllowed(owner string) bool {
	if s.remote == nil {
		return false
	}
	if identity.IsSentinel(owner) && !s.config.AllowSentinelRemote {
		return false
	}
	return true
}

// Transactions returns the settled collection, most recent load/merge order.
func (s *Session) Transactions() []ledger.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

// Loading reports whether the initial (or a refreshed) load is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Degraded reports whether the session is operating against the local mirror
// only (some data has not reached the remote store).
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Owner returns the owner the session is bound to ("" when uninitialized).
func (s *Session) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ""
	}
	return s.owner
}

func removeByID(txs []ledger.Transaction, id string) []ledger.Transaction {
	out := txs[:0]
	for _, t := range txs {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
