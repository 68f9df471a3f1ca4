// Package roster manages the scoring leaderboard: players and their goal
// counts. The local mirror is the source of truth for this collection; the
// remote store only receives an optional one-time bulk import.
// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/Armandorocha13/Finance.io/ledger"
	"github.com/Armandorocha13/Finance.io/mirror"
)

// ErrInvalidInput reports a malformed player at the API boundary.
var ErrInvalidInput = errors.New("invalid player input")

// Importer is the slice of the remote store bulk import consumes.
// *remote.Store satisfies it.
type Importer interface {
	ListPlayerNames(ctx context.Context, owner string) (map[string]struct{}, error)
	InsertPlayers(ctx context.Context, owner string, players []ledger.Player) (int, error)
}

// Roster owns the player collection for one session.
type Roster struct {
	store  mirror.Store
	logger *slog.Logger

	mu      sync.Mutex
	players []ledger.Player
	loading bool
}

// New creates a roster and loads it from the local mirror. Corrupt mirror
// data is discarded and the roster starts empty.
func New(store mirror.Store, logger *slog.Logger) *Roster {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Roster{store: store, logger: logger, loading: true}

	players, err := mirror.LoadPlayers(store)
	if err != nil {
		logger.Warn("Local roster unreadable, starting empty", "error", err)
		players = nil
	}

	r.mu.Lock()
	r.players = players
	r.loading = false
	r.mu.Unlock()
	return r
}

// Players returns the roster sorted by goals descending.
func (r *Roster) Players() []ledger.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ledger.Player, len(r.players))
	copy(out, r.players)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Goals > out[j].Goals })
	return out
}

// Loading reports whether the initial mirror read is still in flight.
func (r *Roster) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Add registers a new player with a locally-generated identity.
func (r *Roster) Add(name string, goals int, position string) (ledger.Player, error) {
	if strings.TrimSpace(name) == "" {
		return ledger.Player{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if goals < 0 {
		goals = 0
	}
	p := ledger.Player{
		ID:       ledger.LocalID(),
		Name:     name,
		Goals:    goals,
		Position: position,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = append(r.players, p)
	r.persistLocked()
	return p, nil
}

// Update replaces the named fields of an existing player. Unknown ids are a
// no-op.
func (r *Roster) Update(id string, name *string, goals *int, position *string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.players {
		if r.players[i].ID != id {
			continue
		}
		if name != nil && strings.TrimSpace(*name) != "" {
			r.players[i].Name = *name
		}
		if goals != nil {
			r.players[i].Goals = max(0, *goals)
		}
		if position != nil {
			r.players[i].Position = *position
		}
		r.persistLocked()
		return
	}
}

// Remove deletes a player by id. Absence is a no-op.
func (r *Roster) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.players[:0]
	for _, p := range r.players {
		if p.ID != id {
			out = append(out, p)
		}
	}
	r.players = out
	r.persistLocked()
}

// IncrementGoal adds one goal to a player.
func (r *Roster) IncrementGoal(id string) {
	r.adjustGoals(id, +1)
}

// DecrementGoal removes one goal from a player, clamped at zero.
func (r *Roster) DecrementGoal(id string) {
	r.adjustGoals(id, -1)
}

func (r *Roster) adjustGoals(id string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.players {
		if r.players[i].ID == id {
			r.players[i].Goals = max(0, r.players[i].Goals+delta)
			r.persistLocked()
			return
		}
	}
}

func (r *Roster) persistLocked() {
	if err := mirror.SavePlayers(r.store, r.players); err != nil {
		r.logger.Warn("Roster mirror write failed", "error", err)
	}
}

// ImportResult reports a bulk import outcome.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportAll pushes the current roster into the remote store, skipping players
// whose name is already registered for owner (compared case-insensitively).
func (r *Roster) ImportAll(ctx context.Context, imp Importer, owner string) (ImportResult, error) {
	r.mu.Lock()
	players := make([]ledger.Player, len(r.players))
	copy(players, r.players)
	r.mu.Unlock()

	existing, err := imp.ListPlayerNames(ctx, owner)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to list remote players: %w", err)
	}

	var fresh []ledger.Player
	skipped := 0
	for _, p := range players {
		if _, ok := existing[strings.ToLower(p.Name)]; ok {
			skipped++
			continue
		}
		fresh = append(fresh, p)
	}
	if len(fresh) == 0 {
		return ImportResult{Skipped: skipped}, nil
	}

	inserted, err := imp.InsertPlayers(ctx, owner, fresh)
	if err != nil {
		return ImportResult{Imported: inserted, Skipped: skipped}, fmt.Errorf("failed to import players: %w", err)
	}
	r.logger.Info("Roster imported to remote store", "owner", owner, "imported", inserted, "skipped", skipped)
	return ImportResult{Imported: inserted, Skipped: skipped}, nil
}
