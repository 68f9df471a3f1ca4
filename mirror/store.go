// Package mirror is the local fallback copy of the club's record
// collections: a small persistent key-string store holding one serialized
// sequence of records per fixed key.
// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Armandorocha13/Finance.io/ledger"
)

// Fixed keys, one per mirrored collection. The collections are independent;
// no cross-key transactionality is assumed.
const (
	KeyTransactions = "transactions"
	KeyPlayers      = "artilharia"
)

// ErrCorrupt reports malformed serialized data under a key. Callers discard
// the value and reset to an empty collection rather than surfacing a crash.
var ErrCorrupt = errors.New("mirror: corrupt stored data")

// Store is the persistent key-string store backing the mirror.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// SaveTransactions mirrors the settled collection under KeyTransactions.
func SaveTransactions(s Store, txs []ledger.Transaction) error {
	return saveJSON(s, KeyTransactions, txs)
}

// LoadTransactions reads and deserializes the mirrored transaction
// collection. A missing key yields an empty collection; malformed data is
// deleted and reported as ErrCorrupt so the caller can self-heal.
func LoadTransactions(s Store) ([]ledger.Transaction, error) {
	var txs []ledger.Transaction
	if err := loadJSON(s, KeyTransactions, &txs); err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i] = ledger.Normalize(txs[i])
	}
	return txs, nil
}

// SavePlayers mirrors the roster under KeyPlayers.
func SavePlayers(s Store, players []ledger.Player) error {
	return saveJSON(s, KeyPlayers, players)
}

// LoadPlayers reads and deserializes the mirrored roster.
func LoadPlayers(s Store) ([]ledger.Player, error) {
	var players []ledger.Player
	if err := loadJSON(s, KeyPlayers, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func saveJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}
	if err := s.Set(key, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func loadJSON(s Store, key string, v any) error {
	data, ok, err := s.Get(key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		// Self-heal: drop the bad value so the next read starts clean.
		slog.Warn("Discarding corrupt mirror data", "key", key, "error", err)
		if delErr := s.Remove(key); delErr != nil {
			return fmt.Errorf("failed to remove corrupt %s: %w", key, delErr)
		}
		return fmt.Errorf("%w: %s", ErrCorrupt, key)
	}
	return nil
}
