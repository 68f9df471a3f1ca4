// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package ledger

// Dedupe collapses a sequence of transactions to exactly one record per
// identity and one record per content fingerprint, preserving the relative
// order of survivors.
//
// Two passes:
//
//  1. Identity pass: the first occurrence of each id wins. This collapses
//     exact re-deliveries (a change-feed echo of a row we already hold); it
//     deliberately does not try to resolve conflicting versions.
//
//  2. Fingerprint pass: when two surviving records carry the same
//     (description, amount, date) content, the one whose id compares greater
//     wins and replaces the earlier survivor in place. Server ids and local
//     timestamp ids can independently describe the same real transaction
//     after an offline write reconciles with a server echo; this pass is the
//     last line of defense against doubled totals.
func Dedupe(txs []Transaction) []Transaction {
	if len(txs) == 0 {
		return []Transaction{}
	}

	byID := make([]Transaction, 0, len(txs))
	seen := make(map[string]struct{}, len(txs))
	for _, t := range txs {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		byID = append(byID, t)
	}

	out := make([]Transaction, 0, len(byID))
	pos := make(map[string]int, len(byID)) // fingerprint -> index in out
	for _, t := range byID {
		fp := FingerprintOf(t)
		i, ok := pos[fp]
		if !ok {
			pos[fp] = len(out)
			out = append(out, t)
			continue
		}
		if t.ID > out[i].ID {
			out[i] = t
		}
	}
	return out
}

// Merge folds incoming records into the current settled collection and
// returns the settled result. Incoming records land after existing ones, so
// an exact id re-delivery is dropped by the identity pass while a fingerprint
// collision resolves by greater identity.
func Merge(current []Transaction, incoming ...Transaction) []Transaction {
	merged := make([]Transaction, 0, len(current)+len(incoming))
	merged = append(merged, current...)
	merged = append(merged, incoming...)
	return Dedupe(merged)
}
