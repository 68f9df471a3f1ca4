// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Armandorocha13/Finance.io/ledger"
	"github.com/Armandorocha13/Finance.io/reconcile"
	"github.com/Armandorocha13/Finance.io/roster"
)

type handlers struct {
	session  *reconcile.Session
	players  *roster.Roster
	importer roster.Importer // nil when the remote store is absent
	logger   *slog.Logger
}

type transactionsResponse struct {
	Transactions []ledger.Transaction `json:"transactions"`
	IsLoading    bool                 `json:"isLoading"`
	Degraded     bool                 `json:"degraded"`
	Income       float64              `json:"income"`
	Expense      float64              `json:"expense"`
	Balance      float64              `json:"balance"`
}

func (h *handlers) listTransactions(w http.ResponseWriter, _ *http.Request) {
	txs := h.session.Transactions()
	income, expense, balance := ledger.Sum(txs)
	writeJSON(w, http.StatusOK, transactionsResponse{
		Transactions: txs,
		IsLoading:    h.session.Loading(),
		Degraded:     h.session.Degraded(),
		Income:       income,
		Expense:      expense,
		Balance:      balance,
	})
}

type addTransactionRequest struct {
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
}

func (h *handlers) addTransaction(w http.ResponseWriter, r *http.Request) {
	var req addTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	err := h.session.Add(r.Context(), reconcile.Input{
		Description: req.Description,
		Amount:      ledger.CoerceAmount(req.Amount),
		Kind:        ledger.Kind(req.Type),
		Category:    req.Category,
		Date:        req.Date,
	})
	if errors.Is(err, reconcile.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	// Resolves even in degraded mode; degraded is reported in the body.
	writeJSON(w, http.StatusCreated, map[string]any{"degraded": h.session.Degraded()})
}

func (h *handlers) removeTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"degraded": h.session.Degraded()})
}

type playersResponse struct {
	Players   []ledger.Player `json:"players"`
	IsLoading bool            `json:"isLoading"`
}

func (h *handlers) listPlayers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, playersResponse{
		Players:   h.players.Players(),
		IsLoading: h.players.Loading(),
	})
}

type playerRequest struct {
	Name     *string `json:"name"`
	Goals    *int    `json:"goals"`
	Position *string `json:"position"`
}

func (h *handlers) addPlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	var name, position string
	var goals int
	if req.Name != nil {
		name = *req.Name
	}
	if req.Goals != nil {
		goals = *req.Goals
	}
	if req.Position != nil {
		position = *req.Position
	}
	p, err := h.players.Add(name, goals, position)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *handlers) updatePlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	h.players.Update(chi.URLParam(r, "id"), req.Name, req.Goals, req.Position)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) removePlayer(w http.ResponseWriter, r *http.Request) {
	h.players.Remove(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) incrementGoal(w http.ResponseWriter, r *http.Request) {
	h.players.IncrementGoal(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) decrementGoal(w http.ResponseWriter, r *http.Request) {
	h.players.DecrementGoal(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) importPlayers(w http.ResponseWriter, r *http.Request) {
	if h.importer == nil {
		writeError(w, http.StatusServiceUnavailable, "remote store not configured")
		return
	}
	result, err := h.players.ImportAll(r.Context(), h.importer, h.session.Owner())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
