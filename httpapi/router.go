// Package httpapi exposes the session and roster APIs over HTTP for front
// ends. The screens themselves live elsewhere; this is only the thin surface
// they consume.
// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Armandorocha13/Finance.io/identity"
	"github.com/Armandorocha13/Finance.io/reconcile"
	"github.com/Armandorocha13/Finance.io/roster"
)

type ownerKey struct{}

// NewRouter builds the API router. When auth is nil the API is open and every
// request runs under the session's own owner (development setups).
func NewRouter(session *reconcile.Session, players *roster.Roster, importer roster.Importer, auth *identity.JWTAuth, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{session: session, players: players, importer: importer, logger: logger}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(session, auth, logger))

		r.Get("/transactions", h.listTransactions)
		r.Post("/transactions", h.addTransaction)
		r.Delete("/transactions/{id}", h.removeTransaction)

		r.Get("/players", h.listPlayers)
		r.Post("/players", h.addPlayer)
		r.Put("/players/{id}", h.updatePlayer)
		r.Delete("/players/{id}", h.removePlayer)
		r.Post("/players/{id}/goals/increment", h.incrementGoal)
		r.Post("/players/{id}/goals/decrement", h.decrementGoal)
		r.Post("/players/import", h.importPlayers)
	})
	return r
}

// authMiddleware validates the bearer token and requires its subject to match
// the session owner; one daemon serves one authenticated session.
func authMiddleware(session *reconcile.Session, auth *identity.JWTAuth, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				next.ServeHTTP(w, r)
				return
			}
			owner, err := auth.OwnerFromRequest(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
			if identity.EffectiveOwner(owner) != session.Owner() {
				logger.Warn("Token owner does not match session owner", "token_owner", owner)
				writeError(w, http.StatusForbidden, "token does not match session owner")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
		})
	}
}
