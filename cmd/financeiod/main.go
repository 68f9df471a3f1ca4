// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

// Command financeiod runs the club-management backend: the transaction
// reconciliation session, the player roster and the HTTP API in front of
// them. Without DATABASE_URL it runs local-only against the mirror, the same
// degraded mode a network outage produces.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Armandorocha13/Finance.io/config"
	"github.com/Armandorocha13/Finance.io/httpapi"
	"github.com/Armandorocha13/Finance.io/identity"
	"github.com/Armandorocha13/Finance.io/mirror"
	"github.com/Armandorocha13/Finance.io/reconcile"
	"github.com/Armandorocha13/Finance.io/remote"
	"github.com/Armandorocha13/Finance.io/roster"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := mirror.OpenSQLite(cfg.MirrorPath)
	if err != nil {
		logger.Error("Failed to open mirror store", "path", cfg.MirrorPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var (
		remoteClient reconcile.RemoteClient
		feed         reconcile.Feed
		importer     roster.Importer
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("Failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := remote.InitSchema(ctx, pool); err != nil {
			// Schema init failing is the remote being unavailable; the
			// session falls back to the mirror on its own.
			logger.Warn("Remote schema init failed, continuing with fallback", "error", err)
		}
		rs := remote.NewStore(pool, logger)
		remoteClient = rs
		importer = rs
		feed = reconcile.NewRemoteFeed(remote.NewFeed(cfg.DatabaseURL, logger))
	} else {
		logger.Warn("DATABASE_URL not set, running local-only")
	}

	session := reconcile.NewSession(remoteClient, feed, store,
		reconcile.Config{AllowSentinelRemote: cfg.AllowSentinelRemote},
		reconcile.NewLogNotifier(logger), logger)
	if err := session.Start(ctx, identity.Context{Owner: cfg.OwnerID}); err != nil {
		logger.Error("Failed to start session", "error", err)
		os.Exit(1)
	}
	defer session.Stop()

	players := roster.New(store, logger)

	var auth *identity.JWTAuth
	if cfg.JWTSecret != "" {
		auth = identity.NewJWTAuth(cfg.JWTSecret)
	} else {
		logger.Warn("JWT_SECRET not set, API runs unauthenticated")
	}

	router := httpapi.NewRouter(session, players, importer, auth, logger)
	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	logger.Info("API server running", "port", cfg.Port, "owner", session.Owner())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
