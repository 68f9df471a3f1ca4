// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// feedChannel is the NOTIFY channel carrying transaction row changes.
const feedChannel = "transactions_changes"

// InitSchema creates the business tables and the change-notification trigger
// if they don't exist. Safe to run on every startup.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		migrations := []string{
			/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS transactions (
				id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				description TEXT NOT NULL DEFAULT '',
				amount      NUMERIC(14,2) NOT NULL DEFAULT 0,
				type        TEXT NOT NULL CHECK (type IN ('income','expense')),
				category    TEXT NOT NULL DEFAULT '',
				date        DATE NOT NULL,
				user_id     UUID NOT NULL,
				created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,

			/*language=postgresql*/ `CREATE INDEX IF NOT EXISTS transactions_owner_date_idx
				ON transactions (user_id, date DESC, created_at DESC)`,

			/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS players (
				id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				name       TEXT NOT NULL,
				goals      INTEGER NOT NULL DEFAULT 0 CHECK (goals >= 0),
				position   TEXT,
				user_id    UUID NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,

			// Row-change notifications for the live feed. DELETE only carries
			// the id and owner; INSERT/UPDATE carry the full row.
			/*language=postgresql*/ `CREATE OR REPLACE FUNCTION notify_transaction_change() RETURNS trigger AS $$
			DECLARE
				payload jsonb;
			BEGIN
				IF TG_OP = 'DELETE' THEN
					payload := jsonb_build_object('op', TG_OP, 'id', OLD.id::text, 'user_id', OLD.user_id::text);
				ELSE
					payload := jsonb_build_object('op', TG_OP, 'user_id', NEW.user_id::text, 'row', to_jsonb(NEW));
				END IF;
				PERFORM pg_notify('` + feedChannel + `', payload::text);
				RETURN COALESCE(NEW, OLD);
			END;
			$$ LANGUAGE plpgsql`,

			/*language=postgresql*/ `DROP TRIGGER IF EXISTS transactions_notify ON transactions`,

			/*language=postgresql*/ `CREATE TRIGGER transactions_notify
				AFTER INSERT OR UPDATE OR DELETE ON transactions
				FOR EACH ROW EXECUTE FUNCTION notify_transaction_change()`,
		}

		for _, migration := range migrations {
			if _, err := tx.Exec(ctx, migration); err != nil {
				return fmt.Errorf("failed to run schema migration: %w", err)
			}
		}
		return nil
	})
}
