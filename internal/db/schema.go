package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates all tables in dependency order. Statements are
// idempotent so startup can run it unconditionally.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{

		// Users. The primary key is the Telegram user id: buffered events
		// carry that id and the spylog FK must resolve against it.
		`CREATE TABLE IF NOT EXISTS userhub (
			id          BIGINT PRIMARY KEY,
			name        TEXT,
			tstart      TIMESTAMPTZ NOT NULL DEFAULT now(),
			balance     INT NOT NULL DEFAULT 0,
			is_reg      BOOLEAN NOT NULL DEFAULT false,
			referrer_id BIGINT REFERENCES userhub(id) ON DELETE SET NULL
		)`,

		// Credit ledger, append-only.
		`CREATE TABLE IF NOT EXISTS transactions (
			id      BIGSERIAL PRIMARY KEY,
			price   INT NOT NULL,
			action  TEXT,
			ts      TIMESTAMPTZ NOT NULL DEFAULT now(),
			user_id BIGINT REFERENCES userhub(id)
		)`,

		// Generated outputs, each tied to the transaction that paid for it.
		`CREATE TABLE IF NOT EXISTS pfunc (
			id       BIGSERIAL PRIMARY KEY,
			message  TEXT NOT NULL,
			cls      TEXT,
			answer   TEXT NOT NULL,
			ts       TIMESTAMPTZ NOT NULL DEFAULT now(),
			position TEXT,
			user_id  BIGINT NOT NULL REFERENCES userhub(id),
			pay_id   BIGINT NOT NULL REFERENCES transactions(id)
		)`,

		// Scheduled tasks.
		`CREATE TABLE IF NOT EXISTS tasks (
			id        BIGSERIAL PRIMARY KEY,
			ts        TIMESTAMPTZ NOT NULL DEFAULT now(),
			text      TEXT NOT NULL,
			date      TIMESTAMPTZ NOT NULL,
			is_active BOOLEAN NOT NULL,
			user_id   BIGINT NOT NULL REFERENCES userhub(id)
		)`,

		// Flushed event log. Immutable once written.
		`CREATE TABLE IF NOT EXISTS spylog (
			id      BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES userhub(id),
			action  JSONB NOT NULL,
			ts      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS spylog_user_idx ON spylog (user_id)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
