package database

import (
	"context"
	"fmt"
)

// schema is applied in order at startup. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(255) NOT NULL UNIQUE,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS cards (
		id               BIGSERIAL PRIMARY KEY,
		user_id          BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		card_number      VARCHAR(19) NOT NULL UNIQUE,
		card_holder_name VARCHAR(255) NOT NULL,
		expiry_date      VARCHAR(5) NOT NULL,
		cvv              TEXT NOT NULL,
		card_type        VARCHAR(32) NOT NULL,
		balance          NUMERIC(14, 2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		is_active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_user_id ON cards (user_id)`,
}

// EnsureSchema creates the tables and indexes if they do not exist
func (d *DB) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := d.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	d.log.Info("Database tables initialized")
	return nil
}
