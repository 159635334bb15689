package database

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"fitledger/internal/config"
)

func Open(cfg config.Postgres) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the ledger tables.
// TODO: replace with versioned migrations once the schema starts moving.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS purchases (
			id UUID PRIMARY KEY,
			buyer_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			item_type TEXT NOT NULL,
			payment_id TEXT NOT NULL,
			amount_minor BIGINT NOT NULL,
			currency TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS purchases_buyer_item_idx
			ON purchases (buyer_id, item_id) WHERE is_active;
		CREATE INDEX IF NOT EXISTS purchases_payment_idx
			ON purchases (payment_id);

		CREATE TABLE IF NOT EXISTS capture_journal (
			payment_id TEXT PRIMARY KEY,
			encoding TEXT NOT NULL,
			amount_minor BIGINT NOT NULL,
			currency TEXT NOT NULL,
			item_count INT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`)
	return err
}
