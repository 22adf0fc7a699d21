package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var postgresSocialDDL = []string{
	`CREATE TABLE IF NOT EXISTS social_accounts (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(128) NOT NULL,
		platform VARCHAR(32) NOT NULL,
		access_token TEXT NOT NULL,
		refresh_token TEXT NULL,
		token_expires_at TIMESTAMPTZ NULL,
		platform_user_id VARCHAR(128) NOT NULL,
		platform_username VARCHAR(255) NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_social_accounts_user_platform ON social_accounts (user_id, platform)`,
	`CREATE TABLE IF NOT EXISTS social_publications (
		id VARCHAR(36) PRIMARY KEY,
		post_id VARCHAR(128) NOT NULL,
		social_account_id VARCHAR(36) NOT NULL,
		platform VARCHAR(32) NOT NULL,
		status VARCHAR(16) NOT NULL,
		external_url TEXT NULL,
		external_id VARCHAR(255) NULL,
		scheduled_at TIMESTAMPTZ NULL,
		published_at TIMESTAMPTZ NULL,
		error_message TEXT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_social_publications_post ON social_publications (post_id)`,
	`CREATE INDEX IF NOT EXISTS ix_social_publications_due ON social_publications (status, scheduled_at)`,
	`CREATE TABLE IF NOT EXISTS social_stats (
		id VARCHAR(36) PRIMARY KEY,
		publication_id VARCHAR(36) NOT NULL,
		views BIGINT NOT NULL DEFAULT 0,
		likes BIGINT NOT NULL DEFAULT 0,
		comments BIGINT NOT NULL DEFAULT 0,
		shares BIGINT NOT NULL DEFAULT 0,
		collected_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_social_stats_publication ON social_stats (publication_id, collected_at)`,
}

// EnsureSocialSchema creates the social publishing tables on PostgreSQL.
// Safe to call at startup.
func EnsureSocialSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, ddl := range postgresSocialDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure social schema: %w", err)
		}
	}
	// columns added after the first release
	if err := addColumnIfMissing(ctx, db, "social_publications", "updated_at",
		"ALTER TABLE social_publications ADD COLUMN updated_at TIMESTAMPTZ NOT NULL DEFAULT now()"); err != nil {
		return err
	}
	return nil
}

func addColumnIfMissing(ctx context.Context, db *sql.DB, table, column, ddl string) error {
	exists, err := columnExists(ctx, db, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("adding column %s.%s failed: %w", table, column, err)
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.columns WHERE table_name=$1 AND column_name=$2`, table, column)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
