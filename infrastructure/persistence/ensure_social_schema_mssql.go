package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var mssqlSocialDDL = []struct {
	table string
	ddl   string
}{
	{"social_accounts", `CREATE TABLE dbo.[social_accounts] (
        id NVARCHAR(36) NOT NULL PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(32) NOT NULL,
        access_token NVARCHAR(MAX) NOT NULL,
        refresh_token NVARCHAR(MAX) NULL,
        token_expires_at DATETIME2 NULL,
        platform_user_id NVARCHAR(128) NOT NULL,
        platform_username NVARCHAR(255) NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_social_accounts_user_platform ON dbo.[social_accounts](user_id, platform);`},
	{"social_publications", `CREATE TABLE dbo.[social_publications] (
        id NVARCHAR(36) NOT NULL PRIMARY KEY,
        post_id NVARCHAR(128) NOT NULL,
        social_account_id NVARCHAR(36) NOT NULL,
        platform NVARCHAR(32) NOT NULL,
        status NVARCHAR(16) NOT NULL,
        external_url NVARCHAR(1024) NULL,
        external_id NVARCHAR(255) NULL,
        scheduled_at DATETIME2 NULL,
        published_at DATETIME2 NULL,
        error_message NVARCHAR(MAX) NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE INDEX IX_social_publications_post ON dbo.[social_publications](post_id);
    CREATE INDEX IX_social_publications_due ON dbo.[social_publications](status, scheduled_at);`},
	{"social_stats", `CREATE TABLE dbo.[social_stats] (
        id NVARCHAR(36) NOT NULL PRIMARY KEY,
        publication_id NVARCHAR(36) NOT NULL,
        views BIGINT NOT NULL DEFAULT 0,
        likes BIGINT NOT NULL DEFAULT 0,
        comments BIGINT NOT NULL DEFAULT 0,
        shares BIGINT NOT NULL DEFAULT 0,
        collected_at DATETIME2 NOT NULL
    );
    CREATE INDEX IX_social_stats_publication ON dbo.[social_stats](publication_id, collected_at);`},
}

// EnsureSocialSchemaMSSQL creates the social publishing tables on SQL Server if they do not exist.
func EnsureSocialSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, t := range mssqlSocialDDL {
		q := fmt.Sprintf(`IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.%s') AND type in (N'U'))
BEGIN
    %s
END`, t.table, t.ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create %s (mssql): %w", t.table, err)
		}
	}
	// columns added after the first release
	q := `IF COL_LENGTH('dbo.social_publications', 'updated_at') IS NULL BEGIN ALTER TABLE dbo.[social_publications] ADD updated_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME() END`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("ensure column social_publications.updated_at: %w", err)
	}
	return nil
}
