package persistence

import (
	"context"
	"database/sql"
	"time"

	"blog-social/domain/model"

	"github.com/google/uuid"
)

type AccountRepositoryMSSQL struct{ db *sql.DB }

func NewAccountRepositoryMSSQL(db *sql.DB) *AccountRepositoryMSSQL {
	return &AccountRepositoryMSSQL{db: db}
}

func (r *AccountRepositoryMSSQL) Upsert(ctx context.Context, a *model.SocialAccount) error {
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	// MERGE upsert by (user_id, platform)
	q := `MERGE dbo.[social_accounts] AS target
USING (VALUES (@p2, @p3)) AS src(user_id, platform)
ON target.user_id = src.user_id AND target.platform = src.platform
WHEN MATCHED THEN UPDATE SET
    access_token=@p4,
    refresh_token=@p5,
    token_expires_at=@p6,
    platform_user_id=@p7,
    platform_username=@p8,
    updated_at=@p10
WHEN NOT MATCHED THEN
    INSERT (` + accountColumns + `)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10)
OUTPUT inserted.id, inserted.created_at;`
	row := r.db.QueryRowContext(ctx, q,
		a.ID, a.UserID, string(a.Platform), a.AccessToken, nullStringValue(a.RefreshToken), nullTime(a.TokenExpiresAt),
		a.PlatformUserID, nullStringValue(a.PlatformUsername), a.CreatedAt, a.UpdatedAt)
	return row.Scan(&a.ID, &a.CreatedAt)
}

func (r *AccountRepositoryMSSQL) GetByUserPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM dbo.[social_accounts] WHERE user_id=@p1 AND platform=@p2`, userID, string(platform))
	a, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *AccountRepositoryMSSQL) GetByID(ctx context.Context, id string) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM dbo.[social_accounts] WHERE id=@p1`, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *AccountRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]*model.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM dbo.[social_accounts] WHERE user_id=@p1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]*model.SocialAccount, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *AccountRepositoryMSSQL) UpdateTokens(ctx context.Context, a *model.SocialAccount) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[social_accounts] SET access_token=@p1, refresh_token=@p2, token_expires_at=@p3, updated_at=@p4 WHERE id=@p5`,
		a.AccessToken, nullStringValue(a.RefreshToken), nullTime(a.TokenExpiresAt), a.UpdatedAt, a.ID)
	return affectedOrNotFound(res, err)
}

func (r *AccountRepositoryMSSQL) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dbo.[social_accounts] WHERE id=@p1 AND user_id=@p2`, id, userID)
	return affectedOrNotFound(res, err)
}
