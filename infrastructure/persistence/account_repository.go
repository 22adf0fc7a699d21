package persistence

import (
	"context"
	"database/sql"
	"time"

	"blog-social/domain/model"

	"github.com/google/uuid"
)

// AccountRepository stores social accounts in PostgreSQL
type AccountRepository struct{ db *sql.DB }

func NewAccountRepository(db *sql.DB) *AccountRepository { return &AccountRepository{db: db} }

func (r *AccountRepository) Upsert(ctx context.Context, a *model.SocialAccount) error {
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	q := `INSERT INTO social_accounts (` + accountColumns + `)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			token_expires_at=EXCLUDED.token_expires_at,
			platform_user_id=EXCLUDED.platform_user_id,
			platform_username=EXCLUDED.platform_username,
			updated_at=EXCLUDED.updated_at
		  RETURNING id, created_at`
	row := r.db.QueryRowContext(ctx, q,
		a.ID, a.UserID, string(a.Platform), a.AccessToken, nullStringValue(a.RefreshToken), nullTime(a.TokenExpiresAt),
		a.PlatformUserID, nullStringValue(a.PlatformUsername), a.CreatedAt, a.UpdatedAt)
	// an existing (user, platform) row keeps its id and creation time
	return row.Scan(&a.ID, &a.CreatedAt)
}

func (r *AccountRepository) GetByUserPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM social_accounts WHERE user_id=$1 AND platform=$2`, userID, string(platform))
	a, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM social_accounts WHERE id=$1`, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID string) ([]*model.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM social_accounts WHERE user_id=$1 ORDER BY created_at ASC`, userID)
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

func (r *AccountRepository) UpdateTokens(ctx context.Context, a *model.SocialAccount) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE social_accounts SET access_token=$1, refresh_token=$2, token_expires_at=$3, updated_at=$4 WHERE id=$5`,
		a.AccessToken, nullStringValue(a.RefreshToken), nullTime(a.TokenExpiresAt), a.UpdatedAt, a.ID)
	return affectedOrNotFound(res, err)
}

func (r *AccountRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM social_accounts WHERE id=$1 AND user_id=$2`, id, userID)
	return affectedOrNotFound(res, err)
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
