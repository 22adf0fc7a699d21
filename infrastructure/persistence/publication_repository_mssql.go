package persistence

import (
	"context"
	"database/sql"
	"time"

	"blog-social/domain/model"

	"github.com/google/uuid"
)

type PublicationRepositoryMSSQL struct{ db *sql.DB }

func NewPublicationRepositoryMSSQL(db *sql.DB) *PublicationRepositoryMSSQL {
	return &PublicationRepositoryMSSQL{db: db}
}

func (r *PublicationRepositoryMSSQL) Create(ctx context.Context, p *model.SocialPublication) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO dbo.[social_publications] (`+publicationColumns+`)
		VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10,@p11,@p12)`,
		p.ID, p.PostID, p.SocialAccountID, string(p.Platform), string(p.Status),
		nullString(p.ExternalURL), nullString(p.ExternalID), nullTime(p.ScheduledAt), nullTime(p.PublishedAt),
		nullString(p.ErrorMessage), p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PublicationRepositoryMSSQL) Update(ctx context.Context, p *model.SocialPublication) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[social_publications] SET status=@p1, external_url=@p2, external_id=@p3,
		scheduled_at=@p4, published_at=@p5, error_message=@p6, updated_at=@p7 WHERE id=@p8`,
		string(p.Status), nullString(p.ExternalURL), nullString(p.ExternalID), nullTime(p.ScheduledAt),
		nullTime(p.PublishedAt), nullString(p.ErrorMessage), p.UpdatedAt, p.ID)
	return affectedOrNotFound(res, err)
}

func (r *PublicationRepositoryMSSQL) ListByPost(ctx context.Context, postID string) ([]*model.SocialPublication, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+publicationColumns+` FROM dbo.[social_publications] WHERE post_id=@p1 ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	return collectPublications(rows)
}

func (r *PublicationRepositoryMSSQL) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.SocialPublication, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p3) `+publicationColumns+` FROM dbo.[social_publications]
		WHERE status=@p1 AND scheduled_at <= @p2 ORDER BY scheduled_at ASC`,
		string(model.StatusScheduled), now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	return collectPublications(rows)
}

func (r *PublicationRepositoryMSSQL) Claim(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[social_publications] SET status=@p1, updated_at=@p2 WHERE id=@p3 AND status=@p4`,
		string(model.StatusPending), time.Now().UTC(), id, string(model.StatusScheduled))
	return claimed(res, err)
}
