package persistence

import (
	"context"
	"database/sql"
	"time"

	"blog-social/domain/model"

	"github.com/google/uuid"
)

// PublicationRepository stores publication records in PostgreSQL
type PublicationRepository struct{ db *sql.DB }

func NewPublicationRepository(db *sql.DB) *PublicationRepository {
	return &PublicationRepository{db: db}
}

func (r *PublicationRepository) Create(ctx context.Context, p *model.SocialPublication) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO social_publications (`+publicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.PostID, p.SocialAccountID, string(p.Platform), string(p.Status),
		nullString(p.ExternalURL), nullString(p.ExternalID), nullTime(p.ScheduledAt), nullTime(p.PublishedAt),
		nullString(p.ErrorMessage), p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PublicationRepository) Update(ctx context.Context, p *model.SocialPublication) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE social_publications SET status=$1, external_url=$2, external_id=$3,
		scheduled_at=$4, published_at=$5, error_message=$6, updated_at=$7 WHERE id=$8`,
		string(p.Status), nullString(p.ExternalURL), nullString(p.ExternalID), nullTime(p.ScheduledAt),
		nullTime(p.PublishedAt), nullString(p.ErrorMessage), p.UpdatedAt, p.ID)
	return affectedOrNotFound(res, err)
}

func (r *PublicationRepository) ListByPost(ctx context.Context, postID string) ([]*model.SocialPublication, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+publicationColumns+` FROM social_publications WHERE post_id=$1 ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	return collectPublications(rows)
}

func (r *PublicationRepository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.SocialPublication, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+publicationColumns+` FROM social_publications
		WHERE status=$1 AND scheduled_at <= $2 ORDER BY scheduled_at ASC LIMIT $3`,
		string(model.StatusScheduled), now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	return collectPublications(rows)
}

func (r *PublicationRepository) Claim(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE social_publications SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		string(model.StatusPending), time.Now().UTC(), id, string(model.StatusScheduled))
	return claimed(res, err)
}

func collectPublications(rows *sql.Rows) ([]*model.SocialPublication, error) {
	defer rows.Close()
	list := make([]*model.SocialPublication, 0)
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
