package persistence

import (
	"context"
	"database/sql"

	"blog-social/domain/model"

	"github.com/google/uuid"
)

// StatsRepository appends engagement snapshots; the table is never updated in place.
type StatsRepository struct {
	db     *sql.DB
	vendor string
}

// NewStatsRepository supports "postgres" (default) and "mssql" placeholder styles.
func NewStatsRepository(db *sql.DB, vendor string) *StatsRepository {
	return &StatsRepository{db: db, vendor: vendor}
}

func (r *StatsRepository) Append(ctx context.Context, s *model.SocialStats) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	q := `INSERT INTO social_stats (` + statsColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if r.vendor == "mssql" {
		q = `INSERT INTO dbo.[social_stats] (` + statsColumns + `) VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7)`
	}
	_, err := r.db.ExecContext(ctx, q, s.ID, s.PublicationID, s.Views, s.Likes, s.Comments, s.Shares, s.CollectedAt.UTC())
	return err
}

func (r *StatsRepository) ListByPublication(ctx context.Context, publicationID string) ([]*model.SocialStats, error) {
	q := `SELECT ` + statsColumns + ` FROM social_stats WHERE publication_id=$1 ORDER BY collected_at ASC`
	if r.vendor == "mssql" {
		q = `SELECT ` + statsColumns + ` FROM dbo.[social_stats] WHERE publication_id=@p1 ORDER BY collected_at ASC`
	}
	rows, err := r.db.QueryContext(ctx, q, publicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]*model.SocialStats, 0)
	for rows.Next() {
		s, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
