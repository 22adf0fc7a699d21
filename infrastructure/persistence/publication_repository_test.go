package persistence

import (
	"context"
	"testing"
	"time"

	"blog-social/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var publicationCols = []string{"id", "post_id", "social_account_id", "platform", "status", "external_url", "external_id", "scheduled_at", "published_at", "error_message", "created_at", "updated_at"}

func TestPublicationRepository_CreateFailedAttempt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO social_publications`).
		WithArgs(sqlmock.AnyArg(), "p1", "a1", "vk", "failed", nil, nil, nil, nil, "Access denied", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	pub := &model.SocialPublication{PostID: "p1", SocialAccountID: "a1", Platform: model.PlatformVK, Status: model.StatusFailed,
		ErrorMessage: model.StringPtr("Access denied")}
	require.NoError(t, NewPublicationRepository(db).Create(context.Background(), pub))
	assert.NotEmpty(t, pub.ID)
	assert.False(t, pub.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationRepository_UpdateMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE social_publications SET status=\$1`).WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPublicationRepository(db).Update(context.Background(), &model.SocialPublication{ID: "x", Status: model.StatusPublished})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPublicationRepository_ListByPost(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM social_publications WHERE post_id=\$1 ORDER BY created_at`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(publicationCols).
			AddRow("pub1", "p1", "a1", "telegram", "published", "https://t.me/c/5", "5", nil, now, nil, now, now).
			AddRow("pub2", "p1", "a2", "thread", "failed", nil, nil, nil, nil, "no image", now, now))

	list, err := NewPublicationRepository(db).ListByPost(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "https://t.me/c/5", *list[0].ExternalURL)
	assert.Equal(t, now, *list[0].PublishedAt)
	assert.Nil(t, list[1].ExternalID)
	assert.Equal(t, "no image", *list[1].ErrorMessage)
	assert.Equal(t, model.StatusFailed, list[1].Status)
}

func TestPublicationRepository_ListDueScheduled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM social_publications\s+WHERE status=\$1 AND scheduled_at <= \$2 ORDER BY scheduled_at ASC LIMIT \$3`).
		WithArgs("scheduled", now, 20).
		WillReturnRows(sqlmock.NewRows(publicationCols).
			AddRow("pub1", "p1", "a1", "vk", "scheduled", nil, nil, now.Add(-time.Minute), nil, nil, now, now))

	list, err := NewPublicationRepository(db).ListDueScheduled(context.Background(), now, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.StatusScheduled, list[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationRepositoryMSSQL_ListDueScheduledUsesTop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT TOP \(@p3\) .* FROM dbo\.\[social_publications\]`).
		WithArgs("scheduled", now, 5).
		WillReturnRows(sqlmock.NewRows(publicationCols))

	list, err := NewPublicationRepositoryMSSQL(db).ListDueScheduled(context.Background(), now, 5)
	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationRepository_ClaimOnlyScheduledRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE social_publications SET status=\$1, updated_at=\$2 WHERE id=\$3 AND status=\$4`).
		WithArgs("pending", sqlmock.AnyArg(), "pub1", "scheduled").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE social_publications SET status=\$1, updated_at=\$2 WHERE id=\$3 AND status=\$4`).
		WithArgs("pending", sqlmock.AnyArg(), "pub1", "scheduled").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPublicationRepository(db)
	ok, err := repo.Claim(context.Background(), "pub1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Claim(context.Background(), "pub1")
	require.NoError(t, err)
	assert.False(t, ok, "a second worker must not win the same row")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationRepositoryMSSQL_Claim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE dbo.\[social_publications\] SET status=@p1, updated_at=@p2 WHERE id=@p3 AND status=@p4`).
		WithArgs("pending", sqlmock.AnyArg(), "pub9", "scheduled").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := NewPublicationRepositoryMSSQL(db).Claim(context.Background(), "pub9")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
