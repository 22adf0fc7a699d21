package persistence

import (
	"database/sql"
	"errors"
	"time"

	"blog-social/domain/model"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullStringValue(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}

const accountColumns = `id, user_id, platform, access_token, refresh_token, token_expires_at, platform_user_id, platform_username, created_at, updated_at`

func scanAccount(row rowScanner) (*model.SocialAccount, error) {
	a := &model.SocialAccount{}
	var (
		platform  string
		refresh   sql.NullString
		expiresAt sql.NullTime
		username  sql.NullString
	)
	if err := row.Scan(&a.ID, &a.UserID, &platform, &a.AccessToken, &refresh, &expiresAt, &a.PlatformUserID, &username, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Platform = model.Platform(platform)
	a.RefreshToken = refresh.String
	a.TokenExpiresAt = timePtr(expiresAt)
	a.PlatformUsername = username.String
	return a, nil
}

const publicationColumns = `id, post_id, social_account_id, platform, status, external_url, external_id, scheduled_at, published_at, error_message, created_at, updated_at`

func scanPublication(row rowScanner) (*model.SocialPublication, error) {
	p := &model.SocialPublication{}
	var (
		platform, status         string
		extURL, extID, errMsg    sql.NullString
		scheduledAt, publishedAt sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.PostID, &p.SocialAccountID, &platform, &status, &extURL, &extID, &scheduledAt, &publishedAt, &errMsg, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Platform = model.Platform(platform)
	p.Status = model.PublicationStatus(status)
	p.ExternalURL = stringPtr(extURL)
	p.ExternalID = stringPtr(extID)
	p.ScheduledAt = timePtr(scheduledAt)
	p.PublishedAt = timePtr(publishedAt)
	p.ErrorMessage = stringPtr(errMsg)
	return p, nil
}

const statsColumns = `id, publication_id, views, likes, comments, shares, collected_at`

func scanStats(row rowScanner) (*model.SocialStats, error) {
	s := &model.SocialStats{}
	if err := row.Scan(&s.ID, &s.PublicationID, &s.Views, &s.Likes, &s.Comments, &s.Shares, &s.CollectedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func claimed(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
