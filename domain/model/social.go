package model

import (
	"strings"
	"time"
)

// Platform identifies an external social network
type Platform string

const (
	PlatformVK       Platform = "vk"
	PlatformTelegram Platform = "telegram"
	PlatformThread   Platform = "thread"
)

// SupportedPlatforms is the closed set of platforms the service can publish to.
var SupportedPlatforms = []Platform{PlatformVK, PlatformTelegram, PlatformThread}

// ParsePlatform normalizes and validates a platform identifier.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, sp := range SupportedPlatforms {
		if p == sp {
			return p, nil
		}
	}
	return "", &ValidationError{Field: "platform", Message: "unsupported platform: " + s}
}

// PublicationStatus is the lifecycle state of a publication attempt
type PublicationStatus string

const (
	StatusPending   PublicationStatus = "pending"
	StatusPublished PublicationStatus = "published"
	StatusFailed    PublicationStatus = "failed"
	StatusScheduled PublicationStatus = "scheduled"
)

// SocialAccount binds a local user to one external platform credential
type SocialAccount struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	Platform         Platform   `json:"platform"`
	AccessToken      string     `json:"-"`
	RefreshToken     string     `json:"-"`
	TokenExpiresAt   *time.Time `json:"tokenExpiresAt,omitempty"`
	PlatformUserID   string     `json:"platformUserId"`
	PlatformUsername string     `json:"platformUsername,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// TokenValid reports whether the access token can be used at the given instant.
// Tokens without an expiry (VK offline tokens, Telegram bot tokens) never go stale.
func (a SocialAccount) TokenValid(now time.Time) bool {
	if a.AccessToken == "" {
		return false
	}
	if a.TokenExpiresAt == nil {
		return true
	}
	return a.TokenExpiresAt.After(now)
}

// AdaptedContent is the platform-shaped payload derived from a canonical post
type AdaptedContent struct {
	Title  string   `json:"title"`
	Text   string   `json:"text"`
	Images []string `json:"images"`
	Link   string   `json:"link,omitempty"`
}

// PublishRequest is one publish invocation for a post across several platforms
type PublishRequest struct {
	PostID      string     `json:"postId"`
	UserID      string     `json:"-"`
	Platforms   []Platform `json:"platforms"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

// PublishResult is the outcome of publishing to a single platform
type PublishResult struct {
	Success          bool              `json:"success"`
	Platform         Platform          `json:"platform"`
	Status           PublicationStatus `json:"status"`
	PublicationID    string            `json:"publicationId,omitempty"`
	ExternalID       string            `json:"externalId,omitempty"`
	ExternalURL      string            `json:"externalUrl,omitempty"`
	ErrorMessage     string            `json:"errorMessage,omitempty"`
	PersistenceError string            `json:"persistenceError,omitempty"`
}

// FailedResult builds a failed result; the message is never empty.
func FailedResult(platform Platform, err error) PublishResult {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return PublishResult{Success: false, Platform: platform, Status: StatusFailed, ErrorMessage: msg}
}

// SocialPublication is the durable record of a publish attempt
type SocialPublication struct {
	ID              string            `json:"id"`
	PostID          string            `json:"postId"`
	SocialAccountID string            `json:"socialAccountId"`
	Platform        Platform          `json:"platform"`
	Status          PublicationStatus `json:"status"`
	ExternalURL     *string           `json:"externalUrl,omitempty"`
	ExternalID      *string           `json:"externalId,omitempty"`
	ScheduledAt     *time.Time        `json:"scheduledAt,omitempty"`
	PublishedAt     *time.Time        `json:"publishedAt,omitempty"`
	ErrorMessage    *string           `json:"errorMessage,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// SocialStats is an append-only engagement snapshot for one publication
type SocialStats struct {
	ID            string    `json:"id" bson:"_id"`
	PublicationID string    `json:"publicationId" bson:"publication_id"`
	Views         int64     `json:"views" bson:"views"`
	Likes         int64     `json:"likes" bson:"likes"`
	Comments      int64     `json:"comments" bson:"comments"`
	Shares        int64     `json:"shares" bson:"shares"`
	CollectedAt   time.Time `json:"collectedAt" bson:"collected_at"`
}

// EmptyStats returns a zero-count snapshot for platforms without a stats API.
func EmptyStats(publicationID string, now time.Time) SocialStats {
	return SocialStats{PublicationID: publicationID, CollectedAt: now}
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
