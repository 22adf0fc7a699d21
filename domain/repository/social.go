package repository

import (
	"context"
	"time"

	"blog-social/domain/model"
)

// IPlatformAdapter is implemented once per external network
type IPlatformAdapter interface {
	Platform() model.Platform
	// Connect exchanges an OAuth code (or, for Telegram, a channel handle) for a credential.
	Connect(ctx context.Context, code string) (model.SocialAccount, error)
	// Publish never returns an error: every failure is reported in the result.
	Publish(ctx context.Context, account model.SocialAccount, content model.AdaptedContent) model.PublishResult
	GetStats(ctx context.Context, publication model.SocialPublication) (model.SocialStats, error)
	RefreshToken(ctx context.Context, account model.SocialAccount) (model.SocialAccount, error)
	AuthURL(state string) (string, error)
}

// IAdapterRegistry resolves the adapter for a platform
type IAdapterRegistry interface {
	Get(platform model.Platform) (IPlatformAdapter, error)
	Platforms() []model.Platform
}

// IAccountRepository stores social account credentials
type IAccountRepository interface {
	// Upsert inserts or replaces the account for (user, platform); ID and timestamps are set on the argument.
	Upsert(ctx context.Context, account *model.SocialAccount) error
	GetByUserPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialAccount, error)
	GetByID(ctx context.Context, id string) (*model.SocialAccount, error)
	ListByUser(ctx context.Context, userID string) ([]*model.SocialAccount, error)
	UpdateTokens(ctx context.Context, account *model.SocialAccount) error
	Delete(ctx context.Context, userID, id string) error
}

// IPublicationRepository stores publication records
type IPublicationRepository interface {
	Create(ctx context.Context, publication *model.SocialPublication) error
	Update(ctx context.Context, publication *model.SocialPublication) error
	ListByPost(ctx context.Context, postID string) ([]*model.SocialPublication, error)
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.SocialPublication, error)
	// Claim moves a scheduled record to pending. It returns false when another worker got there first.
	Claim(ctx context.Context, id string) (bool, error)
}

// IStatsRepository appends engagement snapshots
type IStatsRepository interface {
	Append(ctx context.Context, stats *model.SocialStats) error
	ListByPublication(ctx context.Context, publicationID string) ([]*model.SocialStats, error)
}

// IPostSource loads the canonical content of a blog post
type IPostSource interface {
	GetCanonicalPost(ctx context.Context, postID string) (*model.CanonicalPost, error)
}

// IContentCache memoizes adapted content per post
type IContentCache interface {
	Get(ctx context.Context, postID string) (map[model.Platform]model.AdaptedContent, bool, error)
	Set(ctx context.Context, postID string, content map[model.Platform]model.AdaptedContent) error
}

// IRefreshLock serializes token refreshes for one account across processes
type IRefreshLock interface {
	Acquire(ctx context.Context, accountID string) (bool, error)
	Release(ctx context.Context, accountID string) error
}

// IEventPublisher emits operator-facing events
type IEventPublisher interface {
	PublishReconcile(ctx context.Context, event model.ReconcileEvent) error
}
