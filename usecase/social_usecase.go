package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog-social/domain/model"
	"blog-social/domain/repository"
	"blog-social/infrastructure/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRequestTimeout = 15 * time.Second
	recordWriteTimeout    = 10 * time.Second
)

type ISocialUsecase interface {
	// PublishPost adapts the post and publishes it to every requested platform.
	PublishPost(ctx context.Context, req model.PublishRequest) ([]model.PublishResult, error)
	Publish(ctx context.Context, req model.PublishRequest, content map[model.Platform]model.AdaptedContent) ([]model.PublishResult, error)
	// PublishDue dispatches up to limit scheduled publications whose time has come.
	PublishDue(ctx context.Context, limit int) (int, error)
	GetStats(ctx context.Context, userID, postID string) ([]model.SocialStats, error)
	ConnectAccount(ctx context.Context, platform, code, userID string) (model.SocialAccount, error)
	ListAccounts(ctx context.Context, userID string) ([]*model.SocialAccount, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
	ListPublications(ctx context.Context, userID, postID string) ([]*model.SocialPublication, error)
	AuthURL(ctx context.Context, platform, state string) (string, error)
}

type Broadcaster func(evt model.PublicationStatusEvent)

type SocialOption func(*socialUsecase)

func WithBroadcaster(b Broadcaster) SocialOption {
	return func(u *socialUsecase) { u.broadcast = b }
}

func WithEvents(p repository.IEventPublisher) SocialOption {
	return func(u *socialUsecase) { u.events = p }
}

func WithRequestTimeout(d time.Duration) SocialOption {
	return func(u *socialUsecase) {
		if d > 0 {
			u.timeout = d
		}
	}
}

// WithParallelPublish runs the platforms of one request concurrently.
func WithParallelPublish(enabled bool) SocialOption {
	return func(u *socialUsecase) { u.parallel = enabled }
}

func WithClock(now func() time.Time) SocialOption {
	return func(u *socialUsecase) { u.now = now }
}

type socialUsecase struct {
	registry     repository.IAdapterRegistry
	accounts     repository.IAccountRepository
	publications repository.IPublicationRepository
	stats        repository.IStatsRepository
	content      IContentUsecase
	posts        repository.IPostSource
	refresher    ITokenRefresher

	events    repository.IEventPublisher
	broadcast Broadcaster
	timeout   time.Duration
	parallel  bool
	now       func() time.Time
}

func NewSocialUsecase(
	registry repository.IAdapterRegistry,
	accounts repository.IAccountRepository,
	publications repository.IPublicationRepository,
	stats repository.IStatsRepository,
	content IContentUsecase,
	posts repository.IPostSource,
	refresher ITokenRefresher,
	opts ...SocialOption,
) ISocialUsecase {
	u := &socialUsecase{
		registry:     registry,
		accounts:     accounts,
		publications: publications,
		stats:        stats,
		content:      content,
		posts:        posts,
		refresher:    refresher,
		timeout:      defaultRequestTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func validatePublishRequest(req *model.PublishRequest) error {
	if req.PostID == "" {
		return &model.ValidationError{Field: "postId", Message: "is required"}
	}
	if req.UserID == "" {
		return &model.ValidationError{Field: "userId", Message: "is required"}
	}
	if len(req.Platforms) == 0 {
		return &model.ValidationError{Field: "platforms", Message: "at least one platform is required"}
	}
	platforms := make([]model.Platform, len(req.Platforms))
	for i, p := range req.Platforms {
		parsed, err := model.ParsePlatform(string(p))
		if err != nil {
			return err
		}
		platforms[i] = parsed
	}
	req.Platforms = platforms
	return nil
}

// authorizePost fails with ErrNotFound unless userID wrote the post, so
// callers cannot tell foreign posts from missing ones.
func (u *socialUsecase) authorizePost(ctx context.Context, userID, postID string) error {
	post, err := u.posts.GetCanonicalPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID == "" || post.AuthorID != userID {
		logger.GetLogger().WithField("post_id", postID).WithField("user_id", userID).Warn("Rejected access to a post owned by another user")
		return model.ErrNotFound
	}
	return nil
}

func (u *socialUsecase) PublishPost(ctx context.Context, req model.PublishRequest) ([]model.PublishResult, error) {
	if err := validatePublishRequest(&req); err != nil {
		return nil, err
	}
	if err := u.authorizePost(ctx, req.UserID, req.PostID); err != nil {
		return nil, err
	}
	content, err := u.content.AdaptContent(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	return u.publish(ctx, req, content)
}

func (u *socialUsecase) Publish(ctx context.Context, req model.PublishRequest, content map[model.Platform]model.AdaptedContent) ([]model.PublishResult, error) {
	if err := validatePublishRequest(&req); err != nil {
		return nil, err
	}
	if err := u.authorizePost(ctx, req.UserID, req.PostID); err != nil {
		return nil, err
	}
	return u.publish(ctx, req, content)
}

func (u *socialUsecase) publish(ctx context.Context, req model.PublishRequest, content map[model.Platform]model.AdaptedContent) ([]model.PublishResult, error) {
	adapters := make([]repository.IPlatformAdapter, len(req.Platforms))
	for i, p := range req.Platforms {
		adapter, err := u.registry.Get(p)
		if err != nil {
			return nil, err
		}
		adapters[i] = adapter
	}

	results := make([]model.PublishResult, len(req.Platforms))
	if u.parallel && len(adapters) > 1 {
		var g errgroup.Group
		for i := range adapters {
			g.Go(func() error {
				results[i] = u.publishOne(ctx, req, adapters[i], content)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range adapters {
			results[i] = u.publishOne(ctx, req, adapters[i], content)
		}
	}
	return results, nil
}

func (u *socialUsecase) publishOne(ctx context.Context, req model.PublishRequest, adapter repository.IPlatformAdapter, content map[model.Platform]model.AdaptedContent) model.PublishResult {
	platform := adapter.Platform()
	lg := logger.GetLogger().WithField("platform", platform).WithField("post_id", req.PostID)

	account, err := u.accounts.GetByUserPlatform(ctx, req.UserID, platform)
	if errors.Is(err, model.ErrNotFound) {
		return model.FailedResult(platform, fmt.Errorf("no connected %s account for this user", platform))
	}
	if err != nil {
		lg.WithField("error", err).Error("Error loading social account")
		return model.FailedResult(platform, fmt.Errorf("failed to load %s account: %w", platform, err))
	}

	pub := &model.SocialPublication{PostID: req.PostID, SocialAccountID: account.ID, Platform: platform}

	if req.ScheduledAt != nil && req.ScheduledAt.After(u.now()) {
		at := req.ScheduledAt.UTC()
		pub.Status = model.StatusScheduled
		pub.ScheduledAt = &at
		if err := u.publications.Create(ctx, pub); err != nil {
			lg.WithField("error", err).Error("Error saving scheduled publication")
			return model.FailedResult(platform, fmt.Errorf("failed to schedule publication: %w", err))
		}
		res := model.PublishResult{Success: true, Platform: platform, Status: model.StatusScheduled, PublicationID: pub.ID}
		u.notify(account.UserID, req.PostID, res)
		return res
	}

	var res model.PublishResult
	if c, ok := content[platform]; !ok {
		res = model.FailedResult(platform, fmt.Errorf("no adapted content for %s", platform))
	} else {
		acc := u.refresher.Ensure(ctx, adapter, *account)
		res = u.invoke(ctx, adapter, acc, c)
	}

	applyResult(pub, res, u.now())
	writeCtx, cancel := recordContext(ctx)
	defer cancel()
	if err := u.publications.Create(writeCtx, pub); err != nil {
		u.recordFailed(writeCtx, account, req.PostID, &res, err)
	} else {
		res.PublicationID = pub.ID
	}
	u.notify(account.UserID, req.PostID, res)
	return res
}

// recordContext outlives the caller: once the adapter was called the
// outcome must be written even if the request or job was cancelled.
func recordContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), recordWriteTimeout)
}

// invoke calls the adapter under the per-call timeout and turns a panic into a failed result.
func (u *socialUsecase) invoke(ctx context.Context, adapter repository.IPlatformAdapter, account model.SocialAccount, content model.AdaptedContent) (res model.PublishResult) {
	platform := adapter.Platform()
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().WithField("platform", platform).WithField("account_id", account.ID).WithField("error", r).
				Error("Adapter panic recovered")
			res = model.FailedResult(platform, fmt.Errorf("%s adapter failed unexpectedly: %v", platform, r))
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	res = adapter.Publish(callCtx, account, content)
	res.Platform = platform
	if !res.Success {
		return model.FailedResult(platform, errors.New(res.ErrorMessage))
	}
	if res.Status == "" || res.Status == model.StatusFailed {
		res.Status = model.StatusPublished
	}
	return res
}

func applyResult(pub *model.SocialPublication, res model.PublishResult, now time.Time) {
	pub.Status = res.Status
	pub.ExternalID = model.StringPtr(res.ExternalID)
	pub.ExternalURL = model.StringPtr(res.ExternalURL)
	pub.ErrorMessage = nil
	if res.Success {
		at := now.UTC()
		pub.PublishedAt = &at
	} else {
		pub.ErrorMessage = model.StringPtr(res.ErrorMessage)
	}
}

// recordFailed handles a publication row that could not be written. After a
// successful publish the external post is live but untracked.
func (u *socialUsecase) recordFailed(ctx context.Context, account *model.SocialAccount, postID string, res *model.PublishResult, cause error) {
	lg := logger.GetLogger().WithField("platform", res.Platform).WithField("post_id", postID).WithField("account_id", account.ID)
	if !res.Success {
		lg.WithField("error", cause).Error("Error saving failed publication attempt")
		return
	}

	perr := &model.PartialPersistenceError{Platform: res.Platform, PostID: postID, ExternalID: res.ExternalID, Err: cause}
	res.PersistenceError = perr.Error()
	lg.WithField("failure", "partial_persistence").
		WithField("external_id", res.ExternalID).
		WithField("external_url", res.ExternalURL).
		WithField("error", cause).
		Error("Published externally but failed to record publication")

	if u.events == nil {
		return
	}
	event := model.ReconcileEvent{
		ID:              uuid.NewString(),
		Type:            model.EventPublicationReconcile,
		PostID:          postID,
		Platform:        res.Platform,
		SocialAccountID: account.ID,
		ExternalID:      res.ExternalID,
		ExternalURL:     res.ExternalURL,
		Error:           cause.Error(),
		OccurredAt:      u.now().UTC(),
	}
	if err := u.events.PublishReconcile(context.WithoutCancel(ctx), event); err != nil {
		lg.WithField("error", err).Error("Error emitting reconcile event")
	}
}

func (u *socialUsecase) notify(userID, postID string, res model.PublishResult) {
	if u.broadcast == nil {
		return
	}
	u.broadcast(model.PublicationStatusEvent{
		UserID:        userID,
		PostID:        postID,
		PublicationID: res.PublicationID,
		Platform:      res.Platform,
		Status:        res.Status,
		ExternalURL:   res.ExternalURL,
		Error:         res.ErrorMessage,
	})
}

func (u *socialUsecase) PublishDue(ctx context.Context, limit int) (int, error) {
	due, err := u.publications.ListDueScheduled(ctx, u.now(), limit)
	if err != nil {
		return 0, err
	}
	dispatched := 0
	for _, pub := range due {
		if ctx.Err() != nil {
			return dispatched, ctx.Err()
		}
		if u.dispatchScheduled(ctx, pub) {
			dispatched++
		}
	}
	return dispatched, nil
}

// dispatchScheduled publishes one due record. It returns false when the record
// was left scheduled to be retried on the next run or another worker claimed it.
func (u *socialUsecase) dispatchScheduled(ctx context.Context, pub *model.SocialPublication) bool {
	lg := logger.GetLogger().WithField("platform", pub.Platform).WithField("post_id", pub.PostID).WithField("publication_id", pub.ID)

	account, err := u.accounts.GetByID(ctx, pub.SocialAccountID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		lg.WithField("error", err).Warn("Error loading account for scheduled publication, will retry")
		return false
	}

	var (
		res     model.PublishResult
		adapter repository.IPlatformAdapter
		content model.AdaptedContent
	)
	switch {
	case account == nil:
		res = model.FailedResult(pub.Platform, fmt.Errorf("social account %s is no longer connected", pub.SocialAccountID))
		account = &model.SocialAccount{ID: pub.SocialAccountID}
	default:
		adapter, err = u.registry.Get(pub.Platform)
		if err != nil {
			res = model.FailedResult(pub.Platform, err)
			adapter = nil
			break
		}
		contents, err := u.content.AdaptContent(ctx, pub.PostID)
		if errors.Is(err, model.ErrNotFound) {
			res = model.FailedResult(pub.Platform, fmt.Errorf("post %s no longer exists", pub.PostID))
			adapter = nil
			break
		}
		if err != nil {
			lg.WithField("error", err).Warn("Error adapting content for scheduled publication, will retry")
			return false
		}
		c, ok := contents[pub.Platform]
		if !ok {
			res = model.FailedResult(pub.Platform, fmt.Errorf("no adapted content for %s", pub.Platform))
			adapter = nil
			break
		}
		content = c
	}

	won, err := u.publications.Claim(ctx, pub.ID)
	if err != nil {
		lg.WithField("error", err).Warn("Error claiming scheduled publication, will retry")
		return false
	}
	if !won {
		lg.Info("Scheduled publication already claimed by another worker")
		return false
	}
	pub.Status = model.StatusPending

	if adapter != nil {
		acc := u.refresher.Ensure(ctx, adapter, *account)
		res = u.invoke(ctx, adapter, acc, content)
	}

	applyResult(pub, res, u.now())
	writeCtx, cancel := recordContext(ctx)
	defer cancel()
	if err := u.publications.Update(writeCtx, pub); err != nil {
		u.recordFailed(writeCtx, account, pub.PostID, &res, err)
	} else {
		res.PublicationID = pub.ID
	}
	u.notify(account.UserID, pub.PostID, res)
	return true
}

func (u *socialUsecase) GetStats(ctx context.Context, userID, postID string) ([]model.SocialStats, error) {
	if postID == "" {
		return nil, &model.ValidationError{Field: "postId", Message: "is required"}
	}
	if err := u.authorizePost(ctx, userID, postID); err != nil {
		return nil, err
	}
	pubs, err := u.publications.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	out := make([]model.SocialStats, 0, len(pubs))
	for _, pub := range pubs {
		lg := logger.GetLogger().WithField("platform", pub.Platform).WithField("publication_id", pub.ID)
		adapter, err := u.registry.Get(pub.Platform)
		if err != nil {
			lg.WithField("error", err).Warn("Skipping stats for unregistered platform")
			continue
		}
		st, err := u.collectStats(ctx, adapter, *pub)
		if err != nil {
			lg.WithField("error", err).Error("Error getting stats for publication")
			continue
		}
		if st.PublicationID == "" {
			st.PublicationID = pub.ID
		}
		if st.CollectedAt.IsZero() {
			st.CollectedAt = u.now().UTC()
		}
		if u.stats != nil {
			if err := u.stats.Append(ctx, &st); err != nil {
				lg.WithField("error", err).Error("Error saving stats snapshot")
			}
		}
		out = append(out, st)
	}
	return out, nil
}

func (u *socialUsecase) collectStats(ctx context.Context, adapter repository.IPlatformAdapter, pub model.SocialPublication) (st model.SocialStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s adapter failed unexpectedly: %v", pub.Platform, r)
		}
	}()
	callCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	return adapter.GetStats(callCtx, pub)
}

func (u *socialUsecase) ConnectAccount(ctx context.Context, platform, code, userID string) (model.SocialAccount, error) {
	p, err := model.ParsePlatform(platform)
	if err != nil {
		return model.SocialAccount{}, err
	}
	if userID == "" {
		return model.SocialAccount{}, &model.ValidationError{Field: "userId", Message: "is required"}
	}
	if code == "" {
		return model.SocialAccount{}, &model.ValidationError{Field: "code", Message: "is required"}
	}
	adapter, err := u.registry.Get(p)
	if err != nil {
		return model.SocialAccount{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	account, err := adapter.Connect(callCtx, code)
	if err != nil {
		logger.GetLogger().WithField("platform", p).WithField("error", err).Warn("Error connecting social account")
		return model.SocialAccount{}, err
	}
	account.UserID = userID
	account.Platform = p
	if err := u.accounts.Upsert(ctx, &account); err != nil {
		return model.SocialAccount{}, fmt.Errorf("failed to save %s account: %w", p, err)
	}
	logger.GetLogger().WithField("platform", p).WithField("account_id", account.ID).Info("Social account connected")
	return account, nil
}

func (u *socialUsecase) ListAccounts(ctx context.Context, userID string) ([]*model.SocialAccount, error) {
	if userID == "" {
		return nil, &model.ValidationError{Field: "userId", Message: "is required"}
	}
	return u.accounts.ListByUser(ctx, userID)
}

func (u *socialUsecase) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if accountID == "" {
		return &model.ValidationError{Field: "id", Message: "is required"}
	}
	return u.accounts.Delete(ctx, userID, accountID)
}

func (u *socialUsecase) ListPublications(ctx context.Context, userID, postID string) ([]*model.SocialPublication, error) {
	if postID == "" {
		return nil, &model.ValidationError{Field: "postId", Message: "is required"}
	}
	if err := u.authorizePost(ctx, userID, postID); err != nil {
		return nil, err
	}
	return u.publications.ListByPost(ctx, postID)
}

func (u *socialUsecase) AuthURL(_ context.Context, platform, state string) (string, error) {
	p, err := model.ParsePlatform(platform)
	if err != nil {
		return "", err
	}
	adapter, err := u.registry.Get(p)
	if err != nil {
		return "", err
	}
	return adapter.AuthURL(state)
}
