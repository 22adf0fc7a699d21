package usecase_test

import (
	"context"
	"time"

	"blog-social/domain/model"

	"github.com/stretchr/testify/mock"
)

type MockAdapter struct {
	mock.Mock
	platform model.Platform
}

func NewMockAdapter(p model.Platform) *MockAdapter { return &MockAdapter{platform: p} }

func (m *MockAdapter) Platform() model.Platform { return m.platform }

func (m *MockAdapter) Connect(ctx context.Context, code string) (model.SocialAccount, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(model.SocialAccount), args.Error(1)
}

func (m *MockAdapter) Publish(ctx context.Context, account model.SocialAccount, content model.AdaptedContent) model.PublishResult {
	args := m.Called(ctx, account, content)
	return args.Get(0).(model.PublishResult)
}

func (m *MockAdapter) GetStats(ctx context.Context, publication model.SocialPublication) (model.SocialStats, error) {
	args := m.Called(ctx, publication)
	return args.Get(0).(model.SocialStats), args.Error(1)
}

func (m *MockAdapter) RefreshToken(ctx context.Context, account model.SocialAccount) (model.SocialAccount, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(model.SocialAccount), args.Error(1)
}

func (m *MockAdapter) AuthURL(state string) (string, error) {
	args := m.Called(state)
	return args.String(0), args.Error(1)
}

type MockAccountRepository struct{ mock.Mock }

func (m *MockAccountRepository) Upsert(ctx context.Context, account *model.SocialAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) GetByUserPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialAccount, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialAccount), args.Error(1)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*model.SocialAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialAccount), args.Error(1)
}

func (m *MockAccountRepository) ListByUser(ctx context.Context, userID string) ([]*model.SocialAccount, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*model.SocialAccount), args.Error(1)
}

func (m *MockAccountRepository) UpdateTokens(ctx context.Context, account *model.SocialAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

type MockPublicationRepository struct{ mock.Mock }

func (m *MockPublicationRepository) Create(ctx context.Context, publication *model.SocialPublication) error {
	return m.Called(ctx, publication).Error(0)
}

func (m *MockPublicationRepository) Update(ctx context.Context, publication *model.SocialPublication) error {
	return m.Called(ctx, publication).Error(0)
}

func (m *MockPublicationRepository) ListByPost(ctx context.Context, postID string) ([]*model.SocialPublication, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).([]*model.SocialPublication), args.Error(1)
}

func (m *MockPublicationRepository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.SocialPublication, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]*model.SocialPublication), args.Error(1)
}

func (m *MockPublicationRepository) Claim(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockStatsRepository struct{ mock.Mock }

func (m *MockStatsRepository) Append(ctx context.Context, stats *model.SocialStats) error {
	return m.Called(ctx, stats).Error(0)
}

func (m *MockStatsRepository) ListByPublication(ctx context.Context, publicationID string) ([]*model.SocialStats, error) {
	args := m.Called(ctx, publicationID)
	return args.Get(0).([]*model.SocialStats), args.Error(1)
}

type MockPostSource struct{ mock.Mock }

func (m *MockPostSource) GetCanonicalPost(ctx context.Context, postID string) (*model.CanonicalPost, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CanonicalPost), args.Error(1)
}

type MockContentCache struct{ mock.Mock }

func (m *MockContentCache) Get(ctx context.Context, postID string) (map[model.Platform]model.AdaptedContent, bool, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(map[model.Platform]model.AdaptedContent), args.Bool(1), args.Error(2)
}

func (m *MockContentCache) Set(ctx context.Context, postID string, content map[model.Platform]model.AdaptedContent) error {
	return m.Called(ctx, postID, content).Error(0)
}

type MockContentUsecase struct{ mock.Mock }

func (m *MockContentUsecase) AdaptContent(ctx context.Context, postID string) (map[model.Platform]model.AdaptedContent, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.Platform]model.AdaptedContent), args.Error(1)
}

type MockRefreshLock struct{ mock.Mock }

func (m *MockRefreshLock) Acquire(ctx context.Context, accountID string) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshLock) Release(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) PublishReconcile(ctx context.Context, event model.ReconcileEvent) error {
	return m.Called(ctx, event).Error(0)
}

type MockSocialUsecase struct{ mock.Mock }

func (m *MockSocialUsecase) PublishPost(ctx context.Context, req model.PublishRequest) ([]model.PublishResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PublishResult), args.Error(1)
}

func (m *MockSocialUsecase) Publish(ctx context.Context, req model.PublishRequest, content map[model.Platform]model.AdaptedContent) ([]model.PublishResult, error) {
	args := m.Called(ctx, req, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PublishResult), args.Error(1)
}

func (m *MockSocialUsecase) PublishDue(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockSocialUsecase) GetStats(ctx context.Context, userID, postID string) ([]model.SocialStats, error) {
	args := m.Called(ctx, userID, postID)
	return args.Get(0).([]model.SocialStats), args.Error(1)
}

func (m *MockSocialUsecase) ConnectAccount(ctx context.Context, platform, code, userID string) (model.SocialAccount, error) {
	args := m.Called(ctx, platform, code, userID)
	return args.Get(0).(model.SocialAccount), args.Error(1)
}

func (m *MockSocialUsecase) ListAccounts(ctx context.Context, userID string) ([]*model.SocialAccount, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*model.SocialAccount), args.Error(1)
}

func (m *MockSocialUsecase) DeleteAccount(ctx context.Context, userID, accountID string) error {
	return m.Called(ctx, userID, accountID).Error(0)
}

func (m *MockSocialUsecase) ListPublications(ctx context.Context, userID, postID string) ([]*model.SocialPublication, error) {
	args := m.Called(ctx, userID, postID)
	return args.Get(0).([]*model.SocialPublication), args.Error(1)
}

func (m *MockSocialUsecase) AuthURL(ctx context.Context, platform, state string) (string, error) {
	args := m.Called(ctx, platform, state)
	return args.String(0), args.Error(1)
}
