package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"blog-social/domain/model"
	"blog-social/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func staleAccount() model.SocialAccount {
	past := time.Now().Add(-time.Minute)
	return model.SocialAccount{ID: "acc-1", Platform: model.PlatformThread, AccessToken: "old", TokenExpiresAt: &past}
}

func TestEnsure_ValidTokenIsNotRefreshed(t *testing.T) {
	accounts := new(MockAccountRepository)
	adapter := NewMockAdapter(model.PlatformVK)
	r := usecase.NewTokenRefresher(accounts, nil)
	acc := model.SocialAccount{ID: "a", AccessToken: "offline"}

	got := r.Ensure(context.Background(), adapter, acc)

	assert.Equal(t, acc, got)
	adapter.AssertNotCalled(t, "RefreshToken", mock.Anything, mock.Anything)
}

func TestEnsure_StaleTokenRefreshedAndStored(t *testing.T) {
	accounts := new(MockAccountRepository)
	adapter := NewMockAdapter(model.PlatformThread)
	acc := staleAccount()
	future := time.Now().Add(time.Hour)
	fresh := acc
	fresh.AccessToken = "new"
	fresh.TokenExpiresAt = &future
	adapter.On("RefreshToken", mock.Anything, acc).Return(fresh, nil).Once()
	accounts.On("UpdateTokens", mock.Anything, &fresh).Return(nil).Once()

	got := usecase.NewTokenRefresher(accounts, nil).Ensure(context.Background(), adapter, acc)

	assert.Equal(t, "new", got.AccessToken)
	adapter.AssertExpectations(t)
	accounts.AssertExpectations(t)
}

func TestEnsure_ConcurrentCallersShareOneRefresh(t *testing.T) {
	accounts := new(MockAccountRepository)
	adapter := NewMockAdapter(model.PlatformThread)
	acc := staleAccount()
	future := time.Now().Add(time.Hour)
	fresh := acc
	fresh.AccessToken = "new"
	fresh.TokenExpiresAt = &future
	release := make(chan struct{})
	adapter.On("RefreshToken", mock.Anything, acc).
		Run(func(mock.Arguments) { <-release }).
		Return(fresh, nil)
	accounts.On("UpdateTokens", mock.Anything, mock.Anything).Return(nil)
	r := usecase.NewTokenRefresher(accounts, nil)

	var wg sync.WaitGroup
	got := make([]model.SocialAccount, 5)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = r.Ensure(context.Background(), adapter, acc)
		}()
	}
	// let every caller join the in-flight refresh
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	adapter.AssertNumberOfCalls(t, "RefreshToken", 1)
	accounts.AssertNumberOfCalls(t, "UpdateTokens", 1)
	for _, g := range got {
		assert.Equal(t, "new", g.AccessToken)
	}
}

func TestEnsure_LockHeldElsewhereReadsStoredAccount(t *testing.T) {
	accounts := new(MockAccountRepository)
	adapter := NewMockAdapter(model.PlatformThread)
	lock := new(MockRefreshLock)
	acc := staleAccount()
	future := time.Now().Add(time.Hour)
	stored := acc
	stored.AccessToken = "from-other-instance"
	stored.TokenExpiresAt = &future
	lock.On("Acquire", mock.Anything, "acc-1").Return(false, nil)
	accounts.On("GetByID", mock.Anything, "acc-1").Return(&stored, nil)

	got := usecase.NewTokenRefresher(accounts, lock).Ensure(context.Background(), adapter, acc)

	assert.Equal(t, "from-other-instance", got.AccessToken)
	adapter.AssertNotCalled(t, "RefreshToken", mock.Anything, mock.Anything)
	lock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestEnsure_LockAcquiredIsReleased(t *testing.T) {
	accounts := new(MockAccountRepository)
	adapter := NewMockAdapter(model.PlatformThread)
	lock := new(MockRefreshLock)
	acc := staleAccount()
	lock.On("Acquire", mock.Anything, "acc-1").Return(true, nil)
	lock.On("Release", mock.Anything, "acc-1").Return(nil).Once()
	adapter.On("RefreshToken", mock.Anything, acc).Return(acc, &model.ExternalAuthError{Platform: model.PlatformThread, Message: "expired"})

	got := usecase.NewTokenRefresher(accounts, lock).Ensure(context.Background(), adapter, acc)

	assert.Equal(t, acc, got)
	lock.AssertExpectations(t)
	accounts.AssertNotCalled(t, "UpdateTokens", mock.Anything, mock.Anything)
}

func TestEnsure_ReauthorizationRequiredKeepsAccount(t *testing.T) {
	accounts := new(MockAccountRepository)
	adapter := NewMockAdapter(model.PlatformVK)
	lock := new(MockRefreshLock)
	acc := staleAccount()
	acc.Platform = model.PlatformVK
	lock.On("Acquire", mock.Anything, "acc-1").Return(false, errors.New("redis down"))
	adapter.On("RefreshToken", mock.Anything, acc).Return(acc, model.ErrReauthorizationRequired)

	got := usecase.NewTokenRefresher(accounts, lock).Ensure(context.Background(), adapter, acc)

	assert.Equal(t, acc, got)
	adapter.AssertNumberOfCalls(t, "RefreshToken", 1)
	accounts.AssertNotCalled(t, "UpdateTokens", mock.Anything, mock.Anything)
}
