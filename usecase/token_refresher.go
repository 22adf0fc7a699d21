package usecase

import (
	"context"
	"errors"
	"time"

	"blog-social/domain/model"
	"blog-social/domain/repository"
	"blog-social/infrastructure/logger"

	"golang.org/x/sync/singleflight"
)

type ITokenRefresher interface {
	// Ensure returns an account whose token is valid when that can be achieved;
	// otherwise the input account is returned and the adapter reports the failure.
	Ensure(ctx context.Context, adapter repository.IPlatformAdapter, account model.SocialAccount) model.SocialAccount
}

type tokenRefresher struct {
	accounts repository.IAccountRepository
	lock     repository.IRefreshLock
	group    singleflight.Group
	now      func() time.Time
}

// NewTokenRefresher coordinates refreshes so an account is refreshed at most once
// at a time in this process (singleflight) and across processes (lock, optional).
func NewTokenRefresher(accounts repository.IAccountRepository, lock repository.IRefreshLock) ITokenRefresher {
	return &tokenRefresher{accounts: accounts, lock: lock, now: time.Now}
}

func (r *tokenRefresher) Ensure(ctx context.Context, adapter repository.IPlatformAdapter, account model.SocialAccount) model.SocialAccount {
	if account.TokenValid(r.now()) {
		return account
	}
	v, _, _ := r.group.Do(account.ID, func() (interface{}, error) {
		return r.refresh(ctx, adapter, account), nil
	})
	return v.(model.SocialAccount)
}

func (r *tokenRefresher) refresh(ctx context.Context, adapter repository.IPlatformAdapter, account model.SocialAccount) model.SocialAccount {
	lg := logger.GetLogger().WithField("platform", account.Platform).WithField("account_id", account.ID)

	if r.lock != nil {
		acquired, err := r.lock.Acquire(ctx, account.ID)
		switch {
		case err != nil:
			lg.WithField("error", err).Warn("Refresh lock unavailable, refreshing without it")
		case !acquired:
			// another instance is refreshing; use whatever it stored
			fresh, err := r.accounts.GetByID(ctx, account.ID)
			if err == nil && fresh.TokenValid(r.now()) {
				return *fresh
			}
			return account
		default:
			defer func() {
				if err := r.lock.Release(context.WithoutCancel(ctx), account.ID); err != nil {
					lg.WithField("error", err).Warn("Error releasing refresh lock")
				}
			}()
		}
	}

	refreshed, err := adapter.RefreshToken(ctx, account)
	if errors.Is(err, model.ErrReauthorizationRequired) {
		lg.Warn("Token cannot be refreshed, user must reconnect the account")
		return account
	}
	if err != nil {
		lg.WithField("error", err).Error("Error refreshing token")
		return account
	}
	if refreshed.AccessToken == account.AccessToken && timeEqual(refreshed.TokenExpiresAt, account.TokenExpiresAt) {
		return account
	}
	if err := r.accounts.UpdateTokens(ctx, &refreshed); err != nil {
		lg.WithField("error", err).Error("Error saving refreshed token")
	}
	return refreshed
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
