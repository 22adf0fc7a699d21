package vk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"blog-social/domain/model"
	"blog-social/infrastructure/clients/social"
	"blog-social/infrastructure/logger"

	"golang.org/x/oauth2"
)

const (
	DefaultOAuthBaseURL = "https://oauth.vk.com"
	DefaultAPIBaseURL   = "https://api.vk.com/method"
	DefaultAPIVersion   = "5.131"
	siteURL             = "https://vk.com"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIVersion   string
	OAuthBaseURL string
	APIBaseURL   string
}

// Adapter publishes wall posts through the VK REST API.
type Adapter struct {
	cfg       Config
	client    *social.APIClient
	oauth     *oauth2.Config
	configErr error
	now       func() time.Time
}

func NewAdapter(cfg Config, client *social.APIClient) *Adapter {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.OAuthBaseURL == "" {
		cfg.OAuthBaseURL = DefaultOAuthBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	a := &Adapter{
		cfg:    cfg,
		client: client,
		now:    time.Now,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"wall,photos,offline"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.OAuthBaseURL + "/authorize",
				TokenURL:  cfg.OAuthBaseURL + "/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
	a.configErr = social.RequireConfigured(model.PlatformVK, map[string]string{
		"clientId":     cfg.ClientID,
		"clientSecret": cfg.ClientSecret,
		"redirectURI":  cfg.RedirectURI,
	})
	if a.configErr != nil {
		logger.GetLogger().WithField("platform", model.PlatformVK).WithField("error", a.configErr).
			Warn("VK API credentials are not properly configured")
	}
	return a
}

func (a *Adapter) Platform() model.Platform { return model.PlatformVK }

func (a *Adapter) AuthURL(state string) (string, error) {
	if a.configErr != nil {
		return "", a.configErr
	}
	return a.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("display", "page"),
		oauth2.SetAuthURLParam("v", a.cfg.APIVersion),
	), nil
}

type apiError struct {
	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

type tokenParams struct {
	AccessToken string `url:"access_token"`
	V           string `url:"v"`
}

type usersGetResponse struct {
	Response []struct {
		ID        int64  `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"response"`
	Error *apiError `json:"error"`
}

func (a *Adapter) Connect(ctx context.Context, code string) (model.SocialAccount, error) {
	if a.configErr != nil {
		return model.SocialAccount{}, a.configErr
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client.HTTPClient())
	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return model.SocialAccount{}, social.AuthError(model.PlatformVK, err)
	}
	if tok.AccessToken == "" {
		return model.SocialAccount{}, &model.ExternalAuthError{Platform: model.PlatformVK, Message: "Failed to get access token from VK"}
	}

	var users usersGetResponse
	err = a.client.GetJSON(ctx, a.cfg.APIBaseURL+"/users.get", tokenParams{AccessToken: tok.AccessToken, V: a.cfg.APIVersion}, &users)
	if users.Error != nil {
		return model.SocialAccount{}, &model.ExternalAuthError{Platform: model.PlatformVK, Message: users.Error.ErrorMsg, Err: err}
	}
	if err != nil {
		return model.SocialAccount{}, social.AuthError(model.PlatformVK, err)
	}
	if len(users.Response) == 0 {
		return model.SocialAccount{}, &model.ExternalAuthError{Platform: model.PlatformVK, Message: "users.get returned no user"}
	}
	u := users.Response[0]

	now := a.now().UTC()
	account := model.SocialAccount{
		Platform:         model.PlatformVK,
		AccessToken:      tok.AccessToken,
		PlatformUserID:   strconv.FormatInt(u.ID, 10),
		PlatformUsername: u.FirstName + " " + u.LastName,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	// offline scope yields expires_in=0, which oauth2 leaves as a zero Expiry
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		account.TokenExpiresAt = &exp
	}
	return account, nil
}

type wallPostParams struct {
	AccessToken string `url:"access_token"`
	V           string `url:"v"`
	OwnerID     string `url:"owner_id,omitempty"`
	Message     string `url:"message"`
	Attachments string `url:"attachments,omitempty"`
}

type wallPostResponse struct {
	Response *struct {
		PostID int64 `json:"post_id"`
	} `json:"response"`
	Error *apiError `json:"error"`
}

func (a *Adapter) Publish(ctx context.Context, account model.SocialAccount, content model.AdaptedContent) model.PublishResult {
	if a.configErr != nil {
		return model.FailedResult(model.PlatformVK, a.configErr)
	}
	if !account.TokenValid(a.now()) {
		refreshed, err := a.RefreshToken(ctx, account)
		if errors.Is(err, model.ErrReauthorizationRequired) {
			return model.FailedResult(model.PlatformVK, fmt.Errorf("VK token expired: %w", err))
		}
		account = refreshed
	}
	if len(content.Images) > 0 {
		logger.GetLogger().WithField("platform", model.PlatformVK).WithField("images", len(content.Images)).
			Debug("VK photo upload not supported, images omitted")
	}

	var resp wallPostResponse
	err := a.client.PostForm(ctx, a.cfg.APIBaseURL+"/wall.post", wallPostParams{
		AccessToken: account.AccessToken,
		V:           a.cfg.APIVersion,
		OwnerID:     account.PlatformUserID,
		Message:     content.Title + "\n\n" + content.Text,
		Attachments: content.Link,
	}, &resp)
	if resp.Error != nil {
		return model.FailedResult(model.PlatformVK, fmt.Errorf("VK API error: %s", resp.Error.ErrorMsg))
	}
	if err != nil {
		return model.FailedResult(model.PlatformVK, fmt.Errorf("VK API error: %w", err))
	}
	if resp.Response == nil {
		return model.FailedResult(model.PlatformVK, fmt.Errorf("VK API error: empty response"))
	}

	postID := strconv.FormatInt(resp.Response.PostID, 10)
	return model.PublishResult{
		Success:     true,
		Platform:    model.PlatformVK,
		Status:      model.StatusPublished,
		ExternalID:  postID,
		ExternalURL: fmt.Sprintf("%s/wall%s_%s", siteURL, account.PlatformUserID, postID),
	}
}

// GetStats returns zero counters; VK exposes no per-post stats for this integration.
func (a *Adapter) GetStats(_ context.Context, publication model.SocialPublication) (model.SocialStats, error) {
	return model.EmptyStats(publication.ID, a.now().UTC()), nil
}

// RefreshToken cannot refresh VK tokens. The account comes back unchanged with
// ErrReauthorizationRequired so callers can prompt the user to connect again.
func (a *Adapter) RefreshToken(_ context.Context, account model.SocialAccount) (model.SocialAccount, error) {
	logger.GetLogger().WithField("platform", model.PlatformVK).WithField("account_id", account.ID).
		Warn("VK tokens cannot be refreshed automatically. User needs to re-authorize.")
	return account, model.ErrReauthorizationRequired
}
