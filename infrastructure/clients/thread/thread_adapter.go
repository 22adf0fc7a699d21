package thread

import (
	"context"
	"fmt"
	"time"

	"blog-social/domain/model"
	"blog-social/infrastructure/clients/social"
	"blog-social/infrastructure/logger"

	"golang.org/x/oauth2"
)

const (
	DefaultOAuthBaseURL = "https://api.instagram.com"
	DefaultGraphBaseURL = "https://graph.instagram.com"
	DefaultAPIVersion   = "v18.0"
	siteURL             = "https://www.threads.net"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIVersion   string
	OAuthBaseURL string
	GraphBaseURL string
}

// Adapter publishes image posts through the Instagram Graph API using
// long-lived tokens that are refreshed before they expire.
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
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = DefaultGraphBaseURL
	}
	a := &Adapter{
		cfg:    cfg,
		client: client,
		now:    time.Now,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"user_profile,user_media"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.OAuthBaseURL + "/oauth/authorize",
				TokenURL:  cfg.OAuthBaseURL + "/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
	a.configErr = social.RequireConfigured(model.PlatformThread, map[string]string{
		"clientId":     cfg.ClientID,
		"clientSecret": cfg.ClientSecret,
		"redirectURI":  cfg.RedirectURI,
	})
	if a.configErr != nil {
		logger.GetLogger().WithField("platform", model.PlatformThread).WithField("error", a.configErr).
			Warn("Thread API credentials are not properly configured")
	}
	return a
}

func (a *Adapter) Platform() model.Platform { return model.PlatformThread }

func (a *Adapter) AuthURL(state string) (string, error) {
	if a.configErr != nil {
		return "", a.configErr
	}
	return a.oauth.AuthCodeURL(state), nil
}

type graphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type longLivedParams struct {
	GrantType    string `url:"grant_type"`
	ClientSecret string `url:"client_secret,omitempty"`
	AccessToken  string `url:"access_token"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	Error       *graphError `json:"error"`
}

type meParams struct {
	Fields      string `url:"fields"`
	AccessToken string `url:"access_token"`
}

type meResponse struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Error    *graphError `json:"error"`
}

func (a *Adapter) Connect(ctx context.Context, code string) (model.SocialAccount, error) {
	if a.configErr != nil {
		return model.SocialAccount{}, a.configErr
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client.HTTPClient())
	short, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return model.SocialAccount{}, social.AuthError(model.PlatformThread, err)
	}

	var long tokenResponse
	err = a.client.GetJSON(ctx, a.cfg.GraphBaseURL+"/access_token", longLivedParams{
		GrantType:    "ig_exchange_token",
		ClientSecret: a.cfg.ClientSecret,
		AccessToken:  short.AccessToken,
	}, &long)
	if authErr := graphAuthError(long.Error, err); authErr != nil {
		return model.SocialAccount{}, authErr
	}
	if long.AccessToken == "" {
		return model.SocialAccount{}, &model.ExternalAuthError{Platform: model.PlatformThread, Message: "Failed to get long-lived token from Thread"}
	}

	var me meResponse
	err = a.client.GetJSON(ctx, a.cfg.GraphBaseURL+"/me", meParams{Fields: "id,username", AccessToken: long.AccessToken}, &me)
	if authErr := graphAuthError(me.Error, err); authErr != nil {
		return model.SocialAccount{}, authErr
	}

	now := a.now().UTC()
	account := model.SocialAccount{
		Platform:         model.PlatformThread,
		AccessToken:      long.AccessToken,
		PlatformUserID:   me.ID,
		PlatformUsername: me.Username,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if long.ExpiresIn > 0 {
		exp := now.Add(time.Duration(long.ExpiresIn) * time.Second)
		account.TokenExpiresAt = &exp
	}
	return account, nil
}

func graphAuthError(ge *graphError, err error) error {
	if ge != nil && ge.Message != "" {
		return &model.ExternalAuthError{Platform: model.PlatformThread, Message: ge.Message, Err: err}
	}
	if err != nil {
		return social.AuthError(model.PlatformThread, err)
	}
	return nil
}

type createMediaParams struct {
	ImageURL    string `url:"image_url"`
	Caption     string `url:"caption"`
	AccessToken string `url:"access_token"`
}

type publishMediaParams struct {
	CreationID  string `url:"creation_id"`
	AccessToken string `url:"access_token"`
}

type idResponse struct {
	ID    string      `json:"id"`
	Error *graphError `json:"error"`
}

func (a *Adapter) Publish(ctx context.Context, account model.SocialAccount, content model.AdaptedContent) model.PublishResult {
	if a.configErr != nil {
		return model.FailedResult(model.PlatformThread, a.configErr)
	}
	if !account.TokenValid(a.now()) {
		refreshed, err := a.RefreshToken(ctx, account)
		if err != nil {
			return model.FailedResult(model.PlatformThread, fmt.Errorf("refresh token: %w", err))
		}
		account = refreshed
	}
	if len(content.Images) == 0 {
		return model.FailedResult(model.PlatformThread, fmt.Errorf("Thread requires at least one image for publication"))
	}

	base := fmt.Sprintf("%s/%s/%s", a.cfg.GraphBaseURL, a.cfg.APIVersion, account.PlatformUserID)
	var container idResponse
	err := a.client.PostForm(ctx, base+"/media", createMediaParams{
		ImageURL:    content.Images[0],
		Caption:     content.Title + "\n\n" + content.Text,
		AccessToken: account.AccessToken,
	}, &container)
	if failed := graphFailure(container, err, "create media container"); failed != nil {
		return *failed
	}

	var published idResponse
	err = a.client.PostForm(ctx, base+"/media_publish", publishMediaParams{
		CreationID:  container.ID,
		AccessToken: account.AccessToken,
	}, &published)
	if failed := graphFailure(published, err, "publish media"); failed != nil {
		return *failed
	}

	return model.PublishResult{
		Success:     true,
		Platform:    model.PlatformThread,
		Status:      model.StatusPublished,
		ExternalID:  published.ID,
		ExternalURL: fmt.Sprintf("%s/@%s/post/%s", siteURL, account.PlatformUsername, published.ID),
	}
}

func graphFailure(resp idResponse, err error, step string) *model.PublishResult {
	var res model.PublishResult
	switch {
	case resp.Error != nil && resp.Error.Message != "":
		res = model.FailedResult(model.PlatformThread, fmt.Errorf("Thread API error (%s): %s", step, resp.Error.Message))
	case err != nil:
		res = model.FailedResult(model.PlatformThread, fmt.Errorf("Thread API error (%s): %w", step, err))
	case resp.ID == "":
		res = model.FailedResult(model.PlatformThread, fmt.Errorf("Thread API error (%s): missing id", step))
	default:
		return nil
	}
	return &res
}

func (a *Adapter) GetStats(_ context.Context, publication model.SocialPublication) (model.SocialStats, error) {
	return model.EmptyStats(publication.ID, a.now().UTC()), nil
}

type refreshParams struct {
	GrantType   string `url:"grant_type"`
	AccessToken string `url:"access_token"`
}

// RefreshToken extends a long-lived token and moves TokenExpiresAt by the returned TTL.
func (a *Adapter) RefreshToken(ctx context.Context, account model.SocialAccount) (model.SocialAccount, error) {
	var resp tokenResponse
	err := a.client.GetJSON(ctx, a.cfg.GraphBaseURL+"/refresh_access_token", refreshParams{
		GrantType:   "ig_refresh_token",
		AccessToken: account.AccessToken,
	}, &resp)
	if authErr := graphAuthError(resp.Error, err); authErr != nil {
		logger.GetLogger().WithField("platform", model.PlatformThread).WithField("account_id", account.ID).
			WithField("error", authErr).Error("Error refreshing Thread token")
		return account, authErr
	}
	if resp.AccessToken == "" {
		return account, &model.ExternalAuthError{Platform: model.PlatformThread, Message: "refresh returned no access token"}
	}

	now := a.now().UTC()
	account.AccessToken = resp.AccessToken
	if resp.ExpiresIn > 0 {
		exp := now.Add(time.Duration(resp.ExpiresIn) * time.Second)
		account.TokenExpiresAt = &exp
	}
	account.UpdatedAt = now
	return account, nil
}
