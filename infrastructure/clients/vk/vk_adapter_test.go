package vk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"blog-social/domain/model"
	"blog-social/infrastructure/clients/social"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, h http.Handler) (*Adapter, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	a := NewAdapter(Config{
		ClientID:     "app-1",
		ClientSecret: "secret",
		RedirectURI:  "https://blog.example.org/callback/vk",
		OAuthBaseURL: srv.URL,
		APIBaseURL:   srv.URL + "/method",
	}, social.NewAPIClient(social.Options{Timeout: 2 * time.Second}))
	return a, srv
}

func TestConnect_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/access_token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		assert.Equal(t, "app-1", r.Form.Get("client_id"))
		assert.Equal(t, "secret", r.Form.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"vk-token","expires_in":0,"user_id":42}`))
	})
	mux.HandleFunc("/method/users.get", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vk-token", r.URL.Query().Get("access_token"))
		assert.Equal(t, DefaultAPIVersion, r.URL.Query().Get("v"))
		_, _ = w.Write([]byte(`{"response":[{"id":42,"first_name":"Ivan","last_name":"Petrov"}]}`))
	})
	a, _ := newTestAdapter(t, mux)

	acc, err := a.Connect(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, model.PlatformVK, acc.Platform)
	assert.Equal(t, "vk-token", acc.AccessToken)
	assert.Equal(t, "42", acc.PlatformUserID)
	assert.Equal(t, "Ivan Petrov", acc.PlatformUsername)
	assert.Nil(t, acc.TokenExpiresAt, "offline tokens never expire")
}

func TestConnect_TokenExchangeRejected(t *testing.T) {
	a, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Code is invalid or expired."}`))
	}))

	_, err := a.Connect(context.Background(), "bad")
	var ae *model.ExternalAuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Code is invalid or expired.", ae.Message)
}

func TestConnect_UsersGetErrorEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"vk-token","expires_in":86400}`))
	})
	mux.HandleFunc("/method/users.get", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"error_code":5,"error_msg":"User authorization failed"}}`))
	})
	a, _ := newTestAdapter(t, mux)

	_, err := a.Connect(context.Background(), "code")
	var ae *model.ExternalAuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "User authorization failed", ae.Message)
}

func TestConnect_Unconfigured(t *testing.T) {
	a := NewAdapter(Config{}, social.NewAPIClient(social.Options{}))
	_, err := a.Connect(context.Background(), "code")
	var ce *model.ConfigurationError
	require.ErrorAs(t, err, &ce)

	res := a.Publish(context.Background(), model.SocialAccount{AccessToken: "t"}, model.AdaptedContent{})
	assert.False(t, res.Success)
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestPublish_Success(t *testing.T) {
	a, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/method/wall.post", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Title\n\nBody", r.Form.Get("message"))
		assert.Equal(t, "https://blog.example.org/p/1", r.Form.Get("attachments"))
		assert.Equal(t, "42", r.Form.Get("owner_id"))
		_, _ = w.Write([]byte(`{"response":{"post_id":777}}`))
	}))

	res := a.Publish(context.Background(),
		model.SocialAccount{AccessToken: "vk-token", PlatformUserID: "42"},
		model.AdaptedContent{Title: "Title", Text: "Body", Images: []string{"https://img/1.jpg"}, Link: "https://blog.example.org/p/1"})

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, model.StatusPublished, res.Status)
	assert.Equal(t, "777", res.ExternalID)
	assert.Equal(t, "https://vk.com/wall42_777", res.ExternalURL)
}

func TestPublish_APIErrorWithHTTP200(t *testing.T) {
	a, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"error_code":214,"error_msg":"Access to adding post denied"}}`))
	}))

	res := a.Publish(context.Background(), model.SocialAccount{AccessToken: "t", PlatformUserID: "1"}, model.AdaptedContent{Title: "a"})
	assert.False(t, res.Success)
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Contains(t, res.ErrorMessage, "Access to adding post denied")
}

func TestPublish_ExpiredTokenSkipsCall(t *testing.T) {
	var calls int32
	a, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	past := time.Now().Add(-time.Hour)

	res := a.Publish(context.Background(), model.SocialAccount{AccessToken: "t", TokenExpiresAt: &past}, model.AdaptedContent{})
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "reauthorization required")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestPublish_TransportFailureIsData(t *testing.T) {
	a, srv := newTestAdapter(t, http.NotFoundHandler())
	srv.Close()

	res := a.Publish(context.Background(), model.SocialAccount{AccessToken: "t"}, model.AdaptedContent{})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestRefreshToken_ReturnsIdenticalAccountWithWarning(t *testing.T) {
	a, _ := newTestAdapter(t, http.NotFoundHandler())
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	acc := model.SocialAccount{ID: "acc-1", UserID: "u1", Platform: model.PlatformVK, AccessToken: "tok", TokenExpiresAt: &exp, PlatformUserID: "42"}

	got, err := a.RefreshToken(context.Background(), acc)
	assert.True(t, errors.Is(err, model.ErrReauthorizationRequired))
	assert.Equal(t, acc, got)
}

func TestGetStats_ZeroCounts(t *testing.T) {
	a, _ := newTestAdapter(t, http.NotFoundHandler())
	st, err := a.GetStats(context.Background(), model.SocialPublication{ID: "pub-1"})
	require.NoError(t, err)
	assert.Equal(t, "pub-1", st.PublicationID)
	assert.Zero(t, st.Views+st.Likes+st.Comments+st.Shares)
	assert.False(t, st.CollectedAt.IsZero())
}

func TestAuthURL(t *testing.T) {
	a, srv := newTestAdapter(t, http.NotFoundHandler())
	raw, err := a.AuthURL("st-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, srv.URL+"/authorize?"))
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "app-1", q.Get("client_id"))
	assert.Equal(t, "st-1", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "wall,photos,offline", q.Get("scope"))
}
