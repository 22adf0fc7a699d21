package thread

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"blog-social/domain/model"
	"blog-social/infrastructure/clients/social"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAdapter(t *testing.T, h http.Handler) *Adapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	a := NewAdapter(Config{
		ClientID:     "ig-app",
		ClientSecret: "ig-secret",
		RedirectURI:  "https://blog.example.org/callback/thread",
		OAuthBaseURL: srv.URL,
		GraphBaseURL: srv.URL + "/graph",
	}, social.NewAPIClient(social.Options{Timeout: 2 * time.Second}))
	a.now = func() time.Time { return fixedNow }
	return a
}

func TestConnect_ExchangesForLongLivedToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "ig-app", r.Form.Get("client_id"))
		assert.Equal(t, "c0de", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"short","user_id":17841400000000000}`))
	})
	mux.HandleFunc("/graph/access_token", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ig_exchange_token", q.Get("grant_type"))
		assert.Equal(t, "ig-secret", q.Get("client_secret"))
		assert.Equal(t, "short", q.Get("access_token"))
		_, _ = w.Write([]byte(`{"access_token":"long","token_type":"bearer","expires_in":5184000}`))
	})
	mux.HandleFunc("/graph/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "id,username", r.URL.Query().Get("fields"))
		assert.Equal(t, "long", r.URL.Query().Get("access_token"))
		_, _ = w.Write([]byte(`{"id":"1784","username":"blogger"}`))
	})
	a := newTestAdapter(t, mux)

	acc, err := a.Connect(context.Background(), "c0de")
	require.NoError(t, err)
	assert.Equal(t, "long", acc.AccessToken)
	assert.Equal(t, "1784", acc.PlatformUserID)
	assert.Equal(t, "blogger", acc.PlatformUsername)
	require.NotNil(t, acc.TokenExpiresAt)
	assert.Equal(t, fixedNow.Add(5184000*time.Second), *acc.TokenExpiresAt)
}

func TestConnect_CodeRejected(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_type":"OAuthException","code":400,"error_message":"Invalid authorization code"}`))
	}))

	_, err := a.Connect(context.Background(), "bad")
	var ae *model.ExternalAuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Invalid authorization code", ae.Message)
}

func TestPublish_CreatesContainerThenPublishes(t *testing.T) {
	var order []string
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/v18.0/1784/media", func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "media")
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "https://img/1.jpg", r.Form.Get("image_url"))
		assert.Equal(t, "T\n\nB", r.Form.Get("caption"))
		assert.Equal(t, "tok", r.Form.Get("access_token"))
		_, _ = w.Write([]byte(`{"id":"container-9"}`))
	})
	mux.HandleFunc("/graph/v18.0/1784/media_publish", func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "publish")
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "container-9", r.Form.Get("creation_id"))
		_, _ = w.Write([]byte(`{"id":"post-3"}`))
	})
	a := newTestAdapter(t, mux)
	future := fixedNow.Add(time.Hour)

	res := a.Publish(context.Background(),
		model.SocialAccount{AccessToken: "tok", TokenExpiresAt: &future, PlatformUserID: "1784", PlatformUsername: "blogger"},
		model.AdaptedContent{Title: "T", Text: "B", Images: []string{"https://img/1.jpg", "https://img/2.jpg"}})

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, []string{"media", "publish"}, order)
	assert.Equal(t, "post-3", res.ExternalID)
	assert.Equal(t, "https://www.threads.net/@blogger/post/post-3", res.ExternalURL)
}

func TestPublish_NoImageFailsWithoutCall(t *testing.T) {
	var calls int32
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { atomic.AddInt32(&calls, 1) }))
	future := fixedNow.Add(time.Hour)

	res := a.Publish(context.Background(), model.SocialAccount{AccessToken: "tok", TokenExpiresAt: &future}, model.AdaptedContent{Title: "T"})
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "at least one image")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestPublish_GraphErrorIsData(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Only photo or video can be accepted as media type.","type":"OAuthException","code":9004}}`))
	}))
	future := fixedNow.Add(time.Hour)

	res := a.Publish(context.Background(), model.SocialAccount{AccessToken: "tok", TokenExpiresAt: &future, PlatformUserID: "1"},
		model.AdaptedContent{Images: []string{"https://img/x.gif"}})
	assert.False(t, res.Success)
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Contains(t, res.ErrorMessage, "Only photo or video")
}

func TestPublish_RefreshesStaleTokenFirst(t *testing.T) {
	var tokens []string
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/refresh_access_token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ig_refresh_token", r.URL.Query().Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"fresh","expires_in":3600}`))
	})
	mux.HandleFunc("/graph/v18.0/1/media", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		tokens = append(tokens, r.Form.Get("access_token"))
		_, _ = w.Write([]byte(`{"id":"c"}`))
	})
	mux.HandleFunc("/graph/v18.0/1/media_publish", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p"}`))
	})
	a := newTestAdapter(t, mux)
	past := fixedNow.Add(-time.Minute)

	res := a.Publish(context.Background(), model.SocialAccount{AccessToken: "stale", TokenExpiresAt: &past, PlatformUserID: "1"},
		model.AdaptedContent{Images: []string{"https://img/1.jpg"}})
	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, []string{"fresh"}, tokens)
}

func TestRefreshToken_ExtendsExpiry(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graph/refresh_access_token", r.URL.Path)
		assert.Equal(t, "old", r.URL.Query().Get("access_token"))
		_, _ = w.Write([]byte(`{"access_token":"new","token_type":"bearer","expires_in":5184000}`))
	}))
	exp := fixedNow.Add(time.Hour)
	acc := model.SocialAccount{ID: "acc", AccessToken: "old", TokenExpiresAt: &exp}

	got, err := a.RefreshToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)
	assert.Equal(t, fixedNow.Add(5184000*time.Second), *got.TokenExpiresAt)
	assert.Equal(t, "old", acc.AccessToken, "input account is not mutated")
	assert.Equal(t, fixedNow.Add(time.Hour), *acc.TokenExpiresAt)
}

func TestRefreshToken_Error(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Error validating access token","code":190}}`))
	}))
	acc := model.SocialAccount{AccessToken: "old"}

	got, err := a.RefreshToken(context.Background(), acc)
	var ae *model.ExternalAuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Error validating access token", ae.Message)
	assert.Equal(t, acc, got)
}

func TestAuthURL_Unconfigured(t *testing.T) {
	a := NewAdapter(Config{}, social.NewAPIClient(social.Options{}))
	_, err := a.AuthURL("s")
	var ce *model.ConfigurationError
	require.ErrorAs(t, err, &ce)
}
