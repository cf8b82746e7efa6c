package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/tasuku-app/tasuku/auth"
)

func testStrategy(name string) *auth.OAuthStrategy {
	return &auth.OAuthStrategy{
		Name:         name,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "http://localhost:3000/auth/" + name + "/callback",
	}
}

func TestNewKnowsEveryProvider(t *testing.T) {
	for _, name := range auth.OAuthProviders() {
		h, err := New(testStrategy(name), nil, nil)
		require.NoError(t, err, name)
		assert.Equal(t, name, h.Provider())
	}

	_, err := New(testStrategy("github"), nil, nil)
	require.Error(t, err)
	var cfgErr *auth.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHandleStartRedirectsWithState(t *testing.T) {
	h, err := New(testStrategy(auth.ProviderDiscord), nil, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.HandleStart(rec, httptest.NewRequest("GET", "/auth/discord", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	state := cookieByName(rec.Result().Cookies(), "oauthstate")
	require.NotNil(t, state, "state cookie must be set before the redirect")

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state.Value, loc.Query().Get("state"))
	assert.Equal(t, "client-id", loc.Query().Get("client_id"))
	assert.Equal(t, "http://localhost:3000/auth/discord/callback", loc.Query().Get("redirect_uri"))
}

func TestHandleStartRemembersCallbackURL(t *testing.T) {
	h, err := New(testStrategy(auth.ProviderDiscord), nil, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.HandleStart(rec, httptest.NewRequest("GET", "/auth/discord?callbackURL=/tasks", nil))

	c := cookieByName(rec.Result().Cookies(), "oauthCallbackURL")
	require.NotNil(t, c)
	assert.Equal(t, "/tasks", c.Value)
}

func TestHandleStartUsesPKCEForX(t *testing.T) {
	h, err := New(testStrategy(auth.ProviderX), nil, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.HandleStart(rec, httptest.NewRequest("GET", "/auth/x", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.NotNil(t, cookieByName(rec.Result().Cookies(), "oauthverifier"))

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.NotEmpty(t, loc.Query().Get("code_challenge"))
	assert.Equal(t, "S256", loc.Query().Get("code_challenge_method"))
}

func TestHandleCallbackRejectsBadState(t *testing.T) {
	var failed error
	onFailure := func(provider string, err error, w http.ResponseWriter, r *http.Request) {
		failed = err
		w.WriteHeader(http.StatusUnauthorized)
	}
	h, err := New(testStrategy(auth.ProviderDiscord), func(string, *auth.Profile, http.ResponseWriter, *http.Request) {
		t.Fatal("profile handler must not run")
	}, onFailure)
	require.NoError(t, err)

	// no state cookie at all
	rec := httptest.NewRecorder()
	h.HandleCallback(rec, httptest.NewRequest("GET", "/auth/discord/callback?state=x&code=y", nil))
	require.Error(t, failed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// cookie present but mismatched
	failed = nil
	req := httptest.NewRequest("GET", "/auth/discord/callback?state=forged&code=y", nil)
	req.AddCookie(&http.Cookie{Name: "oauthstate", Value: "genuine"})
	h.HandleCallback(httptest.NewRecorder(), req)
	require.Error(t, failed)
}

func TestHandleCallbackExchangesCodeAndFetchesProfile(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "the-code", r.PostFormValue("code"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "fresh-token",
				"token_type":   "bearer",
			})
		case "/me":
			assert.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"id": "u1", "username": "alice"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer provider.Close()

	var got *auth.Profile
	base := &BaseOAuth2{
		provider: "discord",
		oauthConfig: oauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "http://localhost:3000/auth/discord/callback",
			Endpoint:     oauth2.Endpoint{AuthURL: provider.URL + "/authorize", TokenURL: provider.URL + "/token"},
		},
		fetchProfile: func(ctx context.Context, client *http.Client) (*auth.Profile, error) {
			var body struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			}
			if err := getJSON(ctx, client, provider.URL+"/me", &body); err != nil {
				return nil, err
			}
			return &auth.Profile{ID: body.ID, Username: body.Username}, nil
		},
		handleProfile: func(name string, profile *auth.Profile, w http.ResponseWriter, r *http.Request) {
			got = profile
		},
	}

	req := httptest.NewRequest("GET", "/auth/discord/callback?state=abc&code=the-code", nil)
	req.AddCookie(&http.Cookie{Name: "oauthstate", Value: "abc"})
	base.HandleCallback(httptest.NewRecorder(), req)

	require.NotNil(t, got, "profile handler must run on success")
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "fresh-token", got.AccessToken)
}

func TestGetJSONRejectsNonOKResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	var out map[string]any
	err := getJSON(context.Background(), srv.Client(), srv.URL, &out)
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
