// Package oauth2 implements the external redirect handshakes for the
// supported OAuth providers. Each provider handler runs the full dance
// (state cookie, redirect, code exchange, profile fetch) and hands a
// normalized profile to the application; what happens to that profile is
// the auth core's business, not this package's.
package oauth2

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/tasuku-app/tasuku/auth"
)

// HandleProfileFunc receives the normalized profile after a successful
// provider handshake.
type HandleProfileFunc func(provider string, profile *auth.Profile, w http.ResponseWriter, r *http.Request)

// FailureFunc is called when the handshake fails or is denied.
type FailureFunc func(provider string, err error, w http.ResponseWriter, r *http.Request)

// Handler is one provider's handshake surface. The server mounts
// HandleStart at /auth/{provider} and HandleCallback at
// /auth/{provider}/callback.
type Handler interface {
	Provider() string
	HandleStart(w http.ResponseWriter, r *http.Request)
	HandleCallback(w http.ResponseWriter, r *http.Request)
}

// New returns the handshake handler for the strategy's provider. Unknown
// providers are a configuration error surfaced before the service starts.
func New(s *auth.OAuthStrategy, handle HandleProfileFunc, onFailure FailureFunc) (Handler, error) {
	switch s.Name {
	case auth.ProviderGoogle:
		return NewGoogleOAuth2(s, handle, onFailure), nil
	case auth.ProviderDiscord:
		return NewDiscordOAuth2(s, handle, onFailure), nil
	case auth.ProviderX:
		return NewXOAuth2(s, handle, onFailure), nil
	}
	return nil, auth.NewConfigError(s.Name, "no handshake handler for provider")
}

// fetchProfileFunc turns a fresh token into a normalized profile using the
// provider's user-info endpoint.
type fetchProfileFunc func(ctx context.Context, client *http.Client) (*auth.Profile, error)

// BaseOAuth2 holds the handshake machinery shared by every provider.
type BaseOAuth2 struct {
	provider      string
	oauthConfig   oauth2.Config
	usePKCE       bool
	fetchProfile  fetchProfileFunc
	handleProfile HandleProfileFunc
	onFailure     FailureFunc
}

func (b *BaseOAuth2) Provider() string { return b.provider }

// HandleStart sets the state cookie (and PKCE verifier cookie where the
// provider requires it) and redirects to the provider's consent page.
func (b *BaseOAuth2) HandleStart(w http.ResponseWriter, r *http.Request) {
	// Remember where to send the user after the round trip.
	if callbackURL := r.URL.Query().Get("callbackURL"); callbackURL != "" {
		http.SetCookie(w, &http.Cookie{
			Name:    "oauthCallbackURL",
			Value:   callbackURL,
			Path:    "/",
			Expires: time.Now().Add(24 * time.Hour),
			MaxAge:  120, // keep this short
		})
	}

	state := generateStateOauthCookie(w)
	var opts []oauth2.AuthCodeOption
	if b.usePKCE {
		verifier := oauth2.GenerateVerifier()
		http.SetCookie(w, &http.Cookie{
			Name:     "oauthverifier",
			Value:    verifier,
			Path:     "/",
			HttpOnly: true,
			MaxAge:   300,
		})
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}
	http.Redirect(w, r, b.oauthConfig.AuthCodeURL(state, opts...), http.StatusFound)
}

// HandleCallback validates the state, exchanges the code and fetches the
// provider profile.
func (b *BaseOAuth2) HandleCallback(w http.ResponseWriter, r *http.Request) {
	oauthState, _ := r.Cookie("oauthstate")
	if oauthState == nil {
		b.fail(w, r, fmt.Errorf("oauth state cookie missing"))
		return
	}
	if r.FormValue("state") != oauthState.Value {
		http.SetCookie(w, &http.Cookie{Name: "oauthstate", MaxAge: -1})
		b.fail(w, r, fmt.Errorf("invalid oauth state for %s", b.provider))
		return
	}

	var opts []oauth2.AuthCodeOption
	if b.usePKCE {
		verifier, _ := r.Cookie("oauthverifier")
		if verifier == nil {
			b.fail(w, r, fmt.Errorf("pkce verifier cookie missing"))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "oauthverifier", MaxAge: -1})
		opts = append(opts, oauth2.VerifierOption(verifier.Value))
	}

	token, err := b.oauthConfig.Exchange(r.Context(), r.FormValue("code"), opts...)
	if err != nil {
		b.fail(w, r, fmt.Errorf("code exchange failed: %w", err))
		return
	}

	client := b.oauthConfig.Client(r.Context(), token)
	profile, err := b.fetchProfile(r.Context(), client)
	if err != nil {
		b.fail(w, r, fmt.Errorf("fetching %s profile: %w", b.provider, err))
		return
	}
	profile.AccessToken = token.AccessToken

	b.handleProfile(b.provider, profile, w, r)
}

func (b *BaseOAuth2) fail(w http.ResponseWriter, r *http.Request, err error) {
	log.Warn().Err(err).Str("provider", b.provider).Msg("oauth handshake failed")
	if b.onFailure != nil {
		b.onFailure(b.provider, err, w, r)
		return
	}
	http.Error(w, "authentication failed", http.StatusUnauthorized)
}

func generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		log.Error().Err(err).Msg("generating oauth state")
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:    "oauthstate",
		Value:   state,
		Path:    "/",
		Expires: time.Now().Add(30 * 24 * time.Hour),
	})
	return state
}

// getJSON fetches url with the token-bearing client and decodes into out.
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user info endpoint returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
