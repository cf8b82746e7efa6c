package oauth2

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/tasuku-app/tasuku/auth"
)

const xUserInfoURL = "https://api.twitter.com/2/users/me?user.fields=profile_image_url"

// xEndpoint is X's OAuth 2.0 endpoint (the v2 flow, which mandates PKCE).
var xEndpoint = oauth2.Endpoint{
	AuthURL:  "https://twitter.com/i/oauth2/authorize",
	TokenURL: "https://api.twitter.com/2/oauth2/token",
}

type XOAuth2 struct {
	*BaseOAuth2
}

func NewXOAuth2(s *auth.OAuthStrategy, handle HandleProfileFunc, onFailure FailureFunc) *XOAuth2 {
	scopes := s.Scopes
	if len(scopes) == 0 {
		scopes = []string{"users.read", "tweet.read"}
	}
	out := &XOAuth2{
		BaseOAuth2: &BaseOAuth2{
			provider: auth.ProviderX,
			oauthConfig: oauth2.Config{
				ClientID:     s.ClientID,
				ClientSecret: s.ClientSecret,
				RedirectURL:  s.CallbackURL,
				Scopes:       scopes,
				Endpoint:     xEndpoint,
			},
			usePKCE:       true,
			handleProfile: handle,
			onFailure:     onFailure,
		},
	}
	out.fetchProfile = out.fetchXProfile
	return out
}

func (x *XOAuth2) fetchXProfile(ctx context.Context, client *http.Client) (*auth.Profile, error) {
	var info struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := getJSON(ctx, client, xUserInfoURL, &info); err != nil {
		return nil, err
	}
	// The v2 users endpoint does not expose the account email.
	return &auth.Profile{
		ID:          info.Data.ID,
		Username:    info.Data.Username,
		DisplayName: info.Data.Name,
		AvatarURL:   info.Data.ProfileImageURL,
	}, nil
}
