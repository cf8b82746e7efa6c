package oauth2

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tasuku-app/tasuku/auth"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOAuth2 struct {
	*BaseOAuth2
}

func NewGoogleOAuth2(s *auth.OAuthStrategy, handle HandleProfileFunc, onFailure FailureFunc) *GoogleOAuth2 {
	scopes := s.Scopes
	if len(scopes) == 0 {
		scopes = []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		}
	}
	out := &GoogleOAuth2{
		BaseOAuth2: &BaseOAuth2{
			provider: auth.ProviderGoogle,
			oauthConfig: oauth2.Config{
				ClientID:     s.ClientID,
				ClientSecret: s.ClientSecret,
				RedirectURL:  s.CallbackURL,
				Scopes:       scopes,
				Endpoint:     google.Endpoint,
			},
			handleProfile: handle,
			onFailure:     onFailure,
		},
	}
	out.fetchProfile = out.fetchGoogleProfile
	return out
}

func (g *GoogleOAuth2) fetchGoogleProfile(ctx context.Context, client *http.Client) (*auth.Profile, error) {
	var info struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, client, googleUserInfoURL, &info); err != nil {
		return nil, err
	}
	return &auth.Profile{
		ID:          info.ID,
		DisplayName: info.Name,
		Email:       info.Email,
		AvatarURL:   info.Picture,
	}, nil
}
