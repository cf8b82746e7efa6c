package oauth2

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/tasuku-app/tasuku/auth"
)

const discordUserInfoURL = "https://discord.com/api/users/@me"

type DiscordOAuth2 struct {
	*BaseOAuth2
}

func NewDiscordOAuth2(s *auth.OAuthStrategy, handle HandleProfileFunc, onFailure FailureFunc) *DiscordOAuth2 {
	scopes := s.Scopes
	if len(scopes) == 0 {
		scopes = []string{"identify", "email"}
	}
	out := &DiscordOAuth2{
		BaseOAuth2: &BaseOAuth2{
			provider: auth.ProviderDiscord,
			oauthConfig: oauth2.Config{
				ClientID:     s.ClientID,
				ClientSecret: s.ClientSecret,
				RedirectURL:  s.CallbackURL,
				Scopes:       scopes,
				// endpoints.Discord requires x/oauth2 >= v0.27.0 (Go 1.23+);
				// inlined verbatim for the Go 1.21 toolchain.
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://discord.com/oauth2/authorize",
					TokenURL: "https://discord.com/api/oauth2/token",
				},
			},
			handleProfile: handle,
			onFailure:     onFailure,
		},
	}
	out.fetchProfile = out.fetchDiscordProfile
	return out
}

func (d *DiscordOAuth2) fetchDiscordProfile(ctx context.Context, client *http.Client) (*auth.Profile, error) {
	var info struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Email      string `json:"email"`
		Avatar     string `json:"avatar"`
	}
	if err := getJSON(ctx, client, discordUserInfoURL, &info); err != nil {
		return nil, err
	}
	avatarURL := ""
	if info.Avatar != "" {
		avatarURL = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", info.ID, info.Avatar)
	}
	// Discord accounts log in by username, not by the display name.
	return &auth.Profile{
		ID:        info.ID,
		Username:  info.Username,
		Email:     info.Email,
		AvatarURL: avatarURL,
	}, nil
}
