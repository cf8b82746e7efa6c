package auth

import (
	"context"
)

// Attempt carries the input of one authentication attempt. Exactly one
// shape is populated: Username/Password for the local strategy, Profile for
// an OAuth strategy (obtained after the external redirect handshake).
type Attempt struct {
	Username string
	Password string
	Profile  *Profile
}

// Strategy is one pluggable verification routine. The registry holds one
// per supported provider; all of them share this contract.
type Strategy interface {
	// Provider returns the name the strategy is registered under
	Provider() string

	// Verify authenticates the attempt and returns the canonical user
	Verify(ctx context.Context, attempt Attempt) (*User, error)
}

// LocalStrategy authenticates a raw username/password pair through the
// credential verifier. Field names are configurable to match whatever the
// login form posts.
type LocalStrategy struct {
	UsernameField string
	PasswordField string
	Verifier      *CredentialVerifier
}

func (s *LocalStrategy) Provider() string { return ProviderLocal }

func (s *LocalStrategy) Verify(ctx context.Context, attempt Attempt) (*User, error) {
	if attempt.Username == "" || attempt.Password == "" {
		return nil, NewAuthError(ErrCodeMissingField, "username and password required", s.GetUsernameField())
	}
	return s.Verifier.Verify(ctx, attempt.Username, attempt.Password)
}

func (s *LocalStrategy) GetUsernameField() string {
	if s.UsernameField != "" {
		return s.UsernameField
	}
	return "username"
}

func (s *LocalStrategy) GetPasswordField() string {
	if s.PasswordField != "" {
		return s.PasswordField
	}
	return "password"
}

// OAuthStrategy authenticates a provider-issued profile by resolving it to
// a canonical user. The redirect handshake itself lives in the oauth2
// subpackage; by the time Verify runs the profile has been normalized.
type OAuthStrategy struct {
	Name         string
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string
	Resolver     *Resolver
}

func (s *OAuthStrategy) Provider() string { return s.Name }

func (s *OAuthStrategy) Verify(ctx context.Context, attempt Attempt) (*User, error) {
	if attempt.Profile == nil {
		return nil, NewAuthError(ErrCodeProviderDenied, "no profile from provider", "")
	}
	return s.Resolver.Resolve(ctx, s.Name, attempt.Profile)
}

// validate is run at registry construction, before the service accepts
// traffic.
func (s *OAuthStrategy) validate() error {
	if s.Name == "" {
		return NewConfigError("oauth strategy", "provider name is empty")
	}
	if s.ClientID == "" {
		return NewConfigError(s.Name, "client id is missing")
	}
	if s.ClientSecret == "" {
		return NewConfigError(s.Name, "client secret is missing")
	}
	if s.CallbackURL == "" {
		return NewConfigError(s.Name, "callback URL is missing")
	}
	if s.Resolver == nil {
		return NewConfigError(s.Name, "resolver is not set")
	}
	return nil
}
