package auth

import (
	"context"
	"fmt"
)

// Provider names. The set is fixed at startup; nothing registers providers
// at request time.
const (
	ProviderLocal   = "local"
	ProviderDiscord = "discord"
	ProviderGoogle  = "google"
	ProviderX       = "x"
)

// OAuthProviders returns the names of the supported OAuth providers
func OAuthProviders() []string {
	return []string{ProviderDiscord, ProviderGoogle, ProviderX}
}

// User is the canonical identity record. A row is created exactly once, at
// the first successful authentication for that identity, and mutated on
// every subsequent login (fresh token/avatar/email, last-write-wins).
type User struct {
	// ID is store-assigned, immutable and never reused.
	ID int64

	// Name is the display/login name. Required for local accounts,
	// provider-supplied otherwise.
	Name string

	// PasswordHash is set only for accounts created via local signup.
	PasswordHash string

	// External ids, one per OAuth provider. Each is optional and, when
	// present, unique across all users for that provider (enforced at the
	// store boundary).
	DiscordID string
	GoogleID  string
	XID       string

	// Optional profile metadata refreshed on re-authentication.
	Email  string
	Avatar string

	// AccessToken is the most recent token the provider issued for this
	// identity. Overwritten on each login, not a secret of record.
	AccessToken string
}

// ExternalID returns the user's id for the given OAuth provider, or ""
func (u *User) ExternalID(provider string) string {
	switch provider {
	case ProviderDiscord:
		return u.DiscordID
	case ProviderGoogle:
		return u.GoogleID
	case ProviderX:
		return u.XID
	}
	return ""
}

// SetExternalID sets the user's id for the given OAuth provider
func (u *User) SetExternalID(provider, externalID string) error {
	switch provider {
	case ProviderDiscord:
		u.DiscordID = externalID
	case ProviderGoogle:
		u.GoogleID = externalID
	case ProviderX:
		u.XID = externalID
	default:
		return fmt.Errorf("unknown provider %q", provider)
	}
	return nil
}

// CanAuthenticate reports whether the user has at least one means of
// authentication: a password hash or at least one external id.
func (u *User) CanAuthenticate() bool {
	return u.PasswordHash != "" || u.DiscordID != "" || u.GoogleID != "" || u.XID != ""
}

// Profile is the normalized external-identity payload a provider strategy
// produces after a successful handshake.
type Profile struct {
	ID          string
	Username    string
	DisplayName string
	Email       string
	AvatarURL   string
	AccessToken string
}

// Name picks the display name for a freshly provisioned user: the
// provider's display name when it has one, the login handle otherwise.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// UserStore is the adapter over the users relation. Lookups that match no
// row return ErrUserNotFound; CreateUser returns ErrDuplicateExternalID
// when a uniqueness constraint fires. All coordination between concurrent
// requests is delegated to store-level constraints, not in-process locks,
// since requests may be served by independent processes.
type UserStore interface {
	// GetUserByID retrieves a user by its store-assigned id
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByName retrieves a user by its login name
	GetUserByName(ctx context.Context, name string) (*User, error)

	// GetUserByExternalID retrieves the user holding the given provider id
	GetUserByExternalID(ctx context.Context, provider, externalID string) (*User, error)

	// CreateUser persists a new user and fills in the assigned ID
	CreateUser(ctx context.Context, user *User) error

	// UpdateUser persists changes to an existing user
	UpdateUser(ctx context.Context, user *User) error
}
