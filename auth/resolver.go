package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Resolver turns a provider profile into a canonical User with
// find-or-create semantics. Identity is keyed strictly by
// (provider, external id): the same email seen via two different providers
// yields two distinct users, matching the upstream product behavior.
type Resolver struct {
	Users UserStore
}

// Resolve returns the existing user holding the profile's external id,
// refreshing its mutable fields, or provisions a new user when none exists.
//
// When the create loses a race against a concurrent request provisioning
// the same identity, the lookup is retried exactly once: the winner's row
// is authoritative and both requests end up with the same user id.
func (r *Resolver) Resolve(ctx context.Context, provider string, profile *Profile) (*User, error) {
	if profile == nil || profile.ID == "" {
		return nil, NewAuthError(ErrCodeProviderDenied, "provider returned no profile id", "")
	}

	user, err := r.Users.GetUserByExternalID(ctx, provider, profile.ID)
	if err == nil {
		return r.refresh(ctx, user, profile)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, &StoreError{Op: "get user by external id", Err: err}
	}

	fresh := &User{
		Name:        profile.Name(),
		Email:       profile.Email,
		Avatar:      profile.AvatarURL,
		AccessToken: profile.AccessToken,
	}
	if err := fresh.SetExternalID(provider, profile.ID); err != nil {
		return nil, NewConfigError("resolver", err.Error())
	}

	if err := r.Users.CreateUser(ctx, fresh); err != nil {
		if errors.Is(err, ErrDuplicateExternalID) {
			// Another request won the creation race between our lookup and
			// insert. Its row is the canonical one.
			log.Debug().Str("provider", provider).Msg("lost user creation race, re-reading winner")
			winner, err := r.Users.GetUserByExternalID(ctx, provider, profile.ID)
			if err != nil {
				return nil, &StoreError{Op: "re-read after create race", Err: err}
			}
			return r.refresh(ctx, winner, profile)
		}
		return nil, &StoreError{Op: "create user", Err: err}
	}

	log.Info().Str("provider", provider).Int64("user_id", fresh.ID).Msg("provisioned new user")
	return fresh, nil
}

// refresh applies the fresh profile's mutable fields and saves the user.
// Every field is single-valued and last-write-wins, so no merge logic.
func (r *Resolver) refresh(ctx context.Context, user *User, profile *Profile) (*User, error) {
	user.Email = profile.Email
	user.Avatar = profile.AvatarURL
	user.AccessToken = profile.AccessToken
	if err := r.Users.UpdateUser(ctx, user); err != nil {
		return nil, &StoreError{Op: "update user", Err: err}
	}
	return user, nil
}
