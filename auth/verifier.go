package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier validates a local username/password pair against the
// stored hash. It is read-only: account creation happens on the signup
// path, never here.
type CredentialVerifier struct {
	Users UserStore
}

// Verify looks the user up by name and compares the password with bcrypt.
// Unknown user, missing hash and wrong password all collapse to
// ErrInvalidCredentials so callers cannot enumerate accounts.
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) (*User, error) {
	user, err := v.Users.GetUserByName(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, &StoreError{Op: "get user by name", Err: err}
	}

	// OAuth-only accounts have no hash and cannot log in locally.
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
