package auth

import (
	"errors"
	"fmt"
)

// Error codes attached to AuthError values surfaced to the HTTP layer.
const (
	ErrCodeInvalidCreds   = "invalid_credentials"
	ErrCodeMissingField   = "missing_field"
	ErrCodeProviderDenied = "provider_denied"
	ErrCodeUsernameTaken  = "username_taken"
)

// Sentinel errors returned by the core. Callers match with errors.Is.
var (
	// ErrInvalidCredentials covers both "unknown user" and "wrong password".
	// The two cases are deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrSessionInvalid means a session key did not resolve to a user.
	// Callers treat it as "not authenticated", never as a failure.
	ErrSessionInvalid = errors.New("session does not resolve to a user")

	// ErrUserNotFound is returned by UserStore lookups that matched no row.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateExternalID is returned by UserStore.CreateUser when the
	// uniqueness constraint on a provider id (or the user name) fires.
	ErrDuplicateExternalID = errors.New("external id already registered")
)

// AuthError carries a provider- or form-level failure with enough structure
// for the HTTP layer to decide presentation.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAuthError creates an AuthError with the given code, message and field
func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

// ConfigError is a startup-time misconfiguration. It is always fatal: a
// half-configured provider makes the whole auth surface inconsistent, so
// these must be raised before the service accepts traffic.
type ConfigError struct {
	Component string
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("auth config: %s: %s", e.Component, e.Reason)
}

// NewConfigError creates a ConfigError for the given component
func NewConfigError(component, reason string) *ConfigError {
	return &ConfigError{Component: component, Reason: reason}
}

// StoreError wraps a failure reaching the user store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("user store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
