package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// SessionUserKey is the session variable holding the encoded user id.
const SessionUserKey = "loggedInUserId"

// Codec maps a user identity to an opaque session key and back. The key is
// the user's store-assigned id; it has no internal structure beyond that.
type Codec struct {
	Users UserStore
}

// Encode serializes the user into its session key. A user without a valid
// id cannot be encoded; that is an internal error, never a user-facing one.
func (c *Codec) Encode(user *User) (string, error) {
	if user == nil || user.ID <= 0 {
		return "", fmt.Errorf("session: user has no valid id")
	}
	return strconv.FormatInt(user.ID, 10), nil
}

// Decode resolves a session key back to its user. A malformed key or an
// absent row yields ErrSessionInvalid, which callers treat as "not
// authenticated" rather than a failure.
func (c *Codec) Decode(ctx context.Context, key string) (*User, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrSessionInvalid
	}
	user, err := c.Users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, &StoreError{Op: "get user by id", Err: err}
	}
	return user, nil
}

// Sessions bridges the codec to the scs session manager and a signed
// auth-token cookie, so both server-rendered pages (session) and API calls
// (cookie/bearer) can identify the user.
type Sessions struct {
	Manager *scs.SessionManager
	Codec   *Codec

	// JWT cookie settings
	JwtIssuer           string
	JWTSecretKey        string
	AuthTokenCookieName string

	// SecureCookie marks the auth-token cookie Secure. Must match the scs
	// manager's cookie setting.
	SecureCookie bool

	// How long a login is valid for. Defaults to 1 day.
	TimeoutSeconds int
}

func (s *Sessions) timeout() time.Duration {
	secs := s.TimeoutSeconds
	if secs <= 0 {
		secs = 86400
	}
	return time.Duration(secs) * time.Second
}

// Login stores the user's session key and sets the signed auth-token cookie.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, user *User) error {
	key, err := s.Codec.Encode(user)
	if err != nil {
		return err
	}
	// Rotate the session token across the privilege change so a token
	// planted before login cannot be replayed after it.
	if err := s.Manager.RenewToken(r.Context()); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	s.Manager.Put(r.Context(), SessionUserKey, key)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": key,
		"iss": s.JwtIssuer,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(s.timeout()).Unix(),
	})
	signed, err := token.SignedString([]byte(s.JWTSecretKey))
	if err != nil {
		return fmt.Errorf("signing auth token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.AuthTokenCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.SecureCookie,
		MaxAge:   int(s.timeout().Seconds()),
		Expires:  time.Now().Add(s.timeout()),
	})
	return nil
}

// Logout clears the session and expires the auth-token cookie.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Destroy(r.Context()); err != nil {
		log.Warn().Err(err).Msg("destroying session")
	}
	http.SetCookie(w, &http.Cookie{
		Name:    s.AuthTokenCookieName,
		Path:    "/",
		Secure:  s.SecureCookie,
		MaxAge:  -1,
		Expires: time.Now(),
	})
}

// Current decodes the requester's user from the session, falling back to
// the signed auth-token cookie. ErrSessionInvalid means "not logged in".
func (s *Sessions) Current(r *http.Request) (*User, error) {
	key := s.Manager.GetString(r.Context(), SessionUserKey)
	if key == "" {
		key = s.keyFromAuthToken(r)
	}
	if key == "" {
		return nil, ErrSessionInvalid
	}
	return s.Codec.Decode(r.Context(), key)
}

// keyFromAuthToken verifies the JWT cookie and returns its subject, or "".
func (s *Sessions) keyFromAuthToken(r *http.Request) string {
	for _, cookie := range r.Cookies() {
		if cookie.Name != s.AuthTokenCookieName || cookie.Value == "" {
			continue
		}
		token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (any, error) {
			return []byte(s.JWTSecretKey), nil
		})
		if err != nil || !token.Valid {
			log.Debug().Err(err).Msg("rejecting auth token cookie")
			continue
		}
		if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
			return sub
		}
	}
	return ""
}
