package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

type ctxUserKey struct{}

// Middleware loads the requester's user into the request context so that
// downstream handlers share one lookup per request.
type Middleware struct {
	Sessions *Sessions

	// LoginURL, when set, is where RequireUser redirects anonymous browser
	// requests (with a callbackURL query param pointing back). When empty,
	// RequireUser answers 401.
	LoginURL         string
	CallbackURLParam string
}

func (m *Middleware) callbackParam() string {
	if m.CallbackURLParam != "" {
		return m.CallbackURLParam
	}
	return "callbackURL"
}

// ExtractUser resolves the session user, if any, and stores it in the
// request context. It never rejects the request: an invalid session just
// means downstream sees no user.
func (m *Middleware) ExtractUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.Sessions.Current(r)
		if err != nil && !errors.Is(err, ErrSessionInvalid) {
			// Store trouble, not an anonymous user. Log it and carry on
			// unauthenticated rather than failing the whole request.
			log.Error().Err(err).Msg("resolving session user")
		}
		if user != nil {
			r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser runs ExtractUser and rejects requests with no user.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return m.ExtractUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			if m.LoginURL != "" {
				original := strings.Replace(url.QueryEscape(r.URL.Path), "+", "%20", -1)
				http.Redirect(w, r, fmt.Sprintf("%s?%s=%s", m.LoginURL, m.callbackParam(), original), http.StatusFound)
				return
			}
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// UserFromContext returns the user ExtractUser stored, or nil.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(ctxUserKey{}).(*User)
	return user
}
