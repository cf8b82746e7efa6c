package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tasuku-app/tasuku/auth"
	"github.com/tasuku-app/tasuku/store"
)

// userView is the wire shape of a user. The password hash and the provider
// access token never leave the server.
type userView struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

func viewOf(u *auth.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

// writeError maps the auth error taxonomy onto HTTP statuses. Anything not
// in the taxonomy is a 500 with a generic body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *auth.AuthError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": "Invalid username or password",
			"code":  auth.ErrCodeInvalidCreds,
		})
	case errors.Is(err, auth.ErrSessionInvalid):
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": "Not authenticated",
		})
	case errors.Is(err, store.ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "Task not found",
		})
	case errors.As(err, &authErr):
		status := http.StatusBadRequest
		switch authErr.Code {
		case auth.ErrCodeInvalidCreds, auth.ErrCodeProviderDenied:
			status = http.StatusUnauthorized
		case auth.ErrCodeUsernameTaken:
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]any{
			"error": authErr.Message,
			"code":  authErr.Code,
			"field": authErr.Field,
		})
	default:
		log.Error().Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "Internal error",
		})
	}
}
