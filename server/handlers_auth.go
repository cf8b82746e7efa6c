package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/tasuku-app/tasuku/auth"
)

type signupRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=20"`
	Password   string `json:"password" validate:"required,min=8"`
	Repassword string `json:"repassword" validate:"required,eqfield=Password"`
}

// handleSignup registers a local account. This is the one path that writes
// a password hash; authentication itself stays read-only.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(r, map[string]*string{
		"username":   &req.Username,
		"password":   &req.Password,
		"repassword": &req.Repassword,
	}, &req); err != nil {
		writeError(w, r, auth.NewAuthError(auth.ErrCodeMissingField, err.Error(), ""))
		return
	}

	if err := s.validate.Struct(&req); err != nil {
		var invalid validator.ValidationErrors
		field := ""
		if errors.As(err, &invalid) && len(invalid) > 0 {
			field = strings.ToLower(invalid[0].Field())
		}
		writeError(w, r, auth.NewAuthError(auth.ErrCodeMissingField, "invalid signup form", field))
		return
	}

	// Availability check on the signup path only. The name column is not
	// unique at the store level, provider display names may collide.
	if _, err := s.users.GetUserByName(r.Context(), req.Username); err == nil {
		writeError(w, r, auth.NewAuthError(auth.ErrCodeUsernameTaken, "This username is already taken", "username"))
		return
	} else if !errors.Is(err, auth.ErrUserNotFound) {
		writeError(w, r, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, fmt.Errorf("hashing password: %w", err))
		return
	}

	user := &auth.User{Name: req.Username, PasswordHash: string(hash)}
	if err := s.users.CreateUser(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Int64("user_id", user.ID).Msg("local signup")

	if err := s.sessions.Login(w, r, user); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": viewOf(user)})
}

// handleSignin runs the local strategy.
func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var username, password string
	if err := decodeBody(r, map[string]*string{
		s.local.GetUsernameField(): &username,
		s.local.GetPasswordField(): &password,
	}, nil); err != nil {
		writeError(w, r, auth.NewAuthError(auth.ErrCodeMissingField, err.Error(), s.local.GetUsernameField()))
		return
	}

	user, err := s.local.Verify(r.Context(), auth.Attempt{Username: username, Password: password})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.sessions.Login(w, r, user); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": viewOf(user)})
}

// handleSigninInfo lists the available sign-in methods; OAuth failure
// redirects land here too.
func (s *Server) handleSigninInfo(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"providers": s.registry.Providers()}
	if reason := r.URL.Query().Get("error"); reason != "" {
		resp["error"] = reason
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(w, r)
	if to := r.URL.Query().Get("to"); isLocalRedirect(to) {
		http.Redirect(w, r, to, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// isLocalRedirect reports whether target is a same-site absolute path.
// Protocol-relative forms ("//host", "/\host") resolve off-site in browsers
// and are rejected along with absolute URLs.
func isLocalRedirect(target string) bool {
	if !strings.HasPrefix(target, "/") {
		return false
	}
	return !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, `/\`)
}

func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.csrf.EnsureToken(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"csrf_token": token})
}

// handleProviderProfile is called by an OAuth handshake handler with the
// normalized profile. The strategy resolves it to a canonical user, the
// session is established and the browser goes back where it came from.
func (s *Server) handleProviderProfile(provider string, profile *auth.Profile, w http.ResponseWriter, r *http.Request) {
	strat, err := s.registry.Get(provider)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := strat.Verify(r.Context(), auth.Attempt{Profile: profile})
	if err != nil {
		s.handleProviderFailure(provider, err, w, r)
		return
	}

	if err := s.sessions.Login(w, r, user); err != nil {
		writeError(w, r, err)
		return
	}

	target := s.rootPath()
	if cookie, _ := r.Cookie("oauthCallbackURL"); cookie != nil && isLocalRedirect(cookie.Value) {
		target = cookie.Value
	}
	// one-shot cookie, drop it so later logins go to the default
	http.SetCookie(w, &http.Cookie{
		Name:    "oauthCallbackURL",
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Now(),
	})
	http.Redirect(w, r, target, http.StatusFound)
}

// handleProviderFailure sends the browser back to the sign-in surface with
// the failing provider named, never a crash page.
func (s *Server) handleProviderFailure(provider string, err error, w http.ResponseWriter, r *http.Request) {
	log.Warn().Err(err).Str("provider", provider).Msg("provider authentication failed")
	target := "/signin?error=" + provider
	if s.cfg.BasePath != "" {
		target = s.cfg.BasePath + target
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// handleIndex reports whether the requester is logged in and, if so, as
// whom.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if user := auth.UserFromContext(r.Context()); user != nil {
		writeJSON(w, http.StatusOK, map[string]any{"isAuth": true, "user": viewOf(user)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"isAuth": false})
}

// decodeBody pulls named fields from a urlencoded form or, for JSON bodies,
// decodes into target (fields map is used when target is nil).
func decodeBody(r *http.Request, fields map[string]*string, target any) error {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if target != nil {
			if err := json.NewDecoder(r.Body).Decode(target); err != nil {
				return fmt.Errorf("invalid request body")
			}
			return nil
		}
		var data map[string]any
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
			return fmt.Errorf("invalid request body")
		}
		for name, dst := range fields {
			if v, ok := data[name].(string); ok {
				*dst = v
			}
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("error parsing form")
	}
	for name, dst := range fields {
		*dst = r.PostFormValue(name)
	}
	return nil
}
