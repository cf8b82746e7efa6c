package server

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

// CSRFSessionKey is the session variable holding the token.
const CSRFSessionKey = "csrf_token"

// CSRFHeader and CSRFFormField are the two places a client may present it.
const (
	CSRFHeader    = "X-CSRF-Token"
	CSRFFormField = "csrf_token"
)

// CSRFManager issues and verifies per-session CSRF tokens. The rest of the
// application only sees a pass/fail gate.
type CSRFManager struct {
	sessions *scs.SessionManager
}

func NewCSRFManager(sessions *scs.SessionManager) *CSRFManager {
	return &CSRFManager{sessions: sessions}
}

// EnsureToken returns the session's token, minting one if absent.
func (m *CSRFManager) EnsureToken(r *http.Request) (string, error) {
	if token := m.sessions.GetString(r.Context(), CSRFSessionKey); token != "" {
		return token, nil
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)
	m.sessions.Put(r.Context(), CSRFSessionKey, token)
	return token, nil
}

// Gate rejects mutating requests whose token does not match the session's.
// Safe methods pass through untouched.
func (m *CSRFManager) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		expected := m.sessions.GetString(r.Context(), CSRFSessionKey)
		presented := r.Header.Get(CSRFHeader)
		if presented == "" {
			presented = r.PostFormValue(CSRFFormField)
		}
		if expected == "" || presented == "" || !hmac.Equal([]byte(expected), []byte(presented)) {
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
