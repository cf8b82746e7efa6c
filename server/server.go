// Package server wires the HTTP surface: the to-do resource, local
// signup/signin, the OAuth mounts and the session lifecycle.
package server

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/tasuku-app/tasuku/auth"
	oa2 "github.com/tasuku-app/tasuku/auth/oauth2"
	"github.com/tasuku-app/tasuku/config"
	"github.com/tasuku-app/tasuku/store"
)

type Server struct {
	cfg      *config.Config
	registry *auth.Registry
	sessions *auth.Sessions
	mw       *auth.Middleware
	users    auth.UserStore
	tasks    *store.TaskStore
	validate *validator.Validate
	csrf     *CSRFManager
	local    *auth.LocalStrategy
	oauth    []oa2.Handler
}

// New builds the server. Everything that can be misconfigured fails here,
// before any traffic is served: strategy lookup, handshake handler
// construction, the lot.
func New(cfg *config.Config, registry *auth.Registry, sessions *auth.Sessions, users auth.UserStore, tasks *store.TaskStore) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		sessions: sessions,
		users:    users,
		tasks:    tasks,
		validate: validator.New(),
		csrf:     NewCSRFManager(sessions.Manager),
		mw: &auth.Middleware{
			Sessions: sessions,
		},
	}

	local, err := registry.Get(auth.ProviderLocal)
	if err != nil {
		return nil, err
	}
	localStrategy, ok := local.(*auth.LocalStrategy)
	if !ok {
		return nil, auth.NewConfigError("server", "local strategy has unexpected type")
	}
	s.local = localStrategy

	for _, strat := range registry.OAuthStrategies() {
		handler, err := oa2.New(strat, s.handleProviderProfile, s.handleProviderFailure)
		if err != nil {
			return nil, err
		}
		s.oauth = append(s.oauth, handler)
	}

	return s, nil
}

// Handler returns the fully wired HTTP handler, sessions included.
func (s *Server) Handler() http.Handler {
	root := mux.NewRouter()
	r := root
	if s.cfg.BasePath != "" {
		r = root.PathPrefix(s.cfg.BasePath).Subrouter()
	}

	r.Use(RequestID, Logging)
	r.Use(s.csrf.Gate)

	r.HandleFunc("/csrf", s.handleCSRFToken).Methods(http.MethodGet)
	r.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/signin", s.handleSigninInfo).Methods(http.MethodGet)
	r.HandleFunc("/signin", s.handleSignin).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet)

	for _, handler := range s.oauth {
		name := handler.Provider()
		r.HandleFunc("/auth/"+name, handler.HandleStart).Methods(http.MethodGet)
		r.HandleFunc("/auth/"+name+"/callback", handler.HandleCallback).Methods(http.MethodGet)
	}

	tasks := r.PathPrefix("/tasks").Subrouter()
	tasks.Use(s.mw.RequireUser)
	tasks.HandleFunc("", s.handleListTasks).Methods(http.MethodGet)
	tasks.HandleFunc("", s.handleCreateTask).Methods(http.MethodPost)
	tasks.HandleFunc("/{id:[0-9]+}/toggle", s.handleToggleTask).Methods(http.MethodPost)
	tasks.HandleFunc("/{id:[0-9]+}", s.handleDeleteTask).Methods(http.MethodDelete)

	r.Handle("/", s.mw.ExtractUser(http.HandlerFunc(s.handleIndex))).Methods(http.MethodGet)

	return s.sessions.Manager.LoadAndSave(root)
}

// basePath-relative redirect target after a successful login.
func (s *Server) rootPath() string {
	if s.cfg.BasePath != "" {
		return s.cfg.BasePath + "/"
	}
	return "/"
}
