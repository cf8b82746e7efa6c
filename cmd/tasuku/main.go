package main

import (
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tasuku-app/tasuku/auth"
	"github.com/tasuku-app/tasuku/config"
	"github.com/tasuku-app/tasuku/server"
	"github.com/tasuku-app/tasuku/store"
)

func main() {
	// .env is optional; the real environment always wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger().Level(level)

	// A misconfigured provider or environment must never serve auth traffic.
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := store.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("opening database")
	}
	if err := store.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrating schema")
	}

	users := store.NewUserStore(db)
	tasks := store.NewTaskStore(db)

	resolver := &auth.Resolver{Users: users}
	verifier := &auth.CredentialVerifier{Users: users}

	strategies := []auth.Strategy{
		&auth.LocalStrategy{Verifier: verifier},
	}
	for _, name := range auth.OAuthProviders() {
		provider, err := cfg.Provider(name)
		if err != nil {
			log.Fatal().Err(err).Msg("resolving provider config")
		}
		strategies = append(strategies, &auth.OAuthStrategy{
			Name:         name,
			ClientID:     provider.ClientID,
			ClientSecret: provider.ClientSecret,
			CallbackURL:  cfg.CallbackURL(name),
			Scopes:       provider.Scopes,
			Resolver:     resolver,
		})
	}
	registry, err := auth.NewRegistry(strategies...)
	if err != nil {
		log.Fatal().Err(err).Msg("building strategy registry")
	}

	secureCookies := cfg.IsProduction() && cfg.IsHTTPS
	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Secure = secureCookies

	sessions := &auth.Sessions{
		Manager:             sessionManager,
		Codec:               &auth.Codec{Users: users},
		JwtIssuer:           cfg.AppName + "-issuer",
		JWTSecretKey:        cfg.JWTSecretKey,
		AuthTokenCookieName: cfg.AppName + "AuthToken",
		SecureCookie:        secureCookies,
	}

	srv, err := server.New(cfg, registry, sessions, users, tasks)
	if err != nil {
		log.Fatal().Err(err).Msg("building server")
	}

	port := cfg.Port
	if port == "" {
		port = "3000"
	}
	log.Info().Str("mode", cfg.Env).Str("base_url", cfg.RootURL()).Msgf("listening on :%s", port)
	if err := http.ListenAndServe(":"+port, srv.Handler()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
