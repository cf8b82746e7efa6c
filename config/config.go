// Package config loads the process environment into a typed Config and
// derives the values the auth core needs, most notably the per-provider
// callback URLs.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/tasuku-app/tasuku/auth"
)

// EnvPrefix namespaces every environment variable.
const EnvPrefix = "TASUKU"

// Deployment modes.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ProviderConfig carries one OAuth provider's client settings. Scopes is a
// comma-separated list in the environment; empty means the provider's
// defaults.
type ProviderConfig struct {
	ClientID     string   `envconfig:"CLIENT_ID"`
	ClientSecret string   `envconfig:"CLIENT_SECRET"`
	Scopes       []string `envconfig:"SCOPES"`
}

type DBConfig struct {
	Driver string `envconfig:"DRIVER" default:"postgres"`
	DSN    string `envconfig:"DSN"`
}

type Config struct {
	AppName string `envconfig:"APP_NAME" default:"tasuku"`

	// Env is the deployment mode: development or production.
	Env string `envconfig:"ENV" default:"development"`

	// IsHTTPS reports whether the production deployment enforces HTTPS.
	IsHTTPS bool `envconfig:"IS_HTTPS"`

	// PublicHost is the externally visible host in production.
	PublicHost string `envconfig:"PUBLIC_HOST"`

	// Port the server listens on; appended to callback URLs only when set.
	Port string `envconfig:"PORT"`

	// BasePath is the application base path, e.g. "/todo". Empty for root.
	BasePath string `envconfig:"BASE_PATH"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	SessionSecret string `envconfig:"SESSION_SECRET"`
	JWTSecretKey  string `envconfig:"JWT_SECRET_KEY"`

	DB DBConfig `envconfig:"DB"`

	Discord ProviderConfig `envconfig:"DISCORD"`
	Google  ProviderConfig `envconfig:"GOOGLE"`
	X       ProviderConfig `envconfig:"X"`
}

// Load processes the environment into a Config. Validation is separate so
// tests can build configs by hand.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Provider returns the named provider's settings.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	switch name {
	case auth.ProviderDiscord:
		return c.Discord, nil
	case auth.ProviderGoogle:
		return c.Google, nil
	case auth.ProviderX:
		return c.X, nil
	}
	return ProviderConfig{}, auth.NewConfigError("config", fmt.Sprintf("unknown provider %q", name))
}

// Validate checks every value the service cannot run without. Any failure
// here is fatal at startup: the service must not serve auth traffic with a
// partially configured environment.
func (c *Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return auth.NewConfigError("env", fmt.Sprintf("unknown deployment mode %q", c.Env))
	}
	if c.IsProduction() && c.PublicHost == "" {
		return auth.NewConfigError("env", "PUBLIC_HOST is required in production")
	}
	if c.SessionSecret == "" {
		return auth.NewConfigError("session", "SESSION_SECRET is missing")
	}
	if c.JWTSecretKey == "" {
		return auth.NewConfigError("session", "JWT_SECRET_KEY is missing")
	}
	if c.DB.DSN == "" {
		return auth.NewConfigError("db", "DSN is missing")
	}
	for _, name := range auth.OAuthProviders() {
		p, err := c.Provider(name)
		if err != nil {
			return err
		}
		if p.ClientID == "" {
			return auth.NewConfigError(name, "client id is missing")
		}
		if p.ClientSecret == "" {
			return auth.NewConfigError(name, "client secret is missing")
		}
	}
	return nil
}

// CallbackURL builds the redirect URL a provider must call back to. It is
// pure: the output depends only on the receiver's environment values.
//
// The scheme is https only when the mode is production AND HTTPS is
// enforced; every other combination serves from http://localhost. The port
// is appended only when explicitly configured. The path is always
// {basePath}/auth/{provider}/callback.
func (c *Config) CallbackURL(provider string) string {
	var b strings.Builder
	if c.IsProduction() && c.IsHTTPS {
		b.WriteString("https://")
		b.WriteString(c.PublicHost)
	} else {
		b.WriteString("http://localhost")
	}
	if c.Port != "" {
		b.WriteString(":")
		b.WriteString(c.Port)
	}
	fmt.Fprintf(&b, "%s/auth/%s/callback", c.BasePath, provider)
	return b.String()
}

// RootURL is the externally visible application root, used for the startup
// banner and post-login redirects.
func (c *Config) RootURL() string {
	var b strings.Builder
	if c.IsProduction() && c.IsHTTPS {
		b.WriteString("https://")
		b.WriteString(c.PublicHost)
	} else {
		b.WriteString("http://localhost")
	}
	if c.Port != "" {
		b.WriteString(":")
		b.WriteString(c.Port)
	}
	b.WriteString(c.BasePath)
	b.WriteString("/")
	return b.String()
}
