package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasuku-app/tasuku/auth"
)

func validConfig() *Config {
	return &Config{
		Env:           EnvDevelopment,
		SessionSecret: "s",
		JWTSecretKey:  "j",
		DB:            DBConfig{Driver: "sqlite", DSN: "file:test.db"},
		Discord:       ProviderConfig{ClientID: "di", ClientSecret: "ds"},
		Google:        ProviderConfig{ClientID: "gi", ClientSecret: "gs"},
		X:             ProviderConfig{ClientID: "xi", ClientSecret: "xs"},
	}
}

func TestCallbackURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			"development default",
			Config{Env: EnvDevelopment},
			"http://localhost/auth/discord/callback",
		},
		{
			"development with port",
			Config{Env: EnvDevelopment, Port: "3000"},
			"http://localhost:3000/auth/discord/callback",
		},
		{
			"development ignores public host",
			Config{Env: EnvDevelopment, PublicHost: "todo.example.com", Port: "3000"},
			"http://localhost:3000/auth/discord/callback",
		},
		{
			"production without https stays on localhost",
			Config{Env: EnvProduction, PublicHost: "todo.example.com", Port: "3000"},
			"http://localhost:3000/auth/discord/callback",
		},
		{
			"production with https",
			Config{Env: EnvProduction, IsHTTPS: true, PublicHost: "todo.example.com"},
			"https://todo.example.com/auth/discord/callback",
		},
		{
			"production with https and port",
			Config{Env: EnvProduction, IsHTTPS: true, PublicHost: "todo.example.com", Port: "8443"},
			"https://todo.example.com:8443/auth/discord/callback",
		},
		{
			"base path prefixes the route",
			Config{Env: EnvProduction, IsHTTPS: true, PublicHost: "todo.example.com", BasePath: "/todo"},
			"https://todo.example.com/todo/auth/discord/callback",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.CallbackURL("discord"))
		})
	}
}

func TestCallbackURLIsDeterministic(t *testing.T) {
	cfg := Config{Env: EnvProduction, IsHTTPS: true, PublicHost: "todo.example.com", Port: "443", BasePath: "/todo"}
	first := cfg.CallbackURL("google")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, cfg.CallbackURL("google"))
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Env = "staging" }},
		{"production needs public host", func(c *Config) { c.Env = EnvProduction }},
		{"missing session secret", func(c *Config) { c.SessionSecret = "" }},
		{"missing jwt secret", func(c *Config) { c.JWTSecretKey = "" }},
		{"missing dsn", func(c *Config) { c.DB.DSN = "" }},
		{"missing discord client id", func(c *Config) { c.Discord.ClientID = "" }},
		{"missing google client secret", func(c *Config) { c.Google.ClientSecret = "" }},
		{"missing x client id", func(c *Config) { c.X.ClientID = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *auth.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestProviderLookup(t *testing.T) {
	cfg := validConfig()

	p, err := cfg.Provider(auth.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "gi", p.ClientID)

	_, err = cfg.Provider("github")
	require.Error(t, err)
}

func TestRootURL(t *testing.T) {
	cfg := Config{Env: EnvDevelopment, Port: "3000", BasePath: "/todo"}
	assert.Equal(t, "http://localhost:3000/todo/", cfg.RootURL())

	cfg = Config{Env: EnvProduction, IsHTTPS: true, PublicHost: "todo.example.com"}
	assert.Equal(t, "https://todo.example.com/", cfg.RootURL())
}
