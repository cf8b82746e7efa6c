package auth

import (
	"fmt"
	"sort"
)

// Registry holds the fixed, named set of authentication strategies. It is
// constructed once at startup and injected into the request-handling path;
// there is no process-wide registry, so tests can build isolated registries
// with fake strategies.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry validates every strategy and returns the registry. Any
// misconfigured strategy (missing client id, secret or callback URL) is a
// ConfigError and must abort startup.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	r := &Registry{strategies: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		if oauth, ok := s.(*OAuthStrategy); ok {
			if err := oauth.validate(); err != nil {
				return nil, err
			}
		}
		name := s.Provider()
		if _, exists := r.strategies[name]; exists {
			return nil, NewConfigError("registry", fmt.Sprintf("provider %q registered twice", name))
		}
		r.strategies[name] = s
	}
	return r, nil
}

// Get looks up a strategy by provider name. An unregistered name is a
// ConfigError: route wiring happens at startup, so hitting this at request
// time means the deployment is inconsistent.
func (r *Registry) Get(provider string) (Strategy, error) {
	s, ok := r.strategies[provider]
	if !ok {
		return nil, NewConfigError("registry", fmt.Sprintf("provider %q is not registered", provider))
	}
	return s, nil
}

// Providers returns the registered provider names, sorted.
func (r *Registry) Providers() []string {
	out := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// OAuthStrategies returns the registered OAuth strategies, sorted by name.
// The server mounts one redirect/callback pair per entry.
func (r *Registry) OAuthStrategies() []*OAuthStrategy {
	var out []*OAuthStrategy
	for _, s := range r.strategies {
		if oauth, ok := s.(*OAuthStrategy); ok {
			out = append(out, oauth)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
