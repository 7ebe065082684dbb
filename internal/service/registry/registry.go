// Package registry resolves provider names to adapters.
package registry

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"BarPull/internal/domain/models"
	"BarPull/internal/domain/repository"
	"BarPull/internal/service/binance"
	"BarPull/internal/service/finnhub"
	"BarPull/internal/service/polygon"
	"BarPull/internal/service/transport"
)

// Settings carries per-provider endpoint configuration.
type Settings struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Constructor builds one adapter around a transport.
type Constructor func(t repository.Transport, s Settings) repository.Adapter

var constructors = map[string]Constructor{
	binance.Name: func(t repository.Transport, s Settings) repository.Adapter {
		return binance.New(t, binance.WithBaseURL(s.BaseURL), binance.WithTimeout(s.Timeout))
	},
	polygon.Name: func(t repository.Transport, s Settings) repository.Adapter {
		return polygon.New(t, polygon.WithBaseURL(s.BaseURL), polygon.WithAPIKey(s.APIKey), polygon.WithTimeout(s.Timeout))
	},
	finnhub.Name: func(t repository.Transport, s Settings) repository.Adapter {
		return finnhub.New(t, finnhub.WithBaseURL(s.BaseURL), finnhub.WithAPIKey(s.APIKey), finnhub.WithTimeout(s.Timeout))
	},
}

// Option configures a Registry.
type Option func(*Registry)

// WithSettings sets endpoint configuration for one provider.
func WithSettings(name string, s Settings) Option {
	return func(r *Registry) { r.settings[normalize(name)] = s }
}

// WithDefaultTransport replaces the transport used when callers pass nil.
func WithDefaultTransport(t repository.Transport) Option {
	return func(r *Registry) { r.transport = t }
}

// Registry is immutable after New and safe for concurrent use.
type Registry struct {
	settings  map[string]Settings
	transport repository.Transport
}

func New(opts ...Option) *Registry {
	r := &Registry{settings: make(map[string]Settings)}
	for _, opt := range opts {
		opt(r)
	}
	if r.transport == nil {
		r.transport = transport.Default()
	}
	return r
}

// GetAdapter constructs the named adapter. A nil transport selects the
// registry default.
func (r *Registry) GetAdapter(name string, t repository.Transport) (repository.Adapter, error) {
	key := normalize(name)
	ctor, ok := constructors[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownProvider, name)
	}
	if t == nil {
		t = r.transport
	}
	return ctor(t, r.settings[key]), nil
}

// Names lists the registered providers, sorted.
func (r *Registry) Names() []string { return Names() }

var defaultRegistry = New()

// GetAdapter resolves name against a registry with vendor defaults.
func GetAdapter(name string, t repository.Transport) (repository.Adapter, error) {
	return defaultRegistry.GetAdapter(name, t)
}

// Names lists the registered providers, sorted.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
