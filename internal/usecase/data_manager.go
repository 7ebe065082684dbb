package usecase

import (
	"context"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
	"BarPull/internal/service/registry"
)

// AdapterFactory resolves a provider name to a ready adapter.
type AdapterFactory func(name string) (domrepo.Adapter, error)

// DataManagerOption configures DataManager.
type DataManagerOption func(*DataManager)

// WithAdapterFactory replaces adapter construction entirely.
func WithAdapterFactory(f AdapterFactory) DataManagerOption {
	return func(m *DataManager) { m.factory = f }
}

// WithTransport forces every adapter onto t.
func WithTransport(t domrepo.Transport) DataManagerOption {
	return func(m *DataManager) { m.transport = t }
}

// WithRegistry resolves adapters through r instead of the package default.
func WithRegistry(r *registry.Registry) DataManagerOption {
	return func(m *DataManager) { m.registry = r }
}

// DataManager is the single entry point for fetching normalized market data.
type DataManager struct {
	factory   AdapterFactory
	registry  *registry.Registry
	transport domrepo.Transport
}

func NewDataManager(opts ...DataManagerOption) *DataManager {
	m := &DataManager{}
	for _, opt := range opts {
		opt(m)
	}
	if m.factory == nil {
		m.factory = m.resolve
	}
	return m
}

func (m *DataManager) resolve(name string) (domrepo.Adapter, error) {
	if m.registry != nil {
		return m.registry.GetAdapter(name, m.transport)
	}
	return registry.GetAdapter(name, m.transport)
}

// FetchMarketData returns the adapter output before conversion. Registry and
// adapter errors are returned as is.
func (m *DataManager) FetchMarketData(ctx context.Context, provider string, params models.FetchParams) (models.FetchResult, error) {
	adapter, err := m.factory(provider)
	if err != nil {
		return models.FetchResult{}, err
	}
	return adapter.Fetch(ctx, params)
}

// Providers lists the providers the default factory can resolve.
func (m *DataManager) Providers() []string {
	return registry.Names()
}
