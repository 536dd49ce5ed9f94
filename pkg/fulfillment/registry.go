package fulfillment

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry manages the fulfillment providers the service exposes. Providers
// are bound explicitly at startup and resolved by their identifier.
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Identifier()] = p
}

// Get returns a provider by identifier.
func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[id]; ok {
		return p, nil
	}
	return nil, ErrProviderNotFound.WithMessage("provider not found: %s", id)
}

// All returns all registered providers ordered by identifier.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Identifier() < result[j].Identifier()
	})
	return result
}

// Names returns the identifiers of all registered providers.
func (r *Registry) Names() []string {
	all := r.All()
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.Identifier()
	}
	return names
}

// Count returns the number of registered providers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// ListAllOptions fetches fulfillment options from every provider in parallel.
// A failing provider does not fail the whole listing; its error is returned
// alongside the options of the others.
func (r *Registry) ListAllOptions(ctx context.Context) ([]Option, []error) {
	providers := r.All()
	if len(providers) == 0 {
		return nil, []error{ErrProviderNotFound}
	}

	perProvider := make([][]Option, len(providers))
	errs := make([]error, 0)
	mu := &sync.Mutex{}

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			opts, err := p.ListFulfillmentOptions(ctx)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", p.Identifier(), err))
				mu.Unlock()
				return nil
			}
			perProvider[i] = opts
			return nil
		})
	}
	_ = g.Wait()

	var options []Option
	for _, opts := range perProvider {
		options = append(options, opts...)
	}
	return options, errs
}
