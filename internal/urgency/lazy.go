package urgency

import (
	"context"
	"sync"
)

// ProviderFactory builds a Provider. A returned error is treated as a
// configuration error.
type ProviderFactory func() (Provider, error)

// LazyProvider constructs its Provider on first Send and reuses it. The
// factory runs at most once, and a construction failure is remembered.
type LazyProvider struct {
	factory ProviderFactory

	once     sync.Once
	provider Provider
	err      error
}

// NewLazyProvider returns a Provider that defers construction to first use.
func NewLazyProvider(factory ProviderFactory) *LazyProvider {
	return &LazyProvider{factory: factory}
}

// Get returns the underlying Provider, constructing it if needed.
func (l *LazyProvider) Get() (Provider, error) {
	l.once.Do(func() {
		p, err := l.factory()
		if err != nil {
			l.err = ConfigError(err)
			return
		}
		l.provider = p
	})
	return l.provider, l.err
}

// Send implements Provider.
func (l *LazyProvider) Send(ctx context.Context, req *LLMRequest) (*LLMResponse, error) {
	p, err := l.Get()
	if err != nil {
		return nil, err
	}
	return p.Send(ctx, req)
}
