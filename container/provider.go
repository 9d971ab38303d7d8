package container

import "sync"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related bindings into one unit of wiring.
//
// Every provider must implement at minimum Register(). Boot() is called after
// ALL providers have been registered, making it safe to resolve other
// bindings inside Boot().
//
//	type PaymentProvider struct{ container.BaseProvider }
//
//	func (p *PaymentProvider) Register(c *container.Container) error {
//	    return c.Define("gateway").
//	        Chain(container.Construct(NewGateway, container.Use("config"))).
//	        Apply()
//	}
//
//	func (p *PaymentProvider) Boot(c *container.Container) error {
//	    gw, err := container.Resolve[*Gateway](c, "gateway")
//	    ...
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here — use Boot() for that.
	Register(c *Container) error

	// Boot is called after all providers are registered.
	// Safe to resolve and use any binding here.
	Boot(c *Container) error

	// Provides returns the binding names this provider registers.
	// Used for deferred (lazy) provider loading.
	// Return nil / empty slice if the provider is always eager.
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily —
	// only when one of its Provides() names is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
// Embed it in your provider and only override what you need.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
type ProviderRegistry struct {
	app        *Container
	eager      []ServiceProvider
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register() method (unless deferred).
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		return r.interceptDeferred(provider)
	}

	if err := provider.Register(r.app); err != nil {
		return err
	}
	r.eager = append(r.eager, provider)

	// If already booted, boot this provider immediately
	if r.booted {
		return provider.Boot(r.app)
	}
	return nil
}

// interceptDeferred registers a placeholder prototype binding for each
// deferred name. The first Resolve replaces the placeholders with the
// provider's real bindings and resolves through them.
func (r *ProviderRegistry) interceptDeferred(provider ServiceProvider) error {
	var once sync.Once
	var loadErr error
	load := func() error {
		once.Do(func() {
			for _, name := range provider.Provides() {
				if loadErr = r.app.Unregister(name); loadErr != nil {
					return
				}
			}
			if loadErr = provider.Register(r.app); loadErr != nil {
				return
			}
			if r.booted {
				loadErr = provider.Boot(r.app)
			}
		})
		return loadErr
	}
	for _, name := range provider.Provides() {
		target := name
		chain := NewChain(Construct(func() (any, error) {
			if err := load(); err != nil {
				return nil, err
			}
			return r.app.Resolve(target)
		}))
		if err := r.app.Register(target, Prototype, chain); err != nil {
			return err
		}
	}
	return nil
}

// Boot calls Boot() on all eager providers.
// Must be called after ALL providers have been registered.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.eager {
		if err := provider.Boot(r.app); err != nil {
			return err
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }
