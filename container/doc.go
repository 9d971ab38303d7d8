// Package container provides a chained-factory IoC container: named bindings
// whose values are produced by ordered chains of construction steps, with
// singleton/prototype scopes, a post-construction configure phase, runtime
// replacement of bindings and an explicit disposal phase at shutdown.
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Register bindings (directly, via Define, or via ServiceProviders)
//  3. Bootstrap: c.Bootstrap() — builds eager singletons
//  4. Resolve and serve
//  5. Shutdown: c.Shutdown() — disposes singletons in reverse build order
//
// # Chains
//
// A binding's value is produced by a Chain: a Construct step followed by any
// number of Invoke steps, evaluated strictly left to right.
//
//	chain := container.NewChain(
//	    container.Construct(smtp.NewMailer, container.Use("config")),
//	    container.Invoke("SetRetries", container.Val(3)),   // void — stays on the mailer
//	    container.Invoke("Build"),                          // returns the final value
//	)
//	err := c.Register("mailer", container.Singleton, chain)
//
// An Invoke on a void method leaves the chain's current value unchanged, so
// setter-style methods chain fluently; a value-returning method replaces the
// current value. Arguments are literals (Val) or references to other bindings
// (Use), resolved recursively with cycle detection.
//
// # Scopes
//
//	// Singleton — built at most once, cached, disposed at Shutdown
//	c.Register("cache", container.Singleton, chain)
//
//	// Prototype — fresh value every Resolve, caller-owned
//	c.Register("logger", container.Prototype, chain)
//
// # Resolving
//
//	// Untyped
//	raw, err := c.Resolve("cache")
//
//	// Generic (preferred — no type assertion required)
//	cache, err := container.Resolve[*redis.Cache](c, "cache")
//
// # Configure phase
//
// Configure steps run after the main chain, before the value is cached, and
// may reference other bindings — e.g. to register the new value into a
// registry singleton. A failing configure step discards the instance.
//
//	c.Register("worker", container.Singleton, chain,
//	    container.WithConfigure(container.ConfigureRef("pool", func(w, p any) error {
//	        return p.(*Pool).Add(w.(*Worker))
//	    })))
//
// # Replacement
//
// Replace swaps a binding's chain at runtime without touching values already
// handed out: the container's own cache is evicted (old instance disposed)
// and the next Resolve builds from the new chain. ReplaceDeferred parks the
// new chain instead, serving the old instance until Refresh cuts over.
//
//	_ = c.Replace("gateway", stripeChain)            // immediate
//	_ = c.ReplaceDeferred("gateway", stripeChain)    // parked
//	_ = c.Refresh("gateway")                         // cutover
//
// # Disposal
//
//	c.Register("db", container.Singleton, chain,
//	    container.WithDispose(func(v any) error { return v.(*sql.DB).Close() }))
//
// Shutdown runs every hook in reverse construction order and always attempts
// all of them; failures are aggregated into one *DisposalError.
//
// # Service Providers
//
//	type AppProvider struct{ container.BaseProvider }
//
//	func (p *AppProvider) Register(c *container.Container) error {
//	    return c.Define("mailer").
//	        Chain(container.Construct(smtp.NewMailer, container.Use("config"))).
//	        Apply()
//	}
//
//	registry := container.NewProviderRegistry(c)
//	_ = registry.Register(&AppProvider{})
//	_ = registry.Boot()
package container
