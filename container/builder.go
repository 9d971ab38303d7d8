package container

// Definition implements the fluent registration API.
//
//	err := c.Define("gateway").
//	    Chain(container.Construct(NewPayPalGateway, container.Use("config"))).
//	    Dispose(func(v any) error { return v.(*PayPalGateway).Close() }).
//	    Apply()
//
// Scope defaults to Singleton; call Prototype() to opt out of caching.
type Definition struct {
	container *Container
	name      string
	scope     Scope
	steps     []Step
	opts      []BindingOption
}

// Define starts a fluent registration for name.
func (c *Container) Define(name string) *Definition {
	return &Definition{container: c, name: name, scope: Singleton}
}

// Singleton sets Singleton scope (the default).
func (d *Definition) Singleton() *Definition {
	d.scope = Singleton
	return d
}

// Prototype sets Prototype scope: a fresh value per Resolve, caller-owned.
func (d *Definition) Prototype() *Definition {
	d.scope = Prototype
	return d
}

// Chain appends construction steps.
func (d *Definition) Chain(steps ...Step) *Definition {
	d.steps = append(d.steps, steps...)
	return d
}

// Configure appends post-construction configure steps.
func (d *Definition) Configure(steps ...ConfigureStep) *Definition {
	d.opts = append(d.opts, WithConfigure(steps...))
	return d
}

// Dispose sets the cleanup hook for cached instances.
func (d *Definition) Dispose(fn func(any) error) *Definition {
	d.opts = append(d.opts, WithDispose(fn))
	return d
}

// Eager marks the singleton for construction during Bootstrap.
func (d *Definition) Eager() *Definition {
	d.opts = append(d.opts, WithEager())
	return d
}

// Apply registers the definition.
func (d *Definition) Apply() error {
	return d.container.Register(d.name, d.scope, NewChain(d.steps...), d.opts...)
}
