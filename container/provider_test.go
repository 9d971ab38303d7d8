package container_test

import (
	"testing"

	"github.com/km-arc/go-chaindi/container"
)

// ── stub providers ────────────────────────────────────────────────────────────

type eagerProvider struct {
	container.BaseProvider
	registerCalled bool
	bootCalled     bool
}

func (p *eagerProvider) Register(c *container.Container) error {
	p.registerCalled = true
	return c.Register("eager-svc", container.Singleton,
		container.NewChain(container.Construct(func() string { return "eager" })))
}

func (p *eagerProvider) Boot(c *container.Container) error {
	p.bootCalled = true
	return nil
}

// deferredProvider is lazy — only registered when "deferred-svc" is first resolved.
type deferredProvider struct {
	container.BaseProvider
	registerCalled bool
}

func (p *deferredProvider) Register(c *container.Container) error {
	p.registerCalled = true
	return c.Register("deferred-svc", container.Singleton,
		container.NewChain(container.Construct(func() string { return "deferred-value" })))
}

func (p *deferredProvider) IsDeferred() bool   { return true }
func (p *deferredProvider) Provides() []string { return []string{"deferred-svc"} }

// multiProvider registers multiple bindings.
type multiProvider struct {
	container.BaseProvider
}

func (p *multiProvider) Register(c *container.Container) error {
	if err := c.Register("alpha", container.Singleton,
		container.NewChain(container.Construct(func() string { return "α" }))); err != nil {
		return err
	}
	return c.Register("beta", container.Singleton,
		container.NewChain(container.Construct(func() string { return "β" })))
}

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_EagerProvider_RegisterCalled(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	if err := reg.Register(p); err != nil {
		t.Fatal(err)
	}

	if !p.registerCalled {
		t.Error("Register() should be called immediately for eager providers")
	}
}

func TestRegistry_EagerProvider_BootCalledAfterBoot(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	if err := reg.Register(p); err != nil {
		t.Fatal(err)
	}

	if p.bootCalled {
		t.Error("Boot() should NOT be called before registry.Boot()")
	}

	if err := reg.Boot(); err != nil {
		t.Fatal(err)
	}

	if !p.bootCalled {
		t.Error("Boot() should be called after registry.Boot()")
	}
}

func TestRegistry_EagerProvider_ServiceResolvable(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	if err := reg.Register(&eagerProvider{}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Boot(); err != nil {
		t.Fatal(err)
	}

	got := container.MustResolve[string](c, "eager-svc")
	if got != "eager" {
		t.Errorf("eager-svc: got %q, want 'eager'", got)
	}
}

func TestRegistry_Boot_IdempotentCallsAreIgnored(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	if err := reg.Register(&eagerProvider{}); err != nil {
		t.Fatal(err)
	}

	if err := reg.Boot(); err != nil {
		t.Fatal(err)
	}
	if err := reg.Boot(); err != nil { // second call should be no-op
		t.Fatal(err)
	}

	if !reg.Booted() {
		t.Error("Booted() should be true after Boot()")
	}
}

func TestRegistry_DuplicateRegister_Ignored(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	if err := reg.Register(p); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(p); err != nil { // second register of same instance
		t.Fatal(err)
	}

	if !p.registerCalled {
		t.Error("provider should have been registered once")
	}
}

// ── Deferred providers ────────────────────────────────────────────────────────

func TestRegistry_DeferredProvider_NotRegisteredEagerly(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	if err := reg.Register(p); err != nil {
		t.Fatal(err)
	}
	if err := reg.Boot(); err != nil {
		t.Fatal(err)
	}

	if p.registerCalled {
		t.Error("deferred provider Register() should not be called until Resolve()")
	}
}

func TestRegistry_DeferredProvider_RegisteredOnFirstResolve(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	if err := reg.Register(p); err != nil {
		t.Fatal(err)
	}
	if err := reg.Boot(); err != nil {
		t.Fatal(err)
	}

	// Trigger lazy load
	got := container.MustResolve[string](c, "deferred-svc")
	if got != "deferred-value" {
		t.Errorf("deferred-svc: got %q, want 'deferred-value'", got)
	}
	if !p.registerCalled {
		t.Error("first Resolve should have loaded the deferred provider")
	}

	// Subsequent resolutions go through the real singleton binding.
	again := container.MustResolve[string](c, "deferred-svc")
	if again != "deferred-value" {
		t.Errorf("second resolve: got %q", again)
	}
}

// ── Multiple providers ────────────────────────────────────────────────────────

func TestRegistry_MultipleProviders_AllServicesResolvable(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	if err := reg.Register(&multiProvider{}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(&eagerProvider{}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Boot(); err != nil {
		t.Fatal(err)
	}

	for name, want := range map[string]string{
		"alpha":     "α",
		"beta":      "β",
		"eager-svc": "eager",
	} {
		if got := container.MustResolve[string](c, name); got != want {
			t.Errorf("%s: got %q, want %q", name, got, want)
		}
	}
}

// ── Providers list ────────────────────────────────────────────────────────────

func TestRegistry_Providers_ReturnsEagerOnes(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	if err := reg.Register(&eagerProvider{}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(&deferredProvider{}); err != nil { // deferred — not in Providers()
		t.Fatal(err)
	}

	if len(reg.Providers()) != 1 {
		t.Errorf("Providers(): got %d, want 1 (eager only)", len(reg.Providers()))
	}
}

// ── BaseProvider defaults ─────────────────────────────────────────────────────

func TestBaseProvider_Defaults(t *testing.T) {
	var p container.BaseProvider
	c := container.New()

	if err := p.Boot(c); err != nil {
		t.Errorf("BaseProvider.Boot: %v", err)
	}
	if p.IsDeferred() {
		t.Error("BaseProvider.IsDeferred() should be false")
	}
	if len(p.Provides()) != 0 {
		t.Error("BaseProvider.Provides() should return empty slice")
	}
}

// ── Boot after registration (late provider) ───────────────────────────────────

func TestRegistry_RegisterAfterBoot_BootsImmediately(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	if err := reg.Boot(); err != nil { // boot before registering
		t.Fatal(err)
	}

	p := &eagerProvider{}
	if err := reg.Register(p); err != nil {
		t.Fatal(err)
	}

	if !p.bootCalled {
		t.Error("provider registered after Boot() should be booted immediately")
	}
}
