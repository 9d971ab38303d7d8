package container

import (
	"sync"

	"github.com/google/uuid"
)

// ── Binding ───────────────────────────────────────────────────────────────────

// binding is one registered recipe: the chain that builds the value, the
// scope, the optional configure phase and dispose hook. A binding is never
// mutated after registration — Replace installs a whole new binding value
// under the same name, with a fresh version token.
type binding struct {
	name      string
	scope     Scope
	chain     Chain
	configure []ConfigureStep
	dispose   func(any) error
	eager     bool

	// version tags every value built from this binding; the singleton cache
	// compares it to decide whether its entry is still current.
	version uuid.UUID
}

// bindingConfig collects the optional parts of a registration or replacement.
type bindingConfig struct {
	configure  []ConfigureStep
	dispose    func(any) error
	disposeSet bool
	eager      bool
}

// BindingOption customises a Register or Replace call.
type BindingOption func(*bindingConfig)

// WithConfigure attaches post-construction configure steps. They run after
// the main chain and before the value is cached; a failing step discards the
// instance.
func WithConfigure(steps ...ConfigureStep) BindingOption {
	return func(cfg *bindingConfig) {
		cfg.configure = append(cfg.configure, steps...)
	}
}

// WithDispose sets the cleanup hook run once per cached singleton instance,
// at Shutdown or when the binding is replaced. On a Replace call the hook of
// the old binding is kept unless this option supplies a new one.
func WithDispose(fn func(any) error) BindingOption {
	return func(cfg *bindingConfig) {
		cfg.dispose = fn
		cfg.disposeSet = true
	}
}

// WithEager marks a singleton for construction during Bootstrap instead of
// on first Resolve.
func WithEager() BindingOption {
	return func(cfg *bindingConfig) { cfg.eager = true }
}

func newBinding(name string, scope Scope, chain Chain, cfg bindingConfig) *binding {
	return &binding{
		name:      name,
		scope:     scope,
		chain:     chain,
		configure: cfg.configure,
		dispose:   cfg.dispose,
		eager:     cfg.eager,
		version:   uuid.New(),
	}
}

// ── Registry ──────────────────────────────────────────────────────────────────

// registry owns the name → binding map. It stores and swaps definitions;
// it never constructs values.
type registry struct {
	mu       sync.RWMutex
	bindings map[string]*binding

	// pending holds deferred replacements awaiting Refresh.
	pending map[string]*binding
}

func newRegistry() *registry {
	return &registry{
		bindings: make(map[string]*binding),
		pending:  make(map[string]*binding),
	}
}

func (r *registry) add(b *binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bindings[b.name]; ok {
		return duplicateErr(b.name)
	}
	r.bindings[b.name] = b
	return nil
}

func (r *registry) lookup(name string) (*binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[name]
	if !ok {
		return nil, unknownErr(name)
	}
	return b, nil
}

// swap atomically installs a replacement under an existing name and returns
// (displaced, installed). The replacement is built under the registry lock so
// it can inherit from the exact binding it displaces. With deferred set, the
// new binding is parked instead and the current one keeps serving until
// promote.
func (r *registry) swap(name string, build func(old *binding) *binding, deferred bool) (*binding, *binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.bindings[name]
	if !ok {
		return nil, nil, unknownErr(name)
	}
	nb := build(old)
	if deferred {
		r.pending[name] = nb
		return old, nb, nil
	}
	delete(r.pending, name)
	r.bindings[name] = nb
	return old, nb, nil
}

// promote cuts a parked replacement over, returning (displaced, installed).
// With nothing parked it returns (current, nil): Refresh then just rebuilds
// the cached instance from the current chain.
func (r *registry) promote(name string) (*binding, *binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.bindings[name]
	if !ok {
		return nil, nil, unknownErr(name)
	}
	nb, ok := r.pending[name]
	if !ok {
		return old, nil, nil
	}
	delete(r.pending, name)
	r.bindings[name] = nb
	return old, nb, nil
}

func (r *registry) remove(name string) (*binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[name]
	if !ok {
		return nil, unknownErr(name)
	}
	delete(r.bindings, name)
	delete(r.pending, name)
	return b, nil
}

func (r *registry) has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[name]
	return ok
}

func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		out = append(out, name)
	}
	return out
}

// eagerNames lists the singletons marked for Bootstrap construction.
func (r *registry) eagerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for name, b := range r.bindings {
		if b.eager && b.scope == Singleton {
			out = append(out, name)
		}
	}
	return out
}

func (r *registry) teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = make(map[string]*binding)
	r.pending = make(map[string]*binding)
}
