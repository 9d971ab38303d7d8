package container

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Container is the factory-graph container. It resolves named bindings to
// constructed values via their chains, caches singletons with at-most-once
// construction, supports atomic runtime replacement of bindings and runs
// dispose hooks in reverse construction order at Shutdown.
//
// The container is a passive data structure: it performs no scheduling of its
// own and is safe for concurrent use by caller goroutines.
type Container struct {
	reg  *registry
	life *lifecycle

	// cells holds one indirection cell per singleton name, created lazily on
	// first resolution. Dependents always resolve through the cell, so a
	// Replace only has to advance the cell — never reach into consumer state.
	cellMu sync.Mutex
	cells  map[string]*cell

	// wait-for graph: which resolution is constructing which cell, and
	// which cell each blocked resolution is waiting on. A wait that would
	// close a loop here is a dependency cycle split across goroutines and
	// is rejected instead of deadlocking both calls.
	waitMu     sync.Mutex
	building   map[string]uint64
	waiting    map[uint64]string
	resolveSeq atomic.Uint64

	// shutdown gate: resolves in flight are counted; once closing is set,
	// new operations fail fast and Shutdown waits for the count to drain.
	gateMu   sync.Mutex
	closing  bool
	inflight sync.WaitGroup

	downOnce sync.Once
	downErr  error
}

// cell is the per-singleton indirection point. built/value/version form the
// cache entry; done is non-nil exactly while one goroutine is constructing,
// so concurrent first-resolutions wait instead of building twice.
type cell struct {
	mu      sync.Mutex
	done    chan struct{}
	built   bool
	value   any
	version uuid.UUID
}

// New creates an empty container.
func New() *Container {
	return &Container{
		reg:      newRegistry(),
		life:     newLifecycle(),
		cells:    make(map[string]*cell),
		building: make(map[string]uint64),
		waiting:  make(map[uint64]string),
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register binds a chain under a unique name.
//
//	err := c.Register("counter", container.Singleton,
//	    container.NewChain(container.Construct(NewCounter)),
//	    container.WithDispose(func(v any) error { return v.(*Counter).Flush() }))
func (c *Container) Register(name string, scope Scope, chain Chain, opts ...BindingOption) error {
	if err := c.enterOp(); err != nil {
		return err
	}
	defer c.exitOp()
	if name == "" {
		return fmt.Errorf("container: binding name must not be empty")
	}
	if err := chain.validate(); err != nil {
		return err
	}
	var cfg bindingConfig
	for _, o := range opts {
		o(&cfg)
	}
	return c.reg.add(newBinding(name, scope, chain, cfg))
}

// Unregister removes a binding. A cached singleton instance is disposed
// first.
func (c *Container) Unregister(name string) error {
	if err := c.enterOp(); err != nil {
		return err
	}
	defer c.exitOp()
	b, err := c.reg.remove(name)
	if err != nil {
		return err
	}
	err = c.evict(name, b.version)
	c.cellMu.Lock()
	delete(c.cells, name)
	c.cellMu.Unlock()
	return err
}

// ── Replacement ───────────────────────────────────────────────────────────────

// Replace atomically swaps a binding's chain (Immediate policy). A cached
// singleton instance built from the old chain is disposed and evicted now;
// the next Resolve rebuilds from the new chain. Values handed out before the
// call are untouched — the container advances only its own cache. The old
// dispose hook is kept unless WithDispose supplies a new one.
func (c *Container) Replace(name string, chain Chain, opts ...BindingOption) error {
	return c.replace(name, chain, false, opts)
}

// ReplaceDeferred parks a replacement (Deferred policy): the current binding
// and its cached instance keep serving until Refresh cuts over.
func (c *Container) ReplaceDeferred(name string, chain Chain, opts ...BindingOption) error {
	return c.replace(name, chain, true, opts)
}

func (c *Container) replace(name string, chain Chain, deferred bool, opts []BindingOption) error {
	if err := c.enterOp(); err != nil {
		return err
	}
	defer c.exitOp()
	if err := chain.validate(); err != nil {
		return err
	}
	var cfg bindingConfig
	for _, o := range opts {
		o(&cfg)
	}
	old, _, err := c.reg.swap(name, func(old *binding) *binding {
		nb := newBinding(name, old.scope, chain, cfg)
		if !cfg.disposeSet {
			nb.dispose = old.dispose
		}
		return nb
	}, deferred)
	if err != nil {
		return err
	}
	if deferred {
		return nil
	}
	return c.evict(name, old.version)
}

// Refresh cuts a deferred replacement over: the old cached instance is
// disposed and the parked chain becomes current. With no replacement parked,
// Refresh simply evicts the cached instance so the next Resolve rebuilds it.
func (c *Container) Refresh(name string) error {
	if err := c.enterOp(); err != nil {
		return err
	}
	defer c.exitOp()
	old, _, err := c.reg.promote(name)
	if err != nil {
		return err
	}
	return c.evict(name, old.version)
}

// evict clears the cached instance for (name, version) and runs its dispose
// hook. A cache entry from a different binding version is left alone.
func (c *Container) evict(name string, version uuid.UUID) error {
	c.cellMu.Lock()
	cl := c.cells[name]
	c.cellMu.Unlock()
	if cl == nil {
		return nil
	}
	cl.mu.Lock()
	var d *disposable
	if cl.built && cl.version == version {
		cl.built = false
		cl.value = nil
		d = c.life.forget(name, version)
	}
	cl.mu.Unlock()
	return disposeNow(d)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Resolve turns a binding name into a value. Singletons are constructed at
// most once and cached; prototypes are built fresh on every call and never
// tracked.
func (c *Container) Resolve(name string) (any, error) {
	if err := c.enterOp(); err != nil {
		return nil, err
	}
	defer c.exitOp()
	rc := &resolution{c: c, id: c.resolveSeq.Add(1), seen: make(map[string]struct{})}
	return c.resolveName(name, rc)
}

// resolution is the per-call context: the set and path of names currently
// being resolved on this call stack, used to reject circular dependencies.
// It doubles as the executor's resolver for Use(...) args and configure refs.
type resolution struct {
	c    *Container
	id   uint64
	path []string
	seen map[string]struct{}
}

func (rc *resolution) resolveArg(name string) (any, error) {
	return rc.c.resolveName(name, rc)
}

func (rc *resolution) enter(name string) {
	rc.seen[name] = struct{}{}
	rc.path = append(rc.path, name)
}

func (rc *resolution) exit(name string) {
	delete(rc.seen, name)
	rc.path = rc.path[:len(rc.path)-1]
}

func (c *Container) resolveName(name string, rc *resolution) (any, error) {
	if _, cyclic := rc.seen[name]; cyclic {
		return nil, circularErr(rc.path, name)
	}
	b, err := c.reg.lookup(name)
	if err != nil {
		return nil, err
	}
	if b.scope == Prototype {
		return c.build(name, b, rc)
	}
	return c.resolveSingleton(name, rc)
}

// build runs the main chain and then the configure phase. The name stays on
// the resolution path throughout, so configure steps are subject to the same
// cycle detection as construction.
func (c *Container) build(name string, b *binding, rc *resolution) (any, error) {
	rc.enter(name)
	defer rc.exit(name)
	v, err := runChain(name, b.chain, rc)
	if err != nil {
		return nil, err
	}
	if err := runConfigure(name, v, b.configure, rc); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Container) resolveSingleton(name string, rc *resolution) (any, error) {
	cl := c.cell(name)
	for {
		b, err := c.reg.lookup(name)
		if err != nil {
			return nil, err
		}

		cl.mu.Lock()
		if cl.built && cl.version == b.version {
			v := cl.value
			cl.mu.Unlock()
			return v, nil
		}
		if cl.done != nil {
			// Another goroutine is mid-construction; wait for it and
			// re-check the cache. A cycle within this call was already
			// rejected by the seen check, but a cycle split across two
			// goroutines would leave each blocked on the other's cell —
			// awaitBuilder rejects that instead of waiting.
			wait := cl.done
			cl.mu.Unlock()
			if err := c.awaitBuilder(name, wait, rc); err != nil {
				return nil, err
			}
			continue
		}
		done := make(chan struct{})
		cl.done = done
		c.setBuilder(name, rc.id)
		cl.mu.Unlock()

		v, err := c.build(name, b, rc)

		cl.mu.Lock()
		cl.done = nil
		close(done)
		c.clearBuilder(name)
		if err != nil {
			cl.mu.Unlock()
			return nil, err
		}
		if cur, lerr := c.reg.lookup(name); lerr != nil || cur.version != b.version {
			// The binding was replaced (or removed) while we were building.
			// This call completes against the chain it started with, but a
			// stale value is never cached or tracked — the next Resolve
			// rebuilds from the current chain.
			cl.mu.Unlock()
			return v, nil
		}
		cl.built = true
		cl.value = v
		cl.version = b.version
		c.life.track(&disposable{name: name, version: b.version, value: v, hook: b.dispose})
		cl.mu.Unlock()
		return v, nil
	}
}

// cell returns the indirection cell for name, creating it on first use.
func (c *Container) cell(name string) *cell {
	c.cellMu.Lock()
	defer c.cellMu.Unlock()
	cl, ok := c.cells[name]
	if !ok {
		cl = &cell{}
		c.cells[name] = cl
	}
	return cl
}

// ── Cross-goroutine wait-for graph ────────────────────────────────────────────

// setBuilder records that rc's resolution is constructing name's cell. Called
// with the cell's mutex held, before any waiter can observe the done channel.
func (c *Container) setBuilder(name string, id uint64) {
	c.waitMu.Lock()
	c.building[name] = id
	c.waitMu.Unlock()
}

func (c *Container) clearBuilder(name string) {
	c.waitMu.Lock()
	delete(c.building, name)
	c.waitMu.Unlock()
}

// awaitBuilder blocks until the goroutine constructing name finishes, so the
// caller can re-check the cache. If that construction is itself blocked —
// directly or through other builders — on a cell this resolution is building,
// waiting would deadlock both calls, so the cycle is rejected here.
func (c *Container) awaitBuilder(name string, wait <-chan struct{}, rc *resolution) error {
	c.waitMu.Lock()
	if c.wouldDeadlock(name, rc.id) {
		c.waitMu.Unlock()
		return circularErr(rc.path, name)
	}
	c.waiting[rc.id] = name
	c.waitMu.Unlock()

	<-wait

	c.waitMu.Lock()
	delete(c.waiting, rc.id)
	c.waitMu.Unlock()
	return nil
}

// wouldDeadlock walks the wait-for graph from name's builder: builder of a
// cell → cell it is blocked on → that cell's builder → ... and reports
// whether the walk leads back to id. Caller holds waitMu.
func (c *Container) wouldDeadlock(name string, id uint64) bool {
	visited := make(map[uint64]struct{})
	for {
		owner, ok := c.building[name]
		if !ok {
			return false
		}
		if owner == id {
			return true
		}
		if _, seen := visited[owner]; seen {
			return false
		}
		visited[owner] = struct{}{}
		name, ok = c.waiting[owner]
		if !ok {
			return false
		}
	}
}

// ── Bootstrap ─────────────────────────────────────────────────────────────────

// Bootstrap constructs every singleton registered with WithEager. Call it
// once after wiring is complete; the first failing binding aborts.
func (c *Container) Bootstrap() error {
	names := c.reg.eagerNames()
	sort.Strings(names)
	for _, name := range names {
		if _, err := c.Resolve(name); err != nil {
			return err
		}
	}
	return nil
}

// ── Shutdown ──────────────────────────────────────────────────────────────────

// Shutdown waits for in-flight resolutions to drain, then runs every dispose
// hook in reverse construction order. All hooks are attempted even if some
// fail; the failures come back as one *DisposalError. Operations issued after
// Shutdown has begun fail with ErrShuttingDown. Shutdown is idempotent —
// repeat calls return the first call's result.
func (c *Container) Shutdown() error {
	c.downOnce.Do(func() {
		c.gateMu.Lock()
		c.closing = true
		c.gateMu.Unlock()
		c.inflight.Wait()
		c.downErr = c.life.shutdown()
		c.reg.teardown()
	})
	return c.downErr
}

// enterOp admits one public operation through the shutdown gate.
func (c *Container) enterOp() error {
	c.gateMu.Lock()
	defer c.gateMu.Unlock()
	if c.closing {
		return ErrShuttingDown
	}
	c.inflight.Add(1)
	return nil
}

func (c *Container) exitOp() {
	c.inflight.Done()
}

// ── Introspection ─────────────────────────────────────────────────────────────

// Bound reports whether a binding is registered under name.
func (c *Container) Bound(name string) bool {
	return c.reg.has(name)
}

// Resolved reports whether a singleton instance is currently cached for name.
func (c *Container) Resolved(name string) bool {
	c.cellMu.Lock()
	cl := c.cells[name]
	c.cellMu.Unlock()
	if cl == nil {
		return false
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.built
}

// Bindings returns the sorted names of all registered bindings.
func (c *Container) Bindings() []string {
	names := c.reg.names()
	sort.Strings(names)
	return names
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve is a generic helper that resolves and type-asserts in one call.
//
//	proc, err := container.Resolve[*order.Processor](c, "orders")
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.Resolve(name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: %q resolved to %T, want %T", name, v, zero)
	}
	return typed, nil
}

// MustResolve is Resolve but panics on failure — for wiring code where a
// missing binding is a programming error.
func MustResolve[T any](c *Container, name string) T {
	v, err := Resolve[T](c, name)
	if err != nil {
		panic(err)
	}
	return v
}
