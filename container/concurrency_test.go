package container_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/km-arc/go-chaindi/container"
)

// ── At-most-once construction ────────────────────────────────────────────────

func TestResolve_ConcurrentSingletonBuildsOnce(t *testing.T) {
	c := container.New()
	var builds int32
	chain := container.NewChain(container.Construct(func() *Counter {
		atomic.AddInt32(&builds, 1)
		time.Sleep(5 * time.Millisecond) // widen the race window
		return NewCounter()
	}))
	if err := c.Register("counter", container.Singleton, chain); err != nil {
		t.Fatal(err)
	}

	const n = 32
	results := make([]*Counter, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Resolve("counter")
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			results[i] = v.(*Counter)
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&builds); got != 1 {
		t.Errorf("chain ran %d times, want exactly 1", got)
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatal("all callers must receive the identical instance")
		}
	}
}

func TestResolve_ConcurrentDependencyBuildsOnce(t *testing.T) {
	c := container.New()
	var counterBuilds int32
	counterChain := container.NewChain(container.Construct(func() *Counter {
		atomic.AddInt32(&counterBuilds, 1)
		return NewCounter()
	}))
	if err := c.Register("counter", container.Singleton, counterChain); err != nil {
		t.Fatal(err)
	}
	svcChain := container.NewChain(container.Construct(NewService, container.Use("counter")))
	if err := c.Register("service", container.Singleton, svcChain); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	services := make([]*Service, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Resolve("service")
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			services[i] = v.(*Service)
		}(i)
	}
	wg.Wait()

	if services[0] != services[1] {
		t.Error("both callers must receive the identical Service")
	}
	if got := atomic.LoadInt32(&counterBuilds); got != 1 {
		t.Errorf("Counter constructed %d times, want exactly 1", got)
	}
}

// Node wires to a peer after construction, so a dependency is resolved
// mid-build from an Invoke step.
type Node struct{ peer any }

func NewNode() *Node { return &Node{} }

func (n *Node) SetPeer(p any) { n.peer = p }

func TestResolve_CycleSplitAcrossGoroutinesRejected(t *testing.T) {
	c := container.New()
	ready := make(chan struct{}, 8)
	release := make(chan struct{})
	linked := func(peer string) container.Chain {
		return container.NewChain(
			container.Construct(func() *Node {
				ready <- struct{}{}
				<-release
				return NewNode()
			}),
			container.Invoke("SetPeer", container.Use(peer)),
		)
	}
	if err := c.Register("a", container.Singleton, linked("b")); err != nil {
		t.Fatal(err)
	}
	if err := c.Register("b", container.Singleton, linked("a")); err != nil {
		t.Fatal(err)
	}

	errs := make(chan error, 2)
	go func() { _, err := c.Resolve("a"); errs <- err }()
	go func() { _, err := c.Resolve("b"); errs <- err }()

	// Both constructions are in flight before either resolves its peer.
	<-ready
	<-ready
	close(release)

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			if !errors.Is(err, container.ErrCircularDependency) {
				t.Errorf("got %v, want ErrCircularDependency", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Resolve blocked: the cross-goroutine cycle was not rejected")
		}
	}
	if c.Resolved("a") || c.Resolved("b") {
		t.Error("no side of the cycle may be cached")
	}
}

// ── Prototype independence ───────────────────────────────────────────────────

func TestResolve_ConcurrentPrototypesAreDistinct(t *testing.T) {
	c := container.New()
	if err := c.Register("counter", container.Prototype,
		container.NewChain(container.Construct(NewCounter))); err != nil {
		t.Fatal(err)
	}

	const n = 16
	var mu sync.Mutex
	seen := make(map[*Counter]bool)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Resolve("counter")
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			mu.Lock()
			seen[v.(*Counter)] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("got %d distinct prototypes, want %d", len(seen), n)
	}
}

// ── Replace vs Resolve ───────────────────────────────────────────────────────

func TestReplace_ConcurrentWithResolve(t *testing.T) {
	c := container.New()
	if err := c.Register("widget", container.Singleton, labelled("old")); err != nil {
		t.Fatal(err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			v, err := c.Resolve("widget")
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			// Every resolved value is from exactly one chain — never a mix.
			if l := v.(*Widget).Label(); l != "old" && l != "new" {
				t.Errorf("resolved a half-built widget: label %q", l)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			label := "old"
			if i%2 == 0 {
				label = "new"
			}
			if err := c.Replace("widget", labelled(label)); err != nil {
				t.Errorf("Replace: %v", err)
				return
			}
		}
		close(stop)
	}()
	wg.Wait()
}

// ── Shutdown gate ────────────────────────────────────────────────────────────

func TestShutdown_WaitsForInFlightResolve(t *testing.T) {
	c := container.New()
	entered := make(chan struct{})
	release := make(chan struct{})
	disposed := make(chan struct{}, 1)
	chain := container.NewChain(container.Construct(func() *Counter {
		close(entered)
		<-release
		return NewCounter()
	}))
	err := c.Register("slow", container.Singleton, chain,
		container.WithDispose(func(any) error { disposed <- struct{}{}; return nil }))
	if err != nil {
		t.Fatal(err)
	}

	resolveDone := make(chan error, 1)
	go func() {
		_, err := c.Resolve("slow")
		resolveDone <- err
	}()
	<-entered

	shutdownDone := make(chan error, 1)
	go func() { shutdownDone <- c.Shutdown() }()

	// Shutdown must not finish while the resolve is still in flight.
	select {
	case <-shutdownDone:
		t.Fatal("Shutdown completed while a resolve was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	if err := <-resolveDone; err != nil {
		t.Fatalf("in-flight Resolve: %v", err)
	}
	if err := <-shutdownDone; err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case <-disposed:
	default:
		t.Error("the instance built by the in-flight resolve should be disposed")
	}
}

func TestShutdown_ConcurrentResolvesFailFast(t *testing.T) {
	c := container.New()
	if err := c.Register("counter", container.Singleton, counterChain()); err != nil {
		t.Fatal(err)
	}
	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Resolve("counter"); !errors.Is(err, container.ErrShuttingDown) {
				t.Errorf("got %v, want ErrShuttingDown", err)
			}
		}()
	}
	wg.Wait()
}
