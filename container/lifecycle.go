package container

import (
	"sync"

	"github.com/google/uuid"
)

// ── Dispose tracking ──────────────────────────────────────────────────────────

// disposable is one cached singleton awaiting disposal.
type disposable struct {
	name    string
	version uuid.UUID
	value   any
	hook    func(any) error
}

// lifecycle keeps cached singletons in construction order so Shutdown can
// dispose them in strict reverse order: an instance being disposed may still
// safely use singletons constructed before it.
type lifecycle struct {
	mu    sync.Mutex
	stack []*disposable
}

func newLifecycle() *lifecycle {
	return &lifecycle{}
}

// track appends a freshly cached singleton. Called only after the configure
// phase has succeeded — an instance that failed configuration is never
// tracked.
func (l *lifecycle) track(d *disposable) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stack = append(l.stack, d)
}

// forget removes and returns the entry for (name, version), used when a
// replace or unregister disposes an instance ahead of Shutdown. Returns nil
// if the instance was never tracked.
func (l *lifecycle) forget(name string, version uuid.UUID) *disposable {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, d := range l.stack {
		if d.name == name && d.version == version {
			l.stack = append(l.stack[:i], l.stack[i+1:]...)
			return d
		}
	}
	return nil
}

// shutdown runs every hook in reverse construction order. Individual
// failures never stop the sweep; they are collected into one DisposalError.
func (l *lifecycle) shutdown() error {
	l.mu.Lock()
	stack := l.stack
	l.stack = nil
	l.mu.Unlock()

	var failures []error
	for i := len(stack) - 1; i >= 0; i-- {
		d := stack[i]
		if d.hook == nil {
			continue
		}
		if err := d.hook(d.value); err != nil {
			failures = append(failures, disposeErr(d.name, err))
		}
	}
	if len(failures) > 0 {
		return &DisposalError{Failures: failures}
	}
	return nil
}

// disposeNow runs a single instance's hook outside a full shutdown (replace,
// unregister, refresh paths).
func disposeNow(d *disposable) error {
	if d == nil || d.hook == nil {
		return nil
	}
	if err := d.hook(d.value); err != nil {
		return &DisposalError{Failures: []error{disposeErr(d.name, err)}}
	}
	return nil
}

// ── Configure phase ───────────────────────────────────────────────────────────

// runConfigure executes a binding's configure steps against the freshly
// built instance. Steps resolve their referenced bindings through res, which
// still carries the current resolution path, so mutual configuration loops
// are rejected like any other cycle. The caller caches the instance only if
// this returns nil.
func runConfigure(name string, instance any, steps []ConfigureStep, res resolver) error {
	for _, s := range steps {
		dep, err := res.resolveArg(s.ref)
		if err != nil {
			return &ConfigurationError{Binding: name, Ref: s.ref, Err: err}
		}
		if err := s.fn(instance, dep); err != nil {
			return &ConfigurationError{Binding: name, Ref: s.ref, Err: err}
		}
	}
	return nil
}
