package container

import (
	"errors"
	"fmt"
	"strings"
)

// ── Sentinel kinds ────────────────────────────────────────────────────────────

var (
	// ErrDuplicateBinding is returned by Register when the name is taken.
	ErrDuplicateBinding = errors.New("container: binding already registered")

	// ErrUnknownBinding is returned when an operation references a name
	// that was never registered (or has been unregistered).
	ErrUnknownBinding = errors.New("container: no binding registered")

	// ErrCircularDependency is returned when a binding's chain requires
	// itself, directly or transitively, within one resolution call.
	ErrCircularDependency = errors.New("container: circular dependency")

	// ErrShuttingDown is returned for any resolution attempted after
	// Shutdown has begun.
	ErrShuttingDown = errors.New("container: shutting down")
)

// duplicateErr / unknownErr attach the binding name while keeping the
// sentinel reachable through errors.Is.
func duplicateErr(name string) error {
	return fmt.Errorf("%w: %q", ErrDuplicateBinding, name)
}

func unknownErr(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownBinding, name)
}

// circularErr reports the resolution path that closed the cycle,
// e.g. "a -> b -> a".
func circularErr(path []string, name string) error {
	return fmt.Errorf("%w: %s -> %s", ErrCircularDependency, strings.Join(path, " -> "), name)
}

// isResolutionErr reports whether err is one of the kinds raised by the
// resolution machinery itself, as opposed to a failure inside a user step.
func isResolutionErr(err error) bool {
	return errors.Is(err, ErrCircularDependency) ||
		errors.Is(err, ErrUnknownBinding) ||
		errors.Is(err, ErrShuttingDown)
}

// ── Step failures ─────────────────────────────────────────────────────────────

// ConstructionError reports a failed Construct or Invoke step. The chain is
// aborted at the failing step; no partial value is cached or returned.
type ConstructionError struct {
	Binding string // binding whose chain failed
	Step    int    // zero-based index of the failing step
	Err     error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("container: building %q: step %d: %v", e.Binding, e.Step, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// ConfigurationError reports a failed configure-phase step. The freshly built
// instance is discarded and never cached; previously cached singletons are
// unaffected.
type ConfigurationError struct {
	Binding string // binding being configured
	Ref     string // binding referenced by the failing configure step
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("container: configuring %q (ref %q): %v", e.Binding, e.Ref, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ── Disposal ──────────────────────────────────────────────────────────────────

// DisposalError aggregates every dispose hook that failed during Shutdown.
// All hooks are always attempted; this error reports the ones that raised.
type DisposalError struct {
	Failures []error
}

func (e *DisposalError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("container: %d dispose hook(s) failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is / errors.As.
func (e *DisposalError) Unwrap() []error { return e.Failures }

// disposeErr wraps one failed hook with its binding name.
func disposeErr(name string, err error) error {
	return fmt.Errorf("dispose %q: %w", name, err)
}
