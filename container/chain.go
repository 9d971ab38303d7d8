package container

import (
	"fmt"
	"reflect"
)

// ── Scope ─────────────────────────────────────────────────────────────────────

// Scope is the lifetime of a binding's value.
type Scope int

const (
	// Singleton values are built once, cached by the container, and
	// disposed at Shutdown.
	Singleton Scope = iota

	// Prototype values are built fresh on every Resolve and never
	// tracked by the container — the caller owns their lifecycle.
	Prototype
)

func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case Prototype:
		return "prototype"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ── Args ──────────────────────────────────────────────────────────────────────

// Arg is one argument to a Construct or Invoke step: either a literal value
// or a reference to another binding, resolved at execution time.
type Arg struct {
	ref   string
	value any
	isRef bool
}

// Use references another binding by name. The referenced binding is resolved
// (recursively) when the step runs.
//
//	container.Construct(NewService, container.Use("counter"))
func Use(name string) Arg { return Arg{ref: name, isRef: true} }

// Val passes a literal value through unchanged.
//
//	container.Construct(NewLogger, container.Val("app.log"))
func Val(v any) Arg { return Arg{value: v} }

// ── Steps ─────────────────────────────────────────────────────────────────────

// Step is one element of a Chain. Steps are created with Construct and
// Invoke and are immutable.
type Step interface {
	step()
}

// constructStep builds a new value by calling fn with the resolved args.
type constructStep struct {
	fn    reflect.Value
	args  []Arg
	valid error // set when the factory func failed registration-time checks
}

func (*constructStep) step() {}

// invokeStep calls a named method on the chain's current value. Whether the
// call replaces the current value depends on the method's results: a method
// with no non-error results leaves the current value in place (fluent
// chaining), a value-returning method becomes the new current value.
type invokeStep struct {
	method string
	args   []Arg
}

func (*invokeStep) step() {}

// Construct creates a step that builds a new value by calling fn with args.
// fn must be a non-variadic func taking exactly len(args) parameters and
// returning either T or (T, error). Invalid factories are reported when the
// chain is registered, not when the step runs.
//
//	container.Construct(order.NewProcessor, container.Use("gateway"), container.Use("mailer"))
func Construct(fn any, args ...Arg) Step {
	s := &constructStep{args: args}
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		s.valid = fmt.Errorf("construct: fn must be a func, was %T", fn)
		return s
	}
	t := v.Type()
	switch {
	case t.IsVariadic():
		s.valid = fmt.Errorf("construct: fn must not be variadic: %v", t)
	case t.NumIn() != len(args):
		s.valid = fmt.Errorf("construct: fn takes %d parameter(s), %d arg(s) given: %v", t.NumIn(), len(args), t)
	default:
		s.valid = checkResults(t)
	}
	s.fn = v
	return s
}

// Invoke creates a step that calls the named exported method on the chain's
// current value. The method must take exactly len(args) parameters; its
// results are classified at call time (void, value, with or without a
// trailing error).
//
//	container.Invoke("SetTimeout", container.Val(30*time.Second))
func Invoke(method string, args ...Arg) Step {
	return &invokeStep{method: method, args: args}
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// checkResults enforces the T / (T, error) factory shape.
func checkResults(t reflect.Type) error {
	switch t.NumOut() {
	case 1:
		return nil
	case 2:
		if !t.Out(1).Implements(errType) {
			return fmt.Errorf("construct: fn returning two results must return (T, error): %v", t)
		}
		return nil
	default:
		return fmt.Errorf("construct: fn must return T or (T, error): %v", t)
	}
}

// ── Chain ─────────────────────────────────────────────────────────────────────

// Chain is an immutable ordered sequence of steps. Steps run strictly left to
// right; the final current value is the binding's resolved output.
type Chain struct {
	steps []Step
}

// NewChain builds a Chain from steps. The chain is validated at Register /
// Replace time: it must be non-empty and must open with a Construct step.
func NewChain(steps ...Step) Chain {
	copied := make([]Step, len(steps))
	copy(copied, steps)
	return Chain{steps: copied}
}

// Len returns the number of steps.
func (ch Chain) Len() int { return len(ch.steps) }

// validate rejects chains that can never execute.
func (ch Chain) validate() error {
	if len(ch.steps) == 0 {
		return fmt.Errorf("container: chain must have at least one step")
	}
	first, ok := ch.steps[0].(*constructStep)
	if !ok {
		return fmt.Errorf("container: chain must open with a Construct step")
	}
	if first.valid != nil {
		return first.valid
	}
	for _, s := range ch.steps[1:] {
		if cs, ok := s.(*constructStep); ok && cs.valid != nil {
			return cs.valid
		}
	}
	return nil
}

// ── Configure steps ───────────────────────────────────────────────────────────

// ConfigureStep is one element of a binding's post-construction configure
// phase. Configure steps run after the main chain completes and before the
// value is cached; a failing step discards the instance.
type ConfigureStep struct {
	ref string
	fn  func(instance, dep any) error
}

// ConfigureRef creates a configure step that resolves another binding and
// hands both the freshly built instance and the referenced value to fn for
// side-effecting setup.
//
//	container.ConfigureRef("registry", func(svc, reg any) error {
//	    return reg.(*Registry).Add(svc.(*Service))
//	})
func ConfigureRef(name string, fn func(instance, dep any) error) ConfigureStep {
	return ConfigureStep{ref: name, fn: fn}
}
