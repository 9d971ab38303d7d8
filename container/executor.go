package container

import (
	"fmt"
	"reflect"
)

// resolver supplies values for binding references during one resolution call.
// The container's resolution context implements it, carrying the cycle
// detection state through nested resolutions.
type resolver interface {
	resolveArg(name string) (any, error)
}

// runChain executes the chain's steps strictly left to right and returns the
// final current value. Any failing step aborts the whole chain; no partial
// value escapes. Execution is a pure function of (chain, resolver) — no
// caching, no scope logic.
func runChain(name string, ch Chain, res resolver) (any, error) {
	var current any
	for i, s := range ch.steps {
		switch st := s.(type) {
		case *constructStep:
			out, err := callFactory(st, res)
			if err != nil {
				return nil, stepErr(name, i, err)
			}
			current = out
		case *invokeStep:
			out, err := callMethod(current, st, res)
			if err != nil {
				return nil, stepErr(name, i, err)
			}
			current = out
		default:
			return nil, stepErr(name, i, fmt.Errorf("unsupported step type %T", s))
		}
	}
	return current, nil
}

// stepErr wraps a step failure, but lets resolution errors from nested
// bindings (circular, unknown, a dependency's own construction failure)
// propagate untouched so their kind stays checkable at the top.
func stepErr(name string, step int, err error) error {
	switch err.(type) {
	case *ConstructionError, *ConfigurationError:
		return err
	}
	if isResolutionErr(err) {
		return err
	}
	return &ConstructionError{Binding: name, Step: step, Err: err}
}

// ── Construct ─────────────────────────────────────────────────────────────────

func callFactory(st *constructStep, res resolver) (any, error) {
	if st.valid != nil {
		return nil, st.valid
	}
	t := st.fn.Type()
	in, err := callArgs(st.args, t, res)
	if err != nil {
		return nil, err
	}
	out := st.fn.Call(in)
	if len(out) == 2 {
		if e, _ := out[1].Interface().(error); e != nil {
			return nil, e
		}
	}
	return out[0].Interface(), nil
}

// ── Invoke ────────────────────────────────────────────────────────────────────

// callMethod dispatches method on current and applies the void-chaining law:
// a method with no non-error results leaves current as the chain value, a
// value-returning method replaces it.
func callMethod(current any, st *invokeStep, res resolver) (any, error) {
	if current == nil {
		return nil, fmt.Errorf("invoke %q: no current value (chain must construct first)", st.method)
	}
	m := reflect.ValueOf(current).MethodByName(st.method)
	if !m.IsValid() {
		return nil, fmt.Errorf("invoke %q: no such method on %T", st.method, current)
	}
	t := m.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("invoke %q: variadic methods are not supported", st.method)
	}
	if t.NumIn() != len(st.args) {
		return nil, fmt.Errorf("invoke %q: method takes %d parameter(s), %d arg(s) given", st.method, t.NumIn(), len(st.args))
	}
	in, err := callArgs(st.args, t, res)
	if err != nil {
		return nil, err
	}

	out := m.Call(in)
	switch t.NumOut() {
	case 0:
		// Void — stay on the receiver.
		return current, nil
	case 1:
		if t.Out(0).Implements(errType) {
			if e, _ := out[0].Interface().(error); e != nil {
				return nil, e
			}
			return current, nil
		}
		return out[0].Interface(), nil
	case 2:
		if !t.Out(1).Implements(errType) {
			return nil, fmt.Errorf("invoke %q: two results must be (T, error)", st.method)
		}
		if e, _ := out[1].Interface().(error); e != nil {
			return nil, e
		}
		return out[0].Interface(), nil
	default:
		return nil, fmt.Errorf("invoke %q: too many results (%d)", st.method, t.NumOut())
	}
}

// ── Argument marshalling ──────────────────────────────────────────────────────

// callArgs resolves each Arg (literal pass-through, binding refs via res) and
// converts it to the callee's parameter type.
func callArgs(args []Arg, fn reflect.Type, res resolver) ([]reflect.Value, error) {
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		v := a.value
		if a.isRef {
			resolved, err := res.resolveArg(a.ref)
			if err != nil {
				return nil, err
			}
			v = resolved
		}
		pt := fn.In(i)
		rv, err := coerce(v, pt)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		in[i] = rv
	}
	return in, nil
}

// coerce fits v into parameter type pt, allowing assignable and convertible
// values and typed nils for nilable parameters.
func coerce(v any, pt reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch pt.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not valid for parameter type %v", pt)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(pt) {
		return rv, nil
	}
	if convertible(rv.Type(), pt) {
		return rv.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("value of type %T is not assignable to %v", v, pt)
}

// convertible permits the conversions a chain arg plausibly means — numeric
// widening and named-type conversions — but not Go's integer-to-string
// conversion, which would turn Val(65) into "A" instead of failing the step.
func convertible(src, dst reflect.Type) bool {
	if !src.ConvertibleTo(dst) {
		return false
	}
	if dst.Kind() == reflect.String && isIntegerKind(src.Kind()) {
		return false
	}
	return true
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
