package dag

import (
	"context"
	"fmt"
	"reflect"
)

// variadic marks a computation that accepts any number of inputs.
const variadic = -1

// thunk is a computation with its inputs already bound.
type thunk func(ctx context.Context) (any, error)

// Compute is the unit of work wrapped by a TaskNode. It receives the results
// of the node's dependencies as positional inputs and produces one value.
//
// Build one with Func0..Func3 for typed, fixed-arity functions, Variadic for
// functions over []any, or Value for a constant.
type Compute struct {
	arity int
	bind  func(inputs []any) (thunk, error)
}

// Arity returns the number of inputs the computation expects, or -1 when it
// accepts any number.
func (c Compute) Arity() int { return c.arity }

// IsZero reports whether c was never initialized.
func (c Compute) IsZero() bool { return c.bind == nil }

// Value returns a computation without inputs that always yields v.
func Value[O any](v O) Compute {
	return Func0(func(context.Context) (O, error) { return v, nil })
}

// Func0 adapts a function without inputs.
func Func0[O any](fn func(ctx context.Context) (O, error)) Compute {
	return Compute{arity: 0, bind: func([]any) (thunk, error) {
		return func(ctx context.Context) (any, error) { return fn(ctx) }, nil
	}}
}

// Func1 adapts a function of one typed input.
func Func1[A, O any](fn func(ctx context.Context, a A) (O, error)) Compute {
	return Compute{arity: 1, bind: func(in []any) (thunk, error) {
		a, err := input[A](in, 0)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) { return fn(ctx, a) }, nil
	}}
}

// Func2 adapts a function of two typed inputs.
func Func2[A, B, O any](fn func(ctx context.Context, a A, b B) (O, error)) Compute {
	return Compute{arity: 2, bind: func(in []any) (thunk, error) {
		a, err := input[A](in, 0)
		if err != nil {
			return nil, err
		}
		b, err := input[B](in, 1)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) { return fn(ctx, a, b) }, nil
	}}
}

// Func3 adapts a function of three typed inputs.
func Func3[A, B, C, O any](fn func(ctx context.Context, a A, b B, c C) (O, error)) Compute {
	return Compute{arity: 3, bind: func(in []any) (thunk, error) {
		a, err := input[A](in, 0)
		if err != nil {
			return nil, err
		}
		b, err := input[B](in, 1)
		if err != nil {
			return nil, err
		}
		c, err := input[C](in, 2)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) { return fn(ctx, a, b, c) }, nil
	}}
}

// Variadic adapts a function over the raw input list. The slice passed to fn
// is a copy owned by the call.
func Variadic(fn func(ctx context.Context, inputs []any) (any, error)) Compute {
	return Compute{arity: variadic, bind: func(in []any) (thunk, error) {
		args := append([]any(nil), in...)
		return func(ctx context.Context) (any, error) { return fn(ctx, args) }, nil
	}}
}

// inputMismatch describes an input whose dynamic type does not fit the
// computation's parameter.
type inputMismatch struct {
	index    int
	expected string
	actual   string
}

func (e *inputMismatch) Error() string {
	return fmt.Sprintf("input %d: expected %s, got %s", e.index, e.expected, e.actual)
}

func input[T any](in []any, i int) (T, error) {
	var zero T
	v := in[i]
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	t := reflect.TypeFor[T]()
	if v == nil && nillable(t) {
		return zero, nil
	}
	actual := "nil"
	if v != nil {
		actual = fmt.Sprintf("%T", v)
	}
	return zero, &inputMismatch{index: i, expected: t.String(), actual: actual}
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
