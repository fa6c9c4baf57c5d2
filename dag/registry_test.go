package dag

import (
	"slices"
	"testing"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("sum", Func2(add))
	if err := r.Register("double", Func1(identity)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Register("sum", Value(1)); !IsDuplicateName(err) {
		t.Fatalf("expected ALREADY_EXISTS, got %v", err)
	}
	if err := r.Register("", Value(1)); !IsInvalidInput(err) {
		t.Fatalf("expected INVALID_INPUT for empty name, got %v", err)
	}
	if err := r.Register("zero", Compute{}); !IsInvalidInput(err) {
		t.Fatalf("expected INVALID_INPUT for zero compute, got %v", err)
	}

	c, ok := r.Get("sum")
	if !ok || c.Arity() != 2 {
		t.Fatalf("expected sum with arity 2, got %v, %v", c.Arity(), ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("expected missing component")
	}
	if got := r.List(); !slices.Equal(got, []string{"double", "sum"}) {
		t.Fatalf("expected [double sum], got %v", got)
	}
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("a", Value(1))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r.MustRegister("a", Value(2))
}
