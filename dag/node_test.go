package dag

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/flowpipe/errors"
)

func newNode(name string, c Compute, deps ...string) *TaskNode {
	return &TaskNode{name: name, deps: deps, compute: c}
}

func TestTaskNode_Run(t *testing.T) {
	n := newNode("sum", Func2(add), "a", "b")

	if _, ok := n.Result(); ok {
		t.Fatal("expected no result before the first run")
	}
	out, err := n.Run(context.Background(), []any{2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != 5 {
		t.Fatalf("expected 5, got %v", out)
	}
	if res, ok := n.Result(); !ok || res != 5 {
		t.Fatalf("expected stored result 5, got %v (%v)", res, ok)
	}
}

func TestTaskNode_RunInputOrder(t *testing.T) {
	var got []any
	n := newNode("collect", Variadic(func(_ context.Context, in []any) (any, error) {
		got = in
		return len(in), nil
	}), "first", "second")

	if _, err := n.Run(context.Background(), []any{10, 20}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Fatalf("expected [10 20], got %v", got)
	}
}

func TestTaskNode_RunArityMismatch(t *testing.T) {
	n := newNode("sum", Func2(add), "a", "b")

	_, err := n.Run(context.Background(), []any{1})
	if !IsInvalidInput(err) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if _, ok := n.Result(); ok {
		t.Fatal("expected no result after a failed run")
	}
}

func TestTaskNode_RunTypeMismatch(t *testing.T) {
	n := newNode("sum", Func2(add), "a", "b")

	_, err := n.Run(context.Background(), []any{1, "two"})
	if !IsInvalidInput(err) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["field"] != "b" {
		t.Errorf("expected field 'b', got %v", appErr.Details["field"])
	}
	if appErr.Details["expected"] != "int" || appErr.Details["actual"] != "string" {
		t.Errorf("expected int/string mismatch, got %v", appErr.Details)
	}
	if appErr.Details["node"] != "sum" {
		t.Errorf("expected node 'sum', got %v", appErr.Details["node"])
	}
}

func TestTaskNode_RunNilInput(t *testing.T) {
	type payload struct{ v int }
	n := newNode("check", Func1(func(_ context.Context, p *payload) (bool, error) {
		return p == nil, nil
	}), "src")

	out, err := n.Run(context.Background(), []any{nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != true {
		t.Fatalf("expected nil pointer input, got %v", out)
	}

	ints := newNode("ints", Func1(identity), "src")
	if _, err := ints.Run(context.Background(), []any{nil}); !IsInvalidInput(err) {
		t.Fatalf("expected INVALID_INPUT for nil int, got %v", err)
	}
}

func TestTaskNode_RunErrorPassesThrough(t *testing.T) {
	boom := stderrors.New("boom")
	n := newNode("fail", Func0(func(context.Context) (int, error) { return 0, boom }))

	_, err := n.Run(context.Background(), nil)
	if err != boom {
		t.Fatalf("expected the computation's own error, got %v", err)
	}
}

func TestTaskNode_RunPanic(t *testing.T) {
	n := newNode("explode", Func0(func(context.Context) (int, error) { panic("kaboom") }))

	out, err := n.Run(context.Background(), nil)
	if out != nil {
		t.Fatalf("expected nil output, got %v", out)
	}
	if !errors.HasCode(err, errors.ErrCodeInternal) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if !strings.Contains(appErr.Cause.Error(), "kaboom") {
		t.Errorf("expected cause to mention the panic value, got %v", appErr.Cause)
	}
	if _, ok := appErr.Details["stack"]; !ok {
		t.Error("expected stack detail")
	}
}

func TestTaskNode_DependenciesIsCopy(t *testing.T) {
	n := newNode("sum", Func2(add), "a", "b")
	deps := n.Dependencies()
	deps[0] = "changed"

	if n.Dependencies()[0] != "a" {
		t.Fatal("expected Dependencies to return a copy")
	}
	if n.Arity() != 2 {
		t.Fatalf("expected arity 2, got %d", n.Arity())
	}
}

func TestCompute_Arity(t *testing.T) {
	tests := []struct {
		name    string
		compute Compute
		want    int
	}{
		{"value", Value("x"), 0},
		{"func1", Func1(identity), 1},
		{"func2", Func2(add), 2},
		{"func3", Func3(func(_ context.Context, a, b, c int) (int, error) { return a + b + c, nil }), 3},
		{"variadic", Variadic(func(context.Context, []any) (any, error) { return nil, nil }), -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.compute.Arity(); got != tc.want {
				t.Fatalf("expected arity %d, got %d", tc.want, got)
			}
			if tc.compute.IsZero() {
				t.Fatal("expected initialized compute")
			}
		})
	}
	if !(Compute{}).IsZero() {
		t.Fatal("expected zero Compute to report IsZero")
	}
}
