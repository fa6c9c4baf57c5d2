package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kbukum/flowpipe/dag"
)

func TestRecorder_Returning(t *testing.T) {
	r := Returning("hello")
	g := NewGraphBuilder(t).Add("greet", r.Compute()).Build()

	results, err := dag.NewScheduler(g).Run(context.Background(), dag.Sequential)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results["greet"] != "hello" {
		t.Fatalf("expected 'hello', got %v", results["greet"])
	}
	if r.Calls() != 1 {
		t.Fatalf("expected 1 call, got %d", r.Calls())
	}
}

func TestRecorder_InputsAndReset(t *testing.T) {
	sink := NewRecorder(func(_ context.Context, in []any) (any, error) { return len(in), nil })
	g := NewGraphBuilder(t).
		Add("a", dag.Value(1)).
		Add("b", dag.Value("two")).
		Add("sink", sink.Compute(), "b", "a").
		Build()

	for range 2 {
		if _, err := dag.NewScheduler(g).Run(context.Background(), dag.Concurrent); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	inputs := sink.Inputs()
	if len(inputs) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(inputs))
	}
	if inputs[0][0] != "two" || inputs[0][1] != 1 {
		t.Fatalf("expected inputs [two 1], got %v", inputs[0])
	}

	sink.Reset()
	if sink.Calls() != 0 {
		t.Fatalf("expected 0 calls after reset, got %d", sink.Calls())
	}
}

func TestRecorder_Failing(t *testing.T) {
	boom := errors.New("boom")
	g := NewGraphBuilder(t).Add("x", Failing(boom).Compute()).Build()

	_, err := dag.NewScheduler(g).Run(context.Background(), dag.Sequential)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestTracker(t *testing.T) {
	var tr Tracker
	g := NewGraphBuilder(t).
		Add("a", tr.Wrap(30*time.Millisecond, 1)).
		Add("b", tr.Wrap(30*time.Millisecond, 2)).
		Build()

	if _, err := dag.NewScheduler(g).Run(context.Background(), dag.Concurrent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Max() != 2 {
		t.Fatalf("expected 2 concurrent computations, got %d", tr.Max())
	}
}
