package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/flowpipe/dag"
)

// Recorder is a variadic computation that records every call.
// It returns a preset output or error, or delegates to a function.
type Recorder struct {
	output any
	err    error
	fn     func(ctx context.Context, inputs []any) (any, error)

	mu     sync.Mutex
	inputs [][]any
}

// Returning creates a recorder that always yields v.
func Returning(v any) *Recorder {
	return &Recorder{output: v}
}

// Failing creates a recorder that always fails with err.
func Failing(err error) *Recorder {
	return &Recorder{err: err}
}

// NewRecorder creates a recorder backed by fn.
func NewRecorder(fn func(ctx context.Context, inputs []any) (any, error)) *Recorder {
	return &Recorder{fn: fn}
}

// Compute returns the recorder as a variadic computation.
func (r *Recorder) Compute() dag.Compute {
	return dag.Variadic(r.call)
}

func (r *Recorder) call(ctx context.Context, inputs []any) (any, error) {
	r.mu.Lock()
	r.inputs = append(r.inputs, append([]any(nil), inputs...))
	r.mu.Unlock()

	if r.fn != nil {
		return r.fn(ctx, inputs)
	}
	return r.output, r.err
}

// Calls returns how many times the computation ran.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inputs)
}

// Inputs returns the inputs of every call, oldest first.
func (r *Recorder) Inputs() [][]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]any, len(r.inputs))
	copy(out, r.inputs)
	return out
}

// Reset clears the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = nil
}

// Tracker measures how many computations run at the same time.
type Tracker struct {
	running atomic.Int32
	max     atomic.Int32
}

// Wrap returns a computation that sleeps for d while counted as running and
// then yields v.
func (t *Tracker) Wrap(d time.Duration, v any) dag.Compute {
	return dag.Variadic(func(ctx context.Context, _ []any) (any, error) {
		cur := t.running.Add(1)
		defer t.running.Add(-1)
		for {
			prev := t.max.Load()
			if cur <= prev || t.max.CompareAndSwap(prev, cur) {
				break
			}
		}
		select {
		case <-time.After(d):
			return v, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

// Max returns the highest number of simultaneously running computations.
func (t *Tracker) Max() int { return int(t.max.Load()) }

// GraphBuilder constructs graphs in tests, failing the test on the first
// registration error.
type GraphBuilder struct {
	t     testing.TB
	graph *dag.Graph
}

// NewGraphBuilder creates a builder bound to t.
func NewGraphBuilder(t testing.TB) *GraphBuilder {
	return &GraphBuilder{t: t, graph: dag.NewGraph()}
}

// Add registers a node.
func (b *GraphBuilder) Add(name string, c dag.Compute, deps ...string) *GraphBuilder {
	b.t.Helper()
	if err := b.graph.AddNode(name, c, deps...); err != nil {
		b.t.Fatalf("add node %q: %v", name, err)
	}
	return b
}

// Build returns the constructed graph.
func (b *GraphBuilder) Build() *dag.Graph {
	return b.graph
}
