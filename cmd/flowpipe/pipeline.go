package main

import (
	"context"
	"time"

	"github.com/kbukum/flowpipe/dag"
)

// delayed yields v after d, or fails early when ctx ends.
func delayed(d time.Duration, v int) dag.Compute {
	return dag.Func0(func(ctx context.Context) (int, error) {
		if d <= 0 {
			return v, nil
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return v, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})
}

func add(_ context.Context, x, y int) (int, error) { return x + y, nil }

func double(_ context.Context, x int) (int, error) { return 2 * x, nil }

func square(_ context.Context, x int) (int, error) { return x * x, nil }

// components returns the computations definitions can refer to by name.
func components(inputDelay time.Duration) *dag.Registry {
	r := dag.NewRegistry()
	r.MustRegister("input1", delayed(inputDelay, 2))
	r.MustRegister("input2", delayed(inputDelay, 3))
	r.MustRegister("add", dag.Func2(add))
	r.MustRegister("double", dag.Func1(double))
	r.MustRegister("square", dag.Func1(square))
	return r
}

// exampleDefinition is the built-in pipeline: two slow inputs, their sum,
// and two values derived from the sum.
func exampleDefinition() *dag.Definition {
	return &dag.Definition{
		Name:        "example",
		Description: "two delayed inputs, their sum, doubled and squared",
		Nodes: []dag.NodeSpec{
			{Name: "input1"},
			{Name: "input2"},
			{Name: "sum", Component: "add", DependsOn: []string{"input1", "input2"}},
			{Name: "double_sum", Component: "double", DependsOn: []string{"sum"}},
			{Name: "square_sum", Component: "square", DependsOn: []string{"sum"}},
		},
	}
}

// buildGraph resolves the definition at path, or the example pipeline when
// path is empty. Includes are looked up next to the definition file.
func buildGraph(path string, registry *dag.Registry) (*dag.Graph, *dag.Definition, error) {
	if path == "" {
		def := exampleDefinition()
		g, err := dag.Resolve(def, registry, nil)
		return g, def, err
	}

	def, err := dag.LoadDefinition(path)
	if err != nil {
		return nil, nil, err
	}
	g, err := dag.Resolve(def, registry, dag.NewFileLoader(dirOf(path)))
	if err != nil {
		return nil, nil, err
	}
	return g, def, nil
}
