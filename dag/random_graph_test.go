package dag_test

import (
	"context"
	"fmt"
	"maps"
	"math/rand"
	"testing"
	"time"

	"github.com/kbukum/flowpipe/dag"
)

// randomGraph registers size nodes in shuffled order. Node i depends on up
// to maxDeps distinct nodes with a lower index and yields i plus the sum of
// its inputs, after a short node-specific delay.
func randomGraph(t *testing.T, seed int64, size, maxDeps int) *dag.Graph {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	deps := make([][]string, size)
	delays := make([]time.Duration, size)
	for i := 1; i < size; i++ {
		picked := rng.Perm(i)[:rng.Intn(min(i, maxDeps)+1)]
		for _, d := range picked {
			deps[i] = append(deps[i], nodeName(d))
		}
	}
	for i := range delays {
		delays[i] = time.Duration(rng.Intn(300)) * time.Microsecond
	}

	g := dag.NewGraph()
	for _, i := range rng.Perm(size) {
		base, delay := i, delays[i]
		sum := dag.Variadic(func(ctx context.Context, inputs []any) (any, error) {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			total := base
			for _, in := range inputs {
				total = (total + in.(int)) % 1_000_003
			}
			return total, nil
		})
		if err := g.AddNode(nodeName(i), sum, deps[i]...); err != nil {
			t.Fatalf("AddNode(%s): %v", nodeName(i), err)
		}
	}
	return g
}

func nodeName(i int) string { return fmt.Sprintf("n%02d", i) }

func TestRandomGraphs(t *testing.T) {
	tests := []struct {
		name    string
		seed    int64
		size    int
		maxDeps int
	}{
		{"chain-heavy", 1, 50, 1},
		{"wide", 2, 50, 2},
		{"dense", 3, 50, 6},
		{"deep and dense", 4, 40, 12},
		{"single", 5, 1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := randomGraph(t, tc.seed, tc.size, tc.maxDeps)

			order, err := g.TopologicalOrder()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(order) != tc.size {
				t.Fatalf("expected %d nodes in order, got %d", tc.size, len(order))
			}
			pos := make(map[string]int, len(order))
			for i, n := range order {
				pos[n.Name()] = i
			}
			for _, e := range g.Edges() {
				if pos[e.From] >= pos[e.To] {
					t.Fatalf("expected %s before %s, got positions %d and %d", e.From, e.To, pos[e.From], pos[e.To])
				}
			}

			want, err := dag.NewScheduler(g).Run(context.Background(), dag.Sequential)
			if err != nil {
				t.Fatalf("sequential run: %v", err)
			}
			if len(want) != tc.size {
				t.Fatalf("expected %d results, got %d", tc.size, len(want))
			}

			runs := []struct {
				name string
				s    *dag.Scheduler
			}{
				{"concurrent", dag.NewScheduler(g)},
				{"concurrent max 2", dag.NewScheduler(g, dag.WithMaxParallel(2))},
				{"concurrent max 1", dag.NewScheduler(g, dag.WithMaxParallel(1))},
			}
			for _, run := range runs {
				got, err := run.s.Run(context.Background(), dag.Concurrent)
				if err != nil {
					t.Fatalf("%s run: %v", run.name, err)
				}
				if !maps.Equal(got, want) {
					t.Fatalf("%s: expected %v, got %v", run.name, want, got)
				}
			}
		})
	}
}
